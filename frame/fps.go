// This file is part of Lockstep.
//
// Lockstep is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Lockstep is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Lockstep.  If not, see <https://www.gnu.org/licenses/>.

package frame

import "time"

const (
	// number of past measurements a reading spans
	fpsHistory = 10

	// draw frames between measurements before the first reading
	fpsInitialRefresh = 15

	// draw frames between measurements at normal speed
	fpsNormalRefresh = 10
)

// fpsCalc produces two framerate readings: fps against the wall clock
// and lfps against the virtual clock. The two diverge whenever the run
// is not at realtime speed; the controller displays both.
type fpsCalc struct {
	fps  float32
	lfps float32

	refreshFreq    int
	refreshCounter int

	// ring buffers of past measurements. a reading compares the newest
	// measurement with the one from fpsHistory measurements ago
	lastFrames [fpsHistory]uint64
	lastTimes  [fpsHistory]time.Time
	lastTicks  [fpsHistory]time.Duration
	cursor     int

	// no reading until the ring has wrapped once
	canOutput bool
}

// compute refreshes the readings. Called once per draw frame.
func (f *fpsCalc) compute(framecount uint64, ticks time.Duration, fastForward bool) {
	// at normal speed a fixed refresh is fine. fast-forward adjusts the
	// refresh to the measured rate below
	if !fastForward {
		f.refreshFreq = fpsNormalRefresh
	}

	f.refreshCounter++
	if f.refreshCounter < f.refreshFreq {
		return
	}
	f.refreshCounter = 0

	i := f.cursor

	lastFrame := f.lastFrames[i]
	f.lastFrames[i] = framecount

	lastTime := f.lastTimes[i]
	f.lastTimes[i] = time.Now()

	lastTick := f.lastTicks[i]
	f.lastTicks[i] = ticks

	deltaFrames := framecount - lastFrame
	deltaTime := f.lastTimes[i].Sub(lastTime)
	deltaTicks := ticks - lastTick

	f.cursor++
	if f.cursor >= fpsHistory {
		f.cursor = 0
		f.canOutput = true
	}

	if f.canOutput {
		if deltaTime > 0 {
			f.fps = float32(deltaFrames) * float32(time.Second) / float32(deltaTime)
		}
		if deltaTicks > 0 {
			f.lfps = float32(deltaFrames) * float32(time.Second) / float32(deltaTicks)
		}

		// measure more often the faster we draw
		if fastForward && f.fps > 4 {
			f.refreshFreq = int(f.fps) / 4
		}
	}
}
