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

package vclock

import (
	"sync"
	"time"
)

// Mixer implementations are given the opportunity to produce audio for the
// span of virtual time covered by each frame. Called from inside
// EnterFrameBoundary() before any controller communication takes place.
type Mixer interface {
	Mix(frameTime time.Duration)
}

// Timer is the deterministic timer. The zero value is not usable; use
// NewTimer().
//
// Timer can not fail. The only externally visible effect beyond the tick
// value is that EnterFrameBoundary() may block the caller while real time
// catches up with virtual time (pacing).
type Timer struct {
	crit sync.Mutex

	// virtual time. strictly non-decreasing
	ticks time.Duration

	// delay deposited by emulated sleeps and rewritten waits. consumed
	// (folded into ticks) at the next frame boundary
	delay time.Duration

	// virtual time covered by a single frame
	frameTime time.Duration

	// pace real time to virtual time at the frame boundary
	pacing bool

	mixer Mixer

	// wall-clock time of the previous boundary exit. zero before the
	// first frame
	lastExit time.Time
}

// NewTimer is the preferred method of initialisation for the Timer type.
// The frame length defaults to a 60fps frame.
func NewTimer() *Timer {
	t := &Timer{}
	t.SetFramerate(60, 1)
	return t
}

// GetTicks returns the current virtual time.
func (t *Timer) GetTicks() time.Duration {
	t.crit.Lock()
	defer t.crit.Unlock()
	return t.ticks
}

// AddDelay deposits a span of virtual time to be consumed at the next
// frame boundary. This is how emulated sleeps and rewritten waits are
// accounted for. Negative durations are ignored.
func (t *Timer) AddDelay(d time.Duration) {
	if d <= 0 {
		return
	}
	t.crit.Lock()
	defer t.crit.Unlock()
	t.delay += d
}

// SetTicks rewinds or advances virtual time to an absolute value. Only
// ever called when a snapshot is restored; virtual time is strictly
// non-decreasing everywhere else. Pending delay is discarded because it
// belongs to the abandoned timeline.
func (t *Timer) SetTicks(ticks time.Duration) {
	t.crit.Lock()
	defer t.crit.Unlock()
	t.ticks = ticks
	t.delay = 0
}

// SetFramerate sets the amount of virtual time covered by one frame. A
// zero numerator or denominator leaves the current frame length unchanged.
func (t *Timer) SetFramerate(num, den uint32) {
	if num == 0 || den == 0 {
		return
	}
	t.crit.Lock()
	defer t.crit.Unlock()
	t.frameTime = time.Duration(uint64(time.Second) * uint64(den) / uint64(num))
}

// SetPacing controls whether EnterFrameBoundary() sleeps to hold real time
// to the virtual framerate. Pacing is off during fast-forward.
func (t *Timer) SetPacing(pacing bool) {
	t.crit.Lock()
	defer t.crit.Unlock()
	t.pacing = pacing
}

// SetMixer attaches an audio mixer to the timer. A nil mixer is allowed.
func (t *Timer) SetMixer(m Mixer) {
	t.crit.Lock()
	defer t.crit.Unlock()
	t.mixer = m
}

// EnterFrameBoundary advances virtual time by one frame plus any
// accumulated delay. Called once per frame, before any controller
// communication. May block the caller while pacing.
func (t *Timer) EnterFrameBoundary() {
	t.crit.Lock()

	advance := t.frameTime + t.delay
	t.delay = 0
	t.ticks += advance

	mixer := t.mixer
	pacing := t.pacing
	frameTime := t.frameTime
	lastExit := t.lastExit

	t.crit.Unlock()

	if mixer != nil {
		mixer.Mix(advance)
	}

	// pacing sleep happens outside the critical section. GetTicks() from
	// other threads must not block on a sleeping boundary
	if pacing && !lastExit.IsZero() {
		elapsed := time.Since(lastExit)
		if elapsed < frameTime {
			time.Sleep(frameTime - elapsed)
		}
	}
}

// ExitFrameBoundary finalises timer bookkeeping for the frame.
func (t *Timer) ExitFrameBoundary() {
	t.crit.Lock()
	defer t.crit.Unlock()
	t.lastExit = time.Now()
}
