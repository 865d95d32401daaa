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

import (
	"math"

	"github.com/stepfault/lockstep/config"
)

// skipDraw decides whether the next frame's draw is skipped. Skipping
// only ever happens during fast-forward: presenting frames is a large
// share of frame time and the whole point of fast-forward is to spend
// as little of that as possible.
func (rt *Runtime) skipDraw(fps float32) bool {
	conf := rt.Config()

	if !conf.FastForward {
		return false
	}

	// frame-advancing through a fast-forward section must still show
	// every frame
	if !conf.Running {
		return false
	}

	// a dump must contain every frame
	if conf.AVDumping {
		return false
	}

	if conf.FastForwardMode&config.FFRendering != 0 {
		return true
	}

	// aim for about 8 presented frames per second. the skip frequency
	// is rounded to a power of two so runs of skipped frames have a
	// regular rhythm, taking the power from the float's own exponent
	skipFreq := uint32(1)
	if fps > 1 {
		e := int(math.Float32bits(fps-1)>>23) - 126 - 3
		if e < 0 {
			e = 0
		}
		if e > 31 {
			e = 31
		}
		skipFreq = uint32(1) << uint(e)
	}

	// but never present more than 1 frame in 4
	if skipFreq < 4 {
		skipFreq = 4
	}

	rt.skipCounter++
	if rt.skipCounter >= skipFreq {
		rt.skipCounter = 0
		return false
	}
	return true
}
