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

package config_test

import (
	"bytes"
	"testing"

	"github.com/stepfault/lockstep/config"
	"github.com/stepfault/lockstep/test"
)

func TestVerbatimReplication(t *testing.T) {
	a := config.Default()
	a.Running = true
	a.FastForward = true
	a.FastForwardMode = config.FFRendering
	a.WaitTimeout = config.WaitFinite
	a.InitialFrameCount = 12345
	a.FramerateNum = 30000
	a.FramerateDen = 1001

	b := &bytes.Buffer{}
	test.ExpectedSuccess(t, a.Write(b))

	// receiver starts from a different state and must end identical
	c := config.SharedConfig{RecycleThreads: false, FramerateNum: 1}
	test.ExpectedSuccess(t, c.Read(b))

	test.Equate(t, c == a, true)
}
