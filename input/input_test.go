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

package input_test

import (
	"testing"

	"github.com/stepfault/lockstep/input"
	"github.com/stepfault/lockstep/test"
)

func TestKeys(t *testing.T) {
	var ai input.AllInputs

	test.Equate(t, ai.HoldKey('z'), true)
	test.Equate(t, ai.KeyHeld('z'), true)

	// holding a held key is not a second entry
	test.Equate(t, ai.HoldKey('z'), false)

	ai.ReleaseKey('z')
	test.Equate(t, ai.KeyHeld('z'), false)

	// the record has a fixed capacity
	for i := 0; i < input.MaxKeys; i++ {
		test.Equate(t, ai.HoldKey(uint32('a'+i)), true)
	}
	test.Equate(t, ai.HoldKey('z'), false)

	ai.Clear()
	test.Equate(t, ai.KeyHeld('a'), false)
}
