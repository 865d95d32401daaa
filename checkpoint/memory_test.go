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

package checkpoint_test

import (
	"testing"

	"github.com/stepfault/lockstep/checkpoint"
	"github.com/stepfault/lockstep/curated"
	"github.com/stepfault/lockstep/test"
)

type state struct {
	data []byte
}

func (s *state) Snapshot() []byte {
	c := make([]byte, len(s.data))
	copy(c, s.data)
	return c
}

func (s *state) Plumb(data []byte) error {
	s.data = data
	return nil
}

func TestCaptureRestore(t *testing.T) {
	s := &state{data: []byte("frame 3")}
	m := checkpoint.NewMemory(s)
	m.SetPath("run")
	m.SetSlot(0)

	test.ExpectedSuccess(t, m.Capture())

	s.data = []byte("frame 9")
	test.ExpectedSuccess(t, m.Restore())
	test.Equate(t, string(s.data), "frame 3")

	// the in-process engine never enters a restore flight
	test.Equate(t, m.InRestoreFlight(), false)
}

func TestSlotSelection(t *testing.T) {
	s := &state{data: []byte("a")}
	m := checkpoint.NewMemory(s)
	m.SetPath("run")

	m.SetSlot(0)
	test.ExpectedSuccess(t, m.Capture())

	s.data = []byte("b")
	m.SetSlot(1)
	test.ExpectedSuccess(t, m.Capture())

	m.SetSlot(0)
	test.ExpectedSuccess(t, m.Restore())
	test.Equate(t, string(s.data), "a")

	// an empty slot is an error, not a silent no-op
	m.SetSlot(2)
	err := m.Restore()
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Is(err, checkpoint.EmptySlot), true)
}

func TestCaptureIsACopy(t *testing.T) {
	s := &state{data: []byte("aaaa")}
	m := checkpoint.NewMemory(s)

	test.ExpectedSuccess(t, m.Capture())

	// mutating the live state must not reach into the snapshot
	s.data[0] = 'z'
	test.ExpectedSuccess(t, m.Restore())
	test.Equate(t, string(s.data), "aaaa")
}
