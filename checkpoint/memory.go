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

package checkpoint

import (
	"fmt"

	"github.com/stepfault/lockstep/curated"
)

// Sentinel error patterns returned by the Memory engine.
const (
	EmptySlot = "checkpoint: no snapshot in slot %s"
)

// Snapshotter is any program state that can serialise itself for the
// Memory engine and later accept the serialisation back.
type Snapshotter interface {
	Snapshot() []byte
	Plumb(data []byte) error
}

// Memory is an in-process snapshot engine for hosted programs whose
// state fits a byte slice. Unlike a process-image engine it cannot
// resume execution at the capture point, so a restore never puts the
// engine into a restore flight: the effect of Restore() is visible to
// the caller immediately.
//
// Memory implements the Engine interface.
type Memory struct {
	target Snapshotter

	path string
	slot int32

	slots map[string][]byte
}

// NewMemory is the preferred method of initialisation for the Memory
// type.
func NewMemory(target Snapshotter) *Memory {
	return &Memory{
		target: target,
		slots:  make(map[string][]byte),
	}
}

func (m *Memory) key() string {
	return fmt.Sprintf("%s#%d", m.path, m.slot)
}

// SetPath implements the Engine interface.
func (m *Memory) SetPath(path string) {
	m.path = path
}

// SetSlot implements the Engine interface.
func (m *Memory) SetSlot(slot int32) {
	m.slot = slot
}

// Capture implements the Engine interface.
func (m *Memory) Capture() error {
	data := m.target.Snapshot()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.slots[m.key()] = cp
	return nil
}

// Restore implements the Engine interface.
func (m *Memory) Restore() error {
	data, ok := m.slots[m.key()]
	if !ok {
		return curated.Errorf(EmptySlot, m.key())
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return m.target.Plumb(cp)
}

// SetCurrentToParent implements the Engine interface. The Memory engine
// keeps full snapshots so there is nothing to do.
func (m *Memory) SetCurrentToParent() {
}

// InRestoreFlight implements the Engine interface. The Memory engine
// never enters a restore flight.
func (m *Memory) InRestoreFlight() bool {
	return false
}

// ClearRestoreFlight implements the Engine interface.
func (m *Memory) ClearRestoreFlight() {
}
