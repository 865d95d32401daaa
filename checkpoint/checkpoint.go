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

// Package checkpoint defines the interface to the snapshot engine: the
// collaborator that captures and restores whole-program state. The engine
// itself is not implemented here - the frame boundary only drives it at
// defined points. A Memory engine is provided for tests and for hosted
// programs whose state fits a byte slice.
//
// The subtlety of the interface is the restore flight. When a real engine
// restores a snapshot, execution resumes at the point where Capture()
// originally returned - the caller cannot tell a fresh capture from a
// resumption except by asking InRestoreFlight(). A caller that finds the
// flag raised must resynchronise with its peer and then lower the flag
// with ClearRestoreFlight().
package checkpoint

// Engine is the snapshot engine consumed by the frame boundary.
type Engine interface {
	// directory or prefix for snapshot storage
	SetPath(path string)

	// slot index within the path
	SetSlot(slot int32)

	// Capture the program state into the selected slot. When a restore is
	// in flight, Capture is the resumption point: it must not overwrite
	// the slot and must leave the flight flag raised for the caller.
	Capture() error

	// Restore the program state from the selected slot.
	Restore() error

	// the current snapshot becomes the parent of the next, for engines
	// doing incremental capture
	SetCurrentToParent()

	InRestoreFlight() bool
	ClearRestoreFlight()
}
