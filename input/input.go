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

// Package input defines the input state record delivered by the
// controller once per frame. The record is complete rather than
// incremental: it says what is held down during the frame, not what
// changed. Completeness is what makes a recording a plain list of these
// records, and what makes any frame reproducible in isolation.
//
// The struct crosses the process boundary and so contains only fixed-size
// fields in a fixed little-endian layout.
package input

// Limits of the AllInputs record.
const (
	MaxKeys        = 16
	MaxControllers = 4
	MaxAxes        = 6
)

// Pointer button bits for the PointerMask field.
const (
	PointerPrimary uint32 = 1 << iota
	PointerMiddle
	PointerSecondary
)

// AllInputs is the complete input state for one frame.
type AllInputs struct {
	// held key symbols. zero entries are empty slots
	Keys [MaxKeys]uint32

	PointerX    int32
	PointerY    int32
	PointerMask uint32

	ControllerAxes    [MaxControllers][MaxAxes]int16
	ControllerButtons [MaxControllers]uint16
}

// Clear empties the record.
func (ai *AllInputs) Clear() {
	*ai = AllInputs{}
}

// KeyHeld returns true if the key symbol appears in the record.
func (ai *AllInputs) KeyHeld(sym uint32) bool {
	if sym == 0 {
		return false
	}
	for _, k := range ai.Keys {
		if k == sym {
			return true
		}
	}
	return false
}

// HoldKey adds a key symbol to the record. Returns false if the record is
// full or the symbol is already held.
func (ai *AllInputs) HoldKey(sym uint32) bool {
	if sym == 0 || ai.KeyHeld(sym) {
		return false
	}
	for i, k := range ai.Keys {
		if k == 0 {
			ai.Keys[i] = sym
			return true
		}
	}
	return false
}

// ReleaseKey removes a key symbol from the record.
func (ai *AllInputs) ReleaseKey(sym uint32) {
	for i, k := range ai.Keys {
		if k == sym {
			ai.Keys[i] = 0
		}
	}
}
