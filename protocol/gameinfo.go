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

package protocol

import "strings"

// Backend identification bits for the GameInfo record.
const (
	BackendSDL1 uint32 = 1 << iota
	BackendSDL2
	BackendOpenGL
	BackendX11
	BackendALSA
	BackendPulse
)

// GameInfo describes the hosted program to the controller. Sent once,
// lazily, when the information becomes known.
type GameInfo struct {
	Video uint32
	Audio uint32
	Name  [32]byte
}

// SetName truncates the name to the capacity of the fixed-size field.
func (gi *GameInfo) SetName(name string) {
	for i := range gi.Name {
		gi.Name[i] = 0
	}
	copy(gi.Name[:], name)
}

// GetName returns the name without trailing padding.
func (gi *GameInfo) GetName() string {
	return strings.TrimRight(string(gi.Name[:]), "\x00")
}
