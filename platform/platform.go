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

// Package platform groups the capabilities that depend on what the
// hosted program is built on. The core never assumes any of them is
// available: a nil or Null implementation degrades the feature rather
// than failing.
package platform

// TLSResetter clears thread local state before a recycled thread slot
// runs a new routine. A routine must observe a slot as indistinguishable
// from a freshly created thread.
type TLSResetter interface {
	ResetThreadLocalState() error
}

// QuitPusher delivers a quit request to the hosted program through its
// own event system, so the program shuts down along its normal path.
type QuitPusher interface {
	PushQuitEvent() error
}

// Null implements every platform capability as a no-op.
type Null struct{}

// ResetThreadLocalState implements the TLSResetter interface.
func (Null) ResetThreadLocalState() error {
	return nil
}

// PushQuitEvent implements the QuitPusher interface.
func (Null) PushQuitEvent() error {
	return nil
}
