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

// Package protocol defines the message vocabulary of the control channel
// between the hosted program and the controller, and the Conn type used
// by both sides to exchange messages.
//
// The channel itself is any in-order, reliable, bidirectional byte stream
// - a unix domain socket in practice, a net.Pipe in tests. Messages are a
// uint32 tag optionally followed by a fixed-size payload or a
// length-prefixed string. Everything is little-endian. There is no
// framing beyond the tag: both sides know the payload that follows each
// tag, which is why an unrecognised tag cannot be skipped and ends the
// frame exchange instead.
//
// The exchange is lock-step. Once per frame the program emits its reports
// terminated by TagStartFrameBoundary and then blocks reading controller
// messages until TagEndFrameBoundary. The program's main thread makes no
// progress while it waits; this is what turns free-running execution into
// controller-driven stepping.
package protocol
