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

// Package frame implements the frame boundary: the one point in each
// frame where the hosted program stops and talks to the controller.
//
// The boundary is the heart of the whole system. Between boundaries the
// program runs exactly as it pleases; at the boundary it is paused,
// interrogated and steered. Every controller capability - pausing,
// single-stepping, input delivery, AV dumping, snapshots - is a message
// handled while the program sits inside OnBoundary().
//
// The conversation at each boundary has a fixed shape. The program
// sends a block of reports ending with a start-of-boundary marker, then
// serves controller messages until the controller releases it with an
// end-of-boundary message. The program never speaks out of turn after
// the marker: everything it sends is a reply to something the
// controller asked for.
//
// The Runtime type gathers every collaborator the boundary needs. There
// is exactly one Runtime per hosted program and it is not safe for
// concurrent use; only the program's main thread reaches a boundary.
package frame
