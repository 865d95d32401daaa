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

// Package threads virtualises the hosted program's threads. The program
// works with logical thread IDs; the package decides what OS thread
// runs behind each one.
//
// The reason for the indirection is thread recycling. A snapshot engine
// capturing whole-program state must capture every live thread, and the
// set of live OS threads must therefore be identical when a snapshot is
// restored into a later point of the run. Programs that create and
// destroy threads freely would break that equality. Under recycling a
// finished thread's OS thread is not released: the slot is parked and
// the next created logical thread reuses it, keeping the OS thread
// population stable for the whole run.
//
// A routine running on a recycled slot must not be able to tell. The
// manager clears thread local state between routines through the
// platform.TLSResetter capability, and a routine that wants to stop
// early calls Exit rather than unwinding the OS thread.
//
// Lifecycle of a slot:
//
//	(new) -> running -> zombie -> (joined/detached) -> parked -> running -> ...
//
// A detached routine that finishes goes straight to parked. With
// recycling disabled the parked state is never entered and a finished
// slot leaves the registry once it has been joined or detached.
package threads
