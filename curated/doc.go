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

// Package curated is the error type used throughout Lockstep. A curated
// error remembers the pattern string it was created with, allowing callers
// to test for a class of error without comparing final message strings:
//
//	err := mgr.Join(id)
//	if curated.Is(err, threads.InvalidThread) {
//		...
//	}
//
// Errors are created with Errorf(), which works like the fmt package
// function of the same name except that formatting is deferred until the
// message is needed. Is() tests the outermost pattern, Has() tests every
// pattern in the chain and IsAny() answers whether the error is curated at
// all.
//
// When curated errors wrap one another the Error() function normalises the
// resulting message, removing repeated adjacent parts. Parts are separated
// by the sub-string ': '. By convention the pattern begins with the name
// of the originating package, "threads: %v" for example.
//
// Error classes that callers are expected to test for are stored as const
// strings in the package where the error originates.
package curated
