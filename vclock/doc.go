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

// Package vclock implements the deterministic timer: the single authority
// for the hosted program's idea of "now". Virtual time never follows the
// OS clock. It advances through exactly two paths: once per frame at the
// frame boundary, by one frame's worth of time plus any accumulated delay,
// and through AddDelay() which is how emulated sleeps and rewritten waits
// deposit the time they represent.
//
// The practical consequence is that a recording replayed against the same
// inputs observes an identical sequence of timestamps, no matter how fast
// or slow the host machine runs the frames.
package vclock
