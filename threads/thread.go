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

package threads

import (
	"sync"
)

// Sentinel error patterns returned by the threads package.
const (
	NoSuchThread  = "threads: no such thread: %v"
	InvalidThread = "threads: invalid use of thread: %v"
	WouldBlock    = "threads: thread still running: %v"
	TimedOut      = "threads: timed out: %v"
)

// ID identifies a logical thread. IDs belong to registry slots: under
// recycling an ID is reused by the next routine to run on the slot, the
// same way a native thread handle is reused by the platform.
type ID uint64

// State of a registry slot.
type State int

// List of valid State values.
const (
	// no routine has run on the slot yet
	StateUninitialised State = iota

	// a routine is executing
	StateRunning

	// the routine finished and is waiting to be joined
	StateZombie

	// the slot is free for reuse by the next Create
	StateParked

	// the backing OS thread has been released
	StateQuit
)

func (s State) String() string {
	switch s {
	case StateUninitialised:
		return "uninitialised"
	case StateRunning:
		return "running"
	case StateZombie:
		return "zombie"
	case StateParked:
		return "parked"
	case StateQuit:
		return "quit"
	}
	return "unknown"
}

// Routine is the entry point of a logical thread.
type Routine func(arg interface{}) interface{}

// thread is a registry slot and the state of the OS thread behind it.
type thread struct {
	id  ID
	tid int64

	crit sync.Mutex
	cond *sync.Cond

	state    State
	routine  Routine
	arg      interface{}
	name     string
	detached bool
	retval   interface{}
	quit     bool

	// closed when the current routine finishes. replaced on reuse
	done chan struct{}
}

func newThread(id ID) *thread {
	t := &thread{
		id:   id,
		done: make(chan struct{}),
	}
	t.cond = sync.NewCond(&t.crit)
	return t
}

// earlyExit carries a routine's return value through the stack unwind
// started by Exit.
type earlyExit struct {
	retval interface{}
}

// Exit ends the calling routine immediately with the given return
// value, as though the routine had returned it. Must only be called
// from inside a routine started by Manager.Create.
func Exit(retval interface{}) {
	panic(earlyExit{retval: retval})
}

// invoke runs the routine, converting an Exit call back into an
// ordinary return. Any other panic is left alone.
func invoke(routine Routine, arg interface{}) (retval interface{}) {
	defer func() {
		if r := recover(); r != nil {
			if ee, ok := r.(earlyExit); ok {
				retval = ee.retval
				return
			}
			panic(r)
		}
	}()
	return routine(arg)
}
