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

package threads_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stepfault/lockstep/curated"
	"github.com/stepfault/lockstep/test"
	"github.com/stepfault/lockstep/threads"
	"github.com/stepfault/lockstep/vclock"
)

// a TLSResetter that counts its calls.
type countingResetter struct {
	resets int32
}

func (r *countingResetter) ResetThreadLocalState() error {
	atomic.AddInt32(&r.resets, 1)
	return nil
}

func newManager(recycling bool) *threads.Manager {
	m := threads.NewManager(vclock.NewTimer(), nil)
	m.Recycling = func() bool { return recycling }
	return m
}

func TestJoinReturnValue(t *testing.T) {
	m := newManager(true)
	defer m.Quit()

	id, err := m.Create(func(arg interface{}) interface{} {
		return arg.(int) * 2
	}, 21, "doubler", false)
	test.ExpectedSuccess(t, err)

	retval, err := m.Join(id)
	test.ExpectedSuccess(t, err)
	test.Equate(t, retval.(int), 42)

	// a joined thread cannot be joined again
	_, err = m.Join(id)
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Is(err, threads.InvalidThread), true)
}

func TestEarlyExit(t *testing.T) {
	m := newManager(true)
	defer m.Quit()

	id, err := m.Create(func(_ interface{}) interface{} {
		threads.Exit("early")
		return "late"
	}, nil, "quitter", false)
	test.ExpectedSuccess(t, err)

	retval, err := m.Join(id)
	test.ExpectedSuccess(t, err)
	test.Equate(t, retval.(string), "early")
}

// four threads created, joined and created again must not grow the OS
// thread population beyond four.
func TestRecycling(t *testing.T) {
	m := newManager(true)
	defer m.Quit()

	routine := func(arg interface{}) interface{} {
		return arg
	}

	for round := 0; round < 3; round++ {
		ids := make([]threads.ID, 4)
		for i := range ids {
			var err error
			ids[i], err = m.Create(routine, i, "worker", false)
			test.ExpectedSuccess(t, err)
		}
		for i, id := range ids {
			retval, err := m.Join(id)
			test.ExpectedSuccess(t, err)
			test.Equate(t, retval.(int), i)
		}
	}

	test.Equate(t, m.Spawned(), 4)
	test.Equate(t, m.Occupied(), 0)
}

func TestNoRecycling(t *testing.T) {
	m := newManager(false)
	defer m.Quit()

	routine := func(arg interface{}) interface{} {
		return arg
	}

	for round := 0; round < 3; round++ {
		id, err := m.Create(routine, round, "worker", false)
		test.ExpectedSuccess(t, err)
		retval, err := m.Join(id)
		test.ExpectedSuccess(t, err)
		test.Equate(t, retval.(int), round)
	}

	// without recycling every creation spawns
	test.Equate(t, m.Spawned(), 3)

	// and every joined slot leaves the registry
	_, err := m.Join(threads.ID(1))
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Is(err, threads.NoSuchThread), true)
}

func TestDetached(t *testing.T) {
	m := newManager(true)
	defer m.Quit()

	release := make(chan struct{})
	id, err := m.Create(func(_ interface{}) interface{} {
		<-release
		return nil
	}, nil, "detached", true)
	test.ExpectedSuccess(t, err)

	// a detached thread cannot be joined even while running
	_, err = m.Join(id)
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Is(err, threads.InvalidThread), true)

	// detaching twice is an error
	err = m.Detach(id)
	test.ExpectedFailure(t, err)

	close(release)
}

// a detach must not strand a join that is already waiting on the slot.
func TestDetachDuringJoin(t *testing.T) {
	for _, recycle := range []bool{true, false} {
		m := newManager(recycle)

		release := make(chan struct{})
		id, err := m.Create(func(_ interface{}) interface{} {
			<-release
			return nil
		}, nil, "blocked", false)
		test.ExpectedSuccess(t, err)

		joined := make(chan error, 1)
		go func() {
			_, err := m.Join(id)
			joined <- err
		}()

		// let the join settle into its wait before detaching
		time.Sleep(50 * time.Millisecond)
		test.ExpectedSuccess(t, m.Detach(id))
		close(release)

		select {
		case err := <-joined:
			test.ExpectedFailure(t, err)
			test.Equate(t, curated.Is(err, threads.InvalidThread), true)
		case <-time.After(2 * time.Second):
			t.Fatal("join still blocked after the detached routine finished")
		}

		m.Quit()
	}
}

// an exit during the unwind of another exit still ends the routine
// cleanly. the later exit's value wins and the registry is undisturbed.
func TestDoubleExit(t *testing.T) {
	m := newManager(true)
	defer m.Quit()

	id, err := m.Create(func(_ interface{}) interface{} {
		defer threads.Exit("late")
		threads.Exit("early")
		return "unreachable"
	}, nil, "exiter", false)
	test.ExpectedSuccess(t, err)

	retval, err := m.Join(id)
	test.ExpectedSuccess(t, err)
	test.Equate(t, retval.(string), "late")

	test.Equate(t, m.Occupied(), 0)
	test.Equate(t, m.Spawned(), 1)
}

func TestTryJoin(t *testing.T) {
	m := newManager(true)
	defer m.Quit()

	release := make(chan struct{})
	id, err := m.Create(func(_ interface{}) interface{} {
		<-release
		return "done"
	}, nil, "slow", false)
	test.ExpectedSuccess(t, err)

	_, err = m.TryJoin(id)
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Is(err, threads.WouldBlock), true)

	close(release)

	retval, err := m.Join(id)
	test.ExpectedSuccess(t, err)
	test.Equate(t, retval.(string), "done")
}

func TestTimedJoin(t *testing.T) {
	m := newManager(true)
	defer m.Quit()

	release := make(chan struct{})
	id, err := m.Create(func(_ interface{}) interface{} {
		<-release
		return "done"
	}, nil, "slow", false)
	test.ExpectedSuccess(t, err)

	_, err = m.TimedJoin(id, 10*time.Millisecond)
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Is(err, threads.TimedOut), true)

	// a timed out join leaves the thread joinable
	close(release)
	retval, err := m.Join(id)
	test.ExpectedSuccess(t, err)
	test.Equate(t, retval.(string), "done")
}

// thread local state is cleared between the routines sharing a slot.
func TestTLSReset(t *testing.T) {
	r := &countingResetter{}
	m := threads.NewManager(vclock.NewTimer(), r)
	m.Recycling = func() bool { return true }
	defer m.Quit()

	for i := 0; i < 3; i++ {
		id, err := m.Create(func(_ interface{}) interface{} {
			return nil
		}, nil, "worker", false)
		test.ExpectedSuccess(t, err)
		_, err = m.Join(id)
		test.ExpectedSuccess(t, err)
	}

	test.Equate(t, m.Spawned(), 1)
	test.Equate(t, int(atomic.LoadInt32(&r.resets)), 3)
}

func TestWaitForRegistrations(t *testing.T) {
	m := newManager(true)
	defer m.Quit()

	ids := make([]threads.ID, 8)
	for i := range ids {
		var err error
		ids[i], err = m.Create(func(_ interface{}) interface{} {
			return nil
		}, nil, "worker", false)
		test.ExpectedSuccess(t, err)
	}

	// once this returns, every routine has started
	m.WaitForRegistrations()

	for _, id := range ids {
		_, err := m.Join(id)
		test.ExpectedSuccess(t, err)
	}
}
