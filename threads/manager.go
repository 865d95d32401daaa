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
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/stepfault/lockstep/config"
	"github.com/stepfault/lockstep/curated"
	"github.com/stepfault/lockstep/logger"
	"github.com/stepfault/lockstep/platform"
	"github.com/stepfault/lockstep/vclock"
)

// Manager owns the registry of logical threads.
type Manager struct {
	// Recycling reports whether finished slots should be parked for
	// reuse. Consulted at every lifecycle transition so the controller
	// can change the setting between frames.
	Recycling func() bool

	// WaitPolicy selects how CondTimedWait treats timeouts on the main
	// thread.
	WaitPolicy func() config.WaitPolicy

	timer *vclock.Timer
	tls   platform.TLSResetter

	// serialises create and detach against each other. never held while
	// blocking on a routine. the join family cannot take this lock, it
	// blocks for arbitrary time; it re-checks the detach flag at every
	// step instead
	wrapper sync.Mutex

	crit    sync.Mutex
	threads []*thread
	nextID  ID

	// number of OS threads ever spawned. under recycling this stops
	// growing once the population covers the program's peak demand
	spawned int

	// count of created threads whose routine has not started yet
	uninit struct {
		crit  sync.Mutex
		cond  *sync.Cond
		count int
	}

	mainTID int64
}

// NewManager is the preferred method of initialisation for the Manager
// type. tls may be nil if the platform has no thread local state to
// clear.
func NewManager(timer *vclock.Timer, tls platform.TLSResetter) *Manager {
	m := &Manager{
		Recycling:  func() bool { return true },
		WaitPolicy: func() config.WaitPolicy { return config.WaitNative },
		timer:      timer,
		tls:        tls,
	}
	m.uninit.cond = sync.NewCond(&m.uninit.crit)
	return m
}

func (m *Manager) recycling() bool {
	if m.Recycling == nil {
		return false
	}
	return m.Recycling()
}

func (m *Manager) incUninitialised() {
	m.uninit.crit.Lock()
	m.uninit.count++
	m.uninit.crit.Unlock()
}

func (m *Manager) decUninitialised() {
	m.uninit.crit.Lock()
	m.uninit.count--
	if m.uninit.count <= 0 {
		m.uninit.cond.Broadcast()
	}
	m.uninit.crit.Unlock()
}

// WaitForRegistrations blocks until every created thread has started
// its routine. The frame boundary must not run while a thread is
// between creation and registration: a snapshot taken in that window
// would miss the thread.
func (m *Manager) WaitForRegistrations() {
	m.uninit.crit.Lock()
	for m.uninit.count > 0 {
		m.uninit.cond.Wait()
	}
	m.uninit.crit.Unlock()
}

// SetMainThread records the calling thread as the program's main
// thread. Wait policies only ever apply to the main thread.
func (m *Manager) SetMainThread() {
	atomic.StoreInt64(&m.mainTID, gettid())
}

// IsMainThread reports whether the caller is the recorded main thread.
// Always false on platforms without thread identification.
func (m *Manager) IsMainThread() bool {
	tid := gettid()
	return tid != 0 && tid == atomic.LoadInt64(&m.mainTID)
}

// Create starts a routine on a logical thread and returns its ID. Under
// recycling a parked slot is reused in preference to spawning a new OS
// thread.
func (m *Manager) Create(routine Routine, arg interface{}, name string, detached bool) (ID, error) {
	m.wrapper.Lock()
	defer m.wrapper.Unlock()

	m.incUninitialised()

	if m.recycling() {
		if t := m.findParked(); t != nil {
			t.crit.Lock()
			t.routine = routine
			t.arg = arg
			t.name = name
			t.detached = detached
			t.retval = nil
			t.done = make(chan struct{})
			t.state = StateRunning
			t.cond.Broadcast()
			id := t.id
			t.crit.Unlock()
			logger.Logf("threads", "recycled slot %d for %s", id, name)
			return id, nil
		}
	}

	m.crit.Lock()
	m.nextID++
	t := newThread(m.nextID)
	t.routine = routine
	t.arg = arg
	t.name = name
	t.detached = detached
	t.state = StateRunning
	m.threads = append(m.threads, t)
	m.spawned++
	m.crit.Unlock()

	go m.worker(t)

	logger.Logf("threads", "spawned slot %d for %s", t.id, name)
	return t.id, nil
}

func (m *Manager) findParked() *thread {
	m.crit.Lock()
	defer m.crit.Unlock()
	for _, t := range m.threads {
		t.crit.Lock()
		parked := t.state == StateParked
		t.crit.Unlock()
		if parked {
			return t
		}
	}
	return nil
}

// worker is the OS thread behind a registry slot. It runs routines in a
// loop until recycling is switched off or the manager quits.
func (m *Manager) worker(t *thread) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	t.crit.Lock()
	t.tid = gettid()
	t.crit.Unlock()

	for {
		t.crit.Lock()
		for t.state != StateRunning && !t.quit {
			t.cond.Wait()
		}
		if t.quit {
			t.state = StateQuit
			t.cond.Broadcast()
			t.crit.Unlock()
			return
		}
		routine := t.routine
		arg := t.arg
		done := t.done
		t.crit.Unlock()

		// the routine is now running as far as the rest of the system
		// is concerned
		m.decUninitialised()

		retval := invoke(routine, arg)

		// the next routine must find the slot indistinguishable from a
		// fresh thread
		if m.tls != nil {
			if err := m.tls.ResetThreadLocalState(); err != nil {
				logger.Logf("threads", "tls reset on slot %d: %v", t.id, err)
			}
		}

		recycling := m.recycling()

		t.crit.Lock()
		t.retval = retval
		detached := t.detached
		if detached && recycling {
			t.state = StateParked
		} else {
			t.state = StateZombie
		}
		t.cond.Broadcast()
		t.crit.Unlock()
		close(done)

		if !recycling {
			if detached {
				m.removeSlot(t)
			}
			return
		}
	}
}

func (m *Manager) removeSlot(t *thread) {
	m.crit.Lock()
	defer m.crit.Unlock()
	for i, e := range m.threads {
		if e == t {
			m.threads = append(m.threads[:i], m.threads[i+1:]...)
			return
		}
	}
}

func (m *Manager) lookup(id ID) (*thread, error) {
	m.crit.Lock()
	defer m.crit.Unlock()
	for _, t := range m.threads {
		if t.id == id {
			return t, nil
		}
	}
	return nil, curated.Errorf(NoSuchThread, id)
}

// LookupByTID returns the logical thread ID behind an OS thread ID.
func (m *Manager) LookupByTID(tid int64) (ID, bool) {
	m.crit.Lock()
	defer m.crit.Unlock()
	for _, t := range m.threads {
		t.crit.Lock()
		match := t.tid == tid && t.state != StateQuit
		id := t.id
		t.crit.Unlock()
		if match {
			return id, true
		}
	}
	return 0, false
}

// Occupied returns the number of slots currently holding a routine or
// its unreaped result. Parked slots are not occupied.
func (m *Manager) Occupied() int {
	m.crit.Lock()
	defer m.crit.Unlock()
	n := 0
	for _, t := range m.threads {
		t.crit.Lock()
		if t.state == StateRunning || t.state == StateZombie {
			n++
		}
		t.crit.Unlock()
	}
	return n
}

// Spawned returns the number of OS threads ever spawned by the manager.
func (m *Manager) Spawned() int {
	m.crit.Lock()
	defer m.crit.Unlock()
	return m.spawned
}

// Quit releases every parked slot's OS thread. Running routines are
// left to finish; their slots will not be reused because their workers
// observe the quit flag before waiting for new work.
func (m *Manager) Quit() {
	m.crit.Lock()
	threads := make([]*thread, len(m.threads))
	copy(threads, m.threads)
	m.crit.Unlock()

	for _, t := range threads {
		t.crit.Lock()
		t.quit = true
		t.cond.Broadcast()
		t.crit.Unlock()
	}
	logger.Log("threads", "quit: released all parked slots")
}
