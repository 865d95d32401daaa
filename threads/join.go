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
	"time"

	"github.com/stepfault/lockstep/curated"
)

// how often a join under recycling re-examines the slot. the done
// channel cannot be waited on because the slot, and the channel with
// it, may be reused the moment a detached routine finishes elsewhere
const joinPoll = time.Millisecond

// joinable validates that the slot can be joined by the caller.
func (m *Manager) joinable(id ID) (*thread, error) {
	t, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	t.crit.Lock()
	detached := t.detached
	t.crit.Unlock()
	if detached {
		return nil, curated.Errorf(InvalidThread, id)
	}
	return t, nil
}

// reap takes the routine's return value and releases the slot. called
// with t.crit held and t.state == StateZombie.
func (m *Manager) reap(t *thread) interface{} {
	retval := t.retval
	t.detached = true
	t.retval = nil
	if m.recycling() {
		t.state = StateParked
		t.cond.Broadcast()
	}
	return retval
}

// Join blocks until the routine finishes and returns its return value.
func (m *Manager) Join(id ID) (interface{}, error) {
	m.WaitForRegistrations()

	t, err := m.joinable(id)
	if err != nil {
		return nil, err
	}

	if m.recycling() {
		for {
			t.crit.Lock()
			// a concurrent Detach takes the slot away from us. without
			// this check the worker would park the slot directly and
			// the zombie we are polling for would never appear
			if t.detached {
				t.crit.Unlock()
				return nil, curated.Errorf(InvalidThread, id)
			}
			if t.state == StateZombie {
				retval := m.reap(t)
				t.crit.Unlock()
				return retval, nil
			}
			t.crit.Unlock()
			time.Sleep(joinPoll)
		}
	}

	t.crit.Lock()
	done := t.done
	t.crit.Unlock()
	<-done

	t.crit.Lock()
	if t.detached {
		t.crit.Unlock()
		return nil, curated.Errorf(InvalidThread, id)
	}
	retval := m.reap(t)
	t.crit.Unlock()
	m.removeSlot(t)
	return retval, nil
}

// TryJoin is Join except that it fails with a WouldBlock error if the
// routine has not finished.
func (m *Manager) TryJoin(id ID) (interface{}, error) {
	m.WaitForRegistrations()

	t, err := m.joinable(id)
	if err != nil {
		return nil, err
	}

	t.crit.Lock()
	if t.detached {
		t.crit.Unlock()
		return nil, curated.Errorf(InvalidThread, id)
	}
	if t.state != StateZombie {
		t.crit.Unlock()
		return nil, curated.Errorf(WouldBlock, id)
	}
	retval := m.reap(t)
	recycling := m.recycling()
	t.crit.Unlock()

	if !recycling {
		m.removeSlot(t)
	}
	return retval, nil
}

// TimedJoin is Join with an upper bound on the wait. On timeout the
// thread remains joinable.
//
// Under recycling the full timeout is slept before the slot is
// examined. The timeout is the caller's worst case and the run is only
// reproducible if the outcome does not depend on how quickly the
// routine finishes inside it.
func (m *Manager) TimedJoin(id ID, timeout time.Duration) (interface{}, error) {
	m.WaitForRegistrations()

	t, err := m.joinable(id)
	if err != nil {
		return nil, err
	}

	if m.recycling() {
		time.Sleep(timeout)
		retval, err := m.TryJoin(id)
		if err != nil && curated.Is(err, WouldBlock) {
			return nil, curated.Errorf(TimedOut, id)
		}
		return retval, err
	}

	t.crit.Lock()
	done := t.done
	t.crit.Unlock()

	select {
	case <-done:
	case <-time.After(timeout):
		return nil, curated.Errorf(TimedOut, id)
	}

	t.crit.Lock()
	if t.detached {
		t.crit.Unlock()
		return nil, curated.Errorf(InvalidThread, id)
	}
	retval := m.reap(t)
	t.crit.Unlock()
	m.removeSlot(t)
	return retval, nil
}

// Detach gives up the ability to join the thread. A detached routine's
// slot is parked, or removed when recycling is off, as soon as the
// routine finishes.
func (m *Manager) Detach(id ID) error {
	m.wrapper.Lock()
	defer m.wrapper.Unlock()

	t, err := m.lookup(id)
	if err != nil {
		return err
	}

	t.crit.Lock()
	if t.detached {
		t.crit.Unlock()
		return curated.Errorf(InvalidThread, id)
	}
	t.detached = true
	finished := t.state == StateZombie
	if finished && m.recycling() {
		t.state = StateParked
		t.retval = nil
		t.cond.Broadcast()
	}
	t.crit.Unlock()

	if finished && !m.recycling() {
		m.removeSlot(t)
	}
	return nil
}
