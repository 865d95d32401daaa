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
	"time"

	"github.com/stepfault/lockstep/config"
	"github.com/stepfault/lockstep/curated"
)

// length of one attempt under the finite wait policy
const finiteWait = 100 * time.Millisecond

// Cond is a condition variable whose timed wait can be subjected to a
// wait policy by the manager. The standard library's condition variable
// has no timed wait at all, which is why this type exists.
type Cond struct {
	crit    sync.Mutex
	waiters []chan struct{}
}

// NewCond is the preferred method of initialisation for the Cond type.
func NewCond() *Cond {
	return &Cond{}
}

func (c *Cond) add() chan struct{} {
	c.crit.Lock()
	defer c.crit.Unlock()
	ch := make(chan struct{})
	c.waiters = append(c.waiters, ch)
	return ch
}

// remove returns false if the waiter had already been taken by a signal.
func (c *Cond) remove(ch chan struct{}) bool {
	c.crit.Lock()
	defer c.crit.Unlock()
	for i, w := range c.waiters {
		if w == ch {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// Signal wakes one waiter, if there is one.
func (c *Cond) Signal() {
	c.crit.Lock()
	defer c.crit.Unlock()
	if len(c.waiters) == 0 {
		return
	}
	close(c.waiters[0])
	c.waiters = c.waiters[1:]
}

// Broadcast wakes every waiter.
func (c *Cond) Broadcast() {
	c.crit.Lock()
	defer c.crit.Unlock()
	for _, w := range c.waiters {
		close(w)
	}
	c.waiters = nil
}

// Wait releases the lock, blocks until signalled and reacquires the
// lock before returning. As with sync.Cond the caller must hold the
// lock and must re-check its predicate on return.
func (c *Cond) Wait(l sync.Locker) {
	ch := c.add()
	l.Unlock()
	<-ch
	l.Lock()
}

// timedWait returns true if the waiter was signalled within the
// timeout.
func (c *Cond) timedWait(l sync.Locker, timeout time.Duration) bool {
	ch := c.add()
	l.Unlock()

	signalled := false
	select {
	case <-ch:
		signalled = true
	case <-time.After(timeout):
		// losing the removal race means a signal took the waiter at
		// the same moment the timeout fired. the signal wins
		signalled = !c.remove(ch)
	}

	l.Lock()
	return signalled
}

// CondWait waits on the condition variable without a timeout.
func (m *Manager) CondWait(c *Cond, l sync.Locker) {
	c.Wait(l)
}

// CondTimedWait waits on the condition variable for at most timeout.
// Returns a TimedOut error if no signal arrived in time.
//
// On the main thread the configured wait policy applies. Timeouts are a
// source of nondeterminism: a routine that times out one microsecond
// into a paused frame behaves differently from one that is signalled
// first. The finite and infinite policies trade the timeout's wall
// clock meaning for reproducibility by accounting the timeout to the
// virtual clock instead of sleeping it. Only the main thread is treated
// this way; other threads are by definition not on the deterministic
// path of the frame loop.
func (m *Manager) CondTimedWait(c *Cond, l sync.Locker, timeout time.Duration) error {
	policy := config.WaitNative
	if m.WaitPolicy != nil && m.IsMainThread() {
		policy = m.WaitPolicy()
	}

	switch policy {
	case config.WaitFinite:
		if c.timedWait(l, finiteWait) {
			return nil
		}
		m.timer.AddDelay(timeout)
		if c.timedWait(l, finiteWait) {
			return nil
		}
		return curated.Errorf(TimedOut, "condition")

	case config.WaitInfinite:
		m.timer.AddDelay(timeout)
		c.Wait(l)
		return nil
	}

	if c.timedWait(l, timeout) {
		return nil
	}
	return curated.Errorf(TimedOut, "condition")
}
