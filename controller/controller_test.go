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

package controller_test

import (
	"net"
	"testing"

	"github.com/stepfault/lockstep/checkpoint"
	"github.com/stepfault/lockstep/controller"
	"github.com/stepfault/lockstep/frame"
	"github.com/stepfault/lockstep/protocol"
	"github.com/stepfault/lockstep/test"
	"github.com/stepfault/lockstep/threads"
	"github.com/stepfault/lockstep/vclock"
)

// a session steering a real frame runtime over an in-memory channel,
// covering the full shape of a short run: configure, save, advance,
// rewind, quit.
func TestSessionDrivesProgram(t *testing.T) {
	progEnd, ctrlEnd := net.Pipe()
	t.Cleanup(func() {
		_ = progEnd.Close()
		_ = ctrlEnd.Close()
	})

	timer := vclock.NewTimer()
	thr := threads.NewManager(timer, nil)
	rt := frame.NewRuntime(protocol.NewConn(progEnd), timer, thr, nil)
	rt.Checkpoint = checkpoint.NewMemory(rt)

	gi := protocol.GameInfo{Video: protocol.BackendSDL2}
	gi.SetName("demo")
	rt.SetGameInfo(gi)

	progDone := make(chan error, 1)
	go func() {
		for !rt.Exiting() {
			if err := rt.OnBoundary(true, nil, false); err != nil {
				progDone <- err
				return
			}
		}
		progDone <- nil
	}()

	s := controller.NewSession(protocol.NewConn(ctrlEnd))

	// frame 1: configure the session
	test.ExpectedSuccess(t, s.WaitFrameStart())
	test.Equate(t, s.Framecount(), uint64(1))

	conf := s.Config()
	conf.FastForward = true
	s.SetConfig(conf)
	test.ExpectedSuccess(t, s.SendConfig())
	test.ExpectedSuccess(t, s.SetSnapshotPath("state"))
	test.ExpectedSuccess(t, s.SetSnapshotSlot(0))
	test.ExpectedSuccess(t, s.EndFrame())

	// frame 2: save
	test.ExpectedSuccess(t, s.WaitFrameStart())
	test.Equate(t, s.Framecount(), uint64(2))

	sgi, ok := s.GameInfo()
	test.Equate(t, ok, true)
	test.Equate(t, sgi.GetName(), "demo")

	test.ExpectedSuccess(t, s.SaveSnapshot())
	test.ExpectedSuccess(t, s.EndFrame())

	// frames 3 and 4
	for i := 0; i < 2; i++ {
		test.ExpectedSuccess(t, s.WaitFrameStart())
		test.ExpectedSuccess(t, s.EndFrame())
	}

	// frame 5: rewind to the save
	test.ExpectedSuccess(t, s.WaitFrameStart())
	test.Equate(t, s.Framecount(), uint64(5))

	framecount, err := s.LoadSnapshot()
	test.ExpectedSuccess(t, err)
	test.Equate(t, framecount, uint64(2))
	test.ExpectedSuccess(t, s.EndFrame())

	// the next boundary is frame 3 again
	test.ExpectedSuccess(t, s.WaitFrameStart())
	test.Equate(t, s.Framecount(), uint64(3))

	test.ExpectedSuccess(t, s.UserQuit())
	test.ExpectedSuccess(t, s.EndFrame())

	test.ExpectedSuccess(t, <-progDone)
}
