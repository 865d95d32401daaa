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

package frame_test

import (
	"net"
	"testing"

	"github.com/stepfault/lockstep/checkpoint"
	"github.com/stepfault/lockstep/config"
	"github.com/stepfault/lockstep/frame"
	"github.com/stepfault/lockstep/protocol"
	"github.com/stepfault/lockstep/screencap"
	"github.com/stepfault/lockstep/test"
	"github.com/stepfault/lockstep/threads"
	"github.com/stepfault/lockstep/vclock"
)

// a hosted program that is nothing but a counter.
type counterProgram struct {
	count byte
}

func (p *counterProgram) Snapshot() []byte {
	return []byte{p.count}
}

func (p *counterProgram) Plumb(data []byte) error {
	p.count = data[0]
	return nil
}

func newRuntime(t *testing.T) (*frame.Runtime, *protocol.Conn, *counterProgram) {
	t.Helper()

	progEnd, ctrlEnd := net.Pipe()
	t.Cleanup(func() {
		_ = progEnd.Close()
		_ = ctrlEnd.Close()
	})

	timer := vclock.NewTimer()
	thr := threads.NewManager(timer, nil)
	rt := frame.NewRuntime(protocol.NewConn(progEnd), timer, thr, nil)
	rt.Checkpoint = checkpoint.NewMemory(rt)

	prog := &counterProgram{}
	rt.Program = prog

	return rt, protocol.NewConn(ctrlEnd), prog
}

// readReports consumes the program's report block, returning the frame
// counter it carried.
func readReports(t *testing.T, ctrl *protocol.Conn) uint64 {
	t.Helper()

	var framecount uint64
	for {
		tag, err := ctrl.RecvTag()
		test.ExpectedSuccess(t, err)

		switch tag {
		case protocol.TagAlert:
			_, err = ctrl.RecvString()
			test.ExpectedSuccess(t, err)
		case protocol.TagFrameCountTime:
			var ticks int64
			test.ExpectedSuccess(t, ctrl.RecvData(&framecount))
			test.ExpectedSuccess(t, ctrl.RecvData(&ticks))
		case protocol.TagGameInfo:
			var gi protocol.GameInfo
			test.ExpectedSuccess(t, ctrl.RecvData(&gi))
		case protocol.TagFPS:
			var fps, lfps float32
			test.ExpectedSuccess(t, ctrl.RecvData(&fps))
			test.ExpectedSuccess(t, ctrl.RecvData(&lfps))
		case protocol.TagDoBacktrackSnapshot:
			// no payload
		case protocol.TagStartFrameBoundary:
			return framecount
		default:
			t.Fatalf("unexpected tag in report block: %v", tag)
		}
	}
}

func TestBoundarySequence(t *testing.T) {
	rt, ctrl, _ := newRuntime(t)

	const numFrames = 5

	done := make(chan error, 1)
	go func() {
		for i := 0; i < numFrames; i++ {
			if err := rt.OnBoundary(true, nil, false); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	for i := 0; i < numFrames; i++ {
		framecount := readReports(t, ctrl)
		test.Equate(t, framecount, uint64(i+1))
		test.ExpectedSuccess(t, ctrl.SendTag(protocol.TagEndFrameBoundary))
	}

	test.ExpectedSuccess(t, <-done)
	test.Equate(t, rt.Framecount(), uint64(numFrames))
}

// fast-forward in rendering-skip mode must suppress every draw after
// the config arrives.
func TestSkipDraw(t *testing.T) {
	rt, ctrl, _ := newRuntime(t)

	const numFrames = 100
	draws := 0
	drawFn := func() error {
		draws++
		return nil
	}

	done := make(chan error, 1)
	go func() {
		// a non-draw boundary to receive the fast-forward config
		if err := rt.OnBoundary(false, drawFn, false); err != nil {
			done <- err
			return
		}
		for i := 0; i < numFrames; i++ {
			if err := rt.OnBoundary(true, drawFn, false); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	// first boundary delivers the fast-forward config
	_ = readReports(t, ctrl)
	conf := config.Default()
	conf.Running = true
	conf.FastForward = true
	conf.FastForwardMode = config.FFRendering
	test.ExpectedSuccess(t, ctrl.SendTag(protocol.TagConfig))
	test.ExpectedSuccess(t, ctrl.SendData(&conf))
	test.ExpectedSuccess(t, ctrl.SendTag(protocol.TagEndFrameBoundary))

	for i := 0; i < numFrames; i++ {
		_ = readReports(t, ctrl)
		test.ExpectedSuccess(t, ctrl.SendTag(protocol.TagEndFrameBoundary))
	}

	test.ExpectedSuccess(t, <-done)

	// rendering-skip mode suppressed every draw, but the frame counter
	// still advanced once per boundary
	test.Equate(t, draws, 0)
	test.Equate(t, rt.Framecount(), uint64(numFrames+1))
}

type pixelSurface struct {
	pixels []byte
}

func (s *pixelSurface) Pixels() ([]byte, error) {
	c := make([]byte, len(s.pixels))
	copy(c, s.pixels)
	return c, nil
}

func (s *pixelSurface) SetPixels(data []byte) error {
	copy(s.pixels, data)
	return nil
}

// a pixel-saving toggle received at a boundary governs that same
// boundary's screen restore.
func TestPixelSavingToggle(t *testing.T) {
	rt, ctrl, _ := newRuntime(t)

	surf := &pixelSurface{pixels: []byte{0}}
	rt.Screen = screencap.NewCache(surf)

	var frame byte
	drawFn := func() error {
		frame++
		surf.pixels[0] = frame
		return nil
	}

	boundary := func(savePixels bool) {
		done := make(chan error, 1)
		go func() {
			done <- rt.OnBoundary(true, drawFn, true)
		}()

		_ = readReports(t, ctrl)
		conf := config.Default()
		conf.SaveScreenPixels = savePixels
		test.ExpectedSuccess(t, ctrl.SendTag(protocol.TagConfig))
		test.ExpectedSuccess(t, ctrl.SendData(&conf))
		test.ExpectedSuccess(t, ctrl.SendTag(protocol.TagEndFrameBoundary))
		test.ExpectedSuccess(t, <-done)
	}

	// pixel saving starts on. the capture happens before the draw but
	// the toggle to off arrives in time to suppress the restore
	boundary(false)
	test.Equate(t, int(surf.pixels[0]), 1)

	// toggled back on. no capture this boundary but the restore runs,
	// bringing back the pixels saved at the first boundary
	boundary(true)
	test.Equate(t, int(surf.pixels[0]), 0)
}

// saving at frame 3 and loading at frame 6 must rewind the frame
// counter and the program state to frame 3.
func TestSnapshotRewind(t *testing.T) {
	rt, ctrl, prog := newRuntime(t)

	boundary := func() chan error {
		done := make(chan error, 1)
		go func() {
			prog.count++
			done <- rt.OnBoundary(true, nil, false)
		}()
		return done
	}

	endFrame := func(done chan error) {
		test.ExpectedSuccess(t, ctrl.SendTag(protocol.TagEndFrameBoundary))
		test.ExpectedSuccess(t, <-done)
	}

	// frames 1 and 2
	for i := 0; i < 2; i++ {
		done := boundary()
		_ = readReports(t, ctrl)
		endFrame(done)
	}

	// frame 3: save
	done := boundary()
	_ = readReports(t, ctrl)
	test.ExpectedSuccess(t, ctrl.SendTag(protocol.TagSnapshotPath))
	test.ExpectedSuccess(t, ctrl.SendString("state"))
	test.ExpectedSuccess(t, ctrl.SendTag(protocol.TagSnapshotSlot))
	test.ExpectedSuccess(t, ctrl.SendData(int32(0)))
	test.ExpectedSuccess(t, ctrl.SendTag(protocol.TagSaveSnapshot))
	endFrame(done)
	test.Equate(t, rt.Framecount(), uint64(3))

	// frames 4 and 5
	for i := 0; i < 2; i++ {
		done := boundary()
		_ = readReports(t, ctrl)
		endFrame(done)
	}
	test.Equate(t, rt.Framecount(), uint64(5))

	// frame 6: load. the program resynchronises after the restore
	done = boundary()
	_ = readReports(t, ctrl)
	test.ExpectedSuccess(t, ctrl.SendTag(protocol.TagLoadSnapshot))

	tag, err := ctrl.RecvTag()
	test.ExpectedSuccess(t, err)
	test.Equate(t, tag == protocol.TagLoadingSucceeded, true)

	conf := config.Default()
	test.ExpectedSuccess(t, ctrl.SendTag(protocol.TagConfig))
	test.ExpectedSuccess(t, ctrl.SendData(&conf))

	tag, err = ctrl.RecvTag()
	test.ExpectedSuccess(t, err)
	test.Equate(t, tag == protocol.TagFrameCountTime, true)
	var framecount uint64
	var ticks int64
	test.ExpectedSuccess(t, ctrl.RecvData(&framecount))
	test.ExpectedSuccess(t, ctrl.RecvData(&ticks))
	test.Equate(t, framecount, uint64(3))

	endFrame(done)

	// the frame counter and the program state are back at frame 3
	test.Equate(t, rt.Framecount(), uint64(3))
	test.Equate(t, int(prog.count), 3)
}

func TestUserQuit(t *testing.T) {
	rt, ctrl, _ := newRuntime(t)

	done := make(chan error, 1)
	go func() {
		done <- rt.OnBoundary(true, nil, false)
	}()

	_ = readReports(t, ctrl)
	test.ExpectedSuccess(t, ctrl.SendTag(protocol.TagUserQuit))
	test.ExpectedSuccess(t, ctrl.SendTag(protocol.TagEndFrameBoundary))
	test.ExpectedSuccess(t, <-done)

	test.Equate(t, rt.Exiting(), true)
}

func TestAlertDelivery(t *testing.T) {
	rt, ctrl, _ := newRuntime(t)

	rt.Alert("something happened")

	done := make(chan error, 1)
	go func() {
		done <- rt.OnBoundary(true, nil, false)
	}()

	tag, err := ctrl.RecvTag()
	test.ExpectedSuccess(t, err)
	test.Equate(t, tag == protocol.TagAlert, true)
	s, err := ctrl.RecvString()
	test.ExpectedSuccess(t, err)
	test.Equate(t, s, "something happened")

	_ = readReports(t, ctrl)
	test.ExpectedSuccess(t, ctrl.SendTag(protocol.TagEndFrameBoundary))
	test.ExpectedSuccess(t, <-done)
}

func TestBrokenChannelEndsSession(t *testing.T) {
	progEnd, ctrlEnd := net.Pipe()
	timer := vclock.NewTimer()
	thr := threads.NewManager(timer, nil)
	rt := frame.NewRuntime(protocol.NewConn(progEnd), timer, thr, checkpoint.NewMemory(&counterProgram{}))

	_ = ctrlEnd.Close()

	err := rt.OnBoundary(true, nil, false)
	test.ExpectedFailure(t, err)
}
