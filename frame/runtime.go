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

package frame

import (
	"bytes"
	"encoding/binary"
	"sync"
	"time"

	"github.com/stepfault/lockstep/checkpoint"
	"github.com/stepfault/lockstep/config"
	"github.com/stepfault/lockstep/curated"
	"github.com/stepfault/lockstep/encoder"
	"github.com/stepfault/lockstep/input"
	"github.com/stepfault/lockstep/logger"
	"github.com/stepfault/lockstep/platform"
	"github.com/stepfault/lockstep/protocol"
	"github.com/stepfault/lockstep/savefile"
	"github.com/stepfault/lockstep/screencap"
	"github.com/stepfault/lockstep/threads"
	"github.com/stepfault/lockstep/vclock"
)

// DrawFunc presents the completed frame. For most programs this is the
// buffer swap; the frame's pixels are already on the surface when it is
// called.
type DrawFunc func() error

// Runtime gathers everything the frame boundary works with. The first
// four collaborators are required; the exported fields are optional and
// degrade a feature when left nil.
type Runtime struct {
	Timer      *vclock.Timer
	Threads    *threads.Manager
	Conn       *protocol.Conn
	Checkpoint checkpoint.Engine

	// optional collaborators. set before the first boundary
	Screen    *screencap.Cache
	SaveFiles *savefile.List
	Quit      platform.QuitPusher
	AV        encoder.Source

	// hosted program state to include in snapshots taken by an
	// in-process engine
	Program checkpoint.Snapshotter

	crit sync.Mutex

	conf config.SharedConfig

	alerts []string

	gameInfo     protocol.GameInfo
	sendGameInfo bool

	inputs        input.AllInputs
	previewInputs input.AllInputs

	watches []string

	enc          *encoder.Encoder
	dumpFilename string
	dumpOptions  string

	framecount uint64
	nondraw    uint64

	fps fpsCalc

	// decided at the end of each boundary, applied at the next
	skippingDraw bool
	skipCounter  uint32

	// a backtrack snapshot is only worth asking for once a snapshot
	// exists to be incremental against
	didASnapshot  bool
	wantBacktrack bool

	exiting bool
}

// NewRuntime is the preferred method of initialisation for the Runtime
// type. The thread manager's policies are wired to the shared config so
// that controller-side changes take effect at the next lifecycle event.
func NewRuntime(conn *protocol.Conn, timer *vclock.Timer, thr *threads.Manager, engine checkpoint.Engine) *Runtime {
	rt := &Runtime{
		Timer:      timer,
		Threads:    thr,
		Conn:       conn,
		Checkpoint: engine,
		conf:       config.Default(),
	}
	rt.fps.refreshFreq = fpsInitialRefresh

	thr.Recycling = func() bool {
		return rt.Config().RecycleThreads
	}
	thr.WaitPolicy = func() config.WaitPolicy {
		return rt.Config().WaitTimeout
	}

	return rt
}

// Config returns a copy of the current shared config.
func (rt *Runtime) Config() config.SharedConfig {
	rt.crit.Lock()
	defer rt.crit.Unlock()
	return rt.conf
}

func (rt *Runtime) setConfig(conf config.SharedConfig) {
	rt.crit.Lock()
	rt.conf = conf
	rt.crit.Unlock()
	rt.Timer.SetFramerate(conf.FramerateNum, conf.FramerateDen)
}

// Framecount returns the number of boundaries crossed so far.
func (rt *Runtime) Framecount() uint64 {
	rt.crit.Lock()
	defer rt.crit.Unlock()
	return rt.framecount
}

// Inputs returns the input state committed by the controller for the
// current frame.
func (rt *Runtime) Inputs() input.AllInputs {
	rt.crit.Lock()
	defer rt.crit.Unlock()
	return rt.inputs
}

// Watches returns the ram-watch lines delivered at the last boundary.
func (rt *Runtime) Watches() []string {
	rt.crit.Lock()
	defer rt.crit.Unlock()
	w := make([]string, len(rt.watches))
	copy(w, rt.watches)
	return w
}

// Alert queues a message for the controller to show the user. Delivered
// at the next boundary.
func (rt *Runtime) Alert(msg string) {
	logger.Logf("alert", "%s", msg)
	rt.crit.Lock()
	defer rt.crit.Unlock()
	rt.alerts = append(rt.alerts, msg)
}

// SetGameInfo describes the hosted program to the controller. The
// record is delivered at the next boundary.
func (rt *Runtime) SetGameInfo(gi protocol.GameInfo) {
	rt.crit.Lock()
	defer rt.crit.Unlock()
	rt.gameInfo = gi
	rt.sendGameInfo = true
}

// RequestBacktrackSnapshot asks the controller to schedule an automatic
// snapshot. Called around thread lifecycle events so that a rewind
// never has to cross one.
func (rt *Runtime) RequestBacktrackSnapshot() {
	rt.crit.Lock()
	defer rt.crit.Unlock()
	rt.wantBacktrack = true
}

// Exiting reports whether the controller has asked the program to quit.
// The program's loop should wind down when it sees this.
func (rt *Runtime) Exiting() bool {
	rt.crit.Lock()
	defer rt.crit.Unlock()
	return rt.exiting
}

// Snapshot implements the checkpoint.Snapshotter interface. The
// boundary's own counters and the virtual clock are part of program
// state: a restored snapshot must resume at the frame it was taken on.
func (rt *Runtime) Snapshot() []byte {
	rt.crit.Lock()
	framecount := rt.framecount
	nondraw := rt.nondraw
	rt.crit.Unlock()

	b := &bytes.Buffer{}
	_ = binary.Write(b, binary.LittleEndian, framecount)
	_ = binary.Write(b, binary.LittleEndian, nondraw)
	_ = binary.Write(b, binary.LittleEndian, int64(rt.Timer.GetTicks()))
	if rt.Program != nil {
		b.Write(rt.Program.Snapshot())
	}
	return b.Bytes()
}

// Plumb implements the checkpoint.Snapshotter interface.
func (rt *Runtime) Plumb(data []byte) error {
	b := bytes.NewBuffer(data)

	var framecount uint64
	var nondraw uint64
	var ticks int64
	if err := binary.Read(b, binary.LittleEndian, &framecount); err != nil {
		return curated.Errorf("frame: plumb: %v", err)
	}
	if err := binary.Read(b, binary.LittleEndian, &nondraw); err != nil {
		return curated.Errorf("frame: plumb: %v", err)
	}
	if err := binary.Read(b, binary.LittleEndian, &ticks); err != nil {
		return curated.Errorf("frame: plumb: %v", err)
	}

	rt.crit.Lock()
	rt.framecount = framecount
	rt.nondraw = nondraw
	rt.crit.Unlock()
	rt.Timer.SetTicks(time.Duration(ticks))

	if rt.Program != nil {
		return rt.Program.Plumb(b.Bytes())
	}
	return nil
}
