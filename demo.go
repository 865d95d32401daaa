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

package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/stepfault/lockstep/checkpoint"
	"github.com/stepfault/lockstep/controller"
	"github.com/stepfault/lockstep/curated"
	"github.com/stepfault/lockstep/frame"
	"github.com/stepfault/lockstep/input"
	"github.com/stepfault/lockstep/platform"
	"github.com/stepfault/lockstep/protocol"
	"github.com/stepfault/lockstep/savefile"
	"github.com/stepfault/lockstep/screencap"
	"github.com/stepfault/lockstep/term"
	"github.com/stepfault/lockstep/threads"
	"github.com/stepfault/lockstep/vclock"
)

// dimensions of the demo program's screen.
const (
	demoWidth  = 64
	demoHeight = 64
	demoDepth  = 4
)

// audio properties of the demo program.
const (
	demoSampleFreq = 44100
	demoTone       = 220
)

// demoGame is the hosted program of the demo: a dot that crosses a
// small screen, moving faster while a key is held, humming a square
// wave and saving its progress to a file every so often. Trivial, but
// it exercises every collaborator a real program would: a surface to
// capture, audio to mix, state to snapshot, save files to divert and
// worker threads to recycle.
type demoGame struct {
	thr       *threads.Manager
	saveFiles *savefile.List

	pos   int64
	mixed int64

	pixels []byte
	audio  []int
}

func newDemoGame(thr *threads.Manager, saveFiles *savefile.List) *demoGame {
	return &demoGame{
		thr:       thr,
		saveFiles: saveFiles,
		pixels:    make([]byte, demoWidth*demoHeight*demoDepth),
	}
}

// step advances the game by one frame.
func (g *demoGame) step(ai input.AllInputs) error {
	g.pos++
	if ai.KeyHeld('z') {
		g.pos++
	}

	// some frames do their movement calculation on a worker thread.
	// pointless here, but programs do this and the thread population
	// must stay stable while they do
	if g.pos%8 == 0 {
		id, err := g.thr.Create(func(arg interface{}) interface{} {
			return arg.(int64) % (demoWidth * demoHeight)
		}, g.pos, "movement", false)
		if err != nil {
			return err
		}
		v, err := g.thr.Join(id)
		if err != nil {
			return err
		}
		g.pos = v.(int64)
	}

	// record progress the way games record progress
	if g.pos%16 == 0 && g.saveFiles.IsSaveFile("demo.sav", true) {
		f, err := g.saveFiles.Open("demo.sav")
		if err != nil {
			return err
		}
		f.Write([]byte(fmt.Sprintf("pos=%d", g.pos)))
	}

	return nil
}

// render fills the pixel buffer from the game state.
func (g *demoGame) render() {
	for i := range g.pixels {
		g.pixels[i] = 0
	}
	p := int(g.pos % (demoWidth * demoHeight))
	g.pixels[p*demoDepth] = 0xff
	g.pixels[p*demoDepth+3] = 0xff
}

// present implements the frame.DrawFunc signature. The demo has no real
// display so presenting is a no-op; the pixel buffer stands in for the
// front buffer.
func (g *demoGame) present() error {
	return nil
}

// Pixels implements the screencap.Surface interface.
func (g *demoGame) Pixels() ([]byte, error) {
	c := make([]byte, len(g.pixels))
	copy(c, g.pixels)
	return c, nil
}

// SetPixels implements the screencap.Surface interface.
func (g *demoGame) SetPixels(data []byte) error {
	if len(data) != len(g.pixels) {
		return curated.Errorf("demo: pixel data is the wrong size")
	}
	copy(g.pixels, data)
	return nil
}

// Mix implements the vclock.Mixer interface. A square wave at a fixed
// pitch, generated for exactly the span of virtual time the frame
// covers.
func (g *demoGame) Mix(frameTime time.Duration) {
	n := int(int64(frameTime) * demoSampleFreq / int64(time.Second))
	for i := 0; i < n; i++ {
		if (g.mixed/(demoSampleFreq/(2*demoTone)))%2 == 0 {
			g.audio = append(g.audio, 8000)
		} else {
			g.audio = append(g.audio, -8000)
		}
		g.mixed++
	}
}

// VideoFrame implements the encoder.Source interface.
func (g *demoGame) VideoFrame() []byte {
	return g.pixels
}

// AudioFrame implements the encoder.Source interface.
func (g *demoGame) AudioFrame() []int {
	a := g.audio
	g.audio = nil
	return a
}

// Snapshot implements the checkpoint.Snapshotter interface.
func (g *demoGame) Snapshot() []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint64(b, uint64(g.pos))
	binary.LittleEndian.PutUint64(b[8:], uint64(g.mixed))
	return b
}

// Plumb implements the checkpoint.Snapshotter interface.
func (g *demoGame) Plumb(data []byte) error {
	if len(data) != 16 {
		return curated.Errorf("demo: snapshot data is the wrong size")
	}
	g.pos = int64(binary.LittleEndian.Uint64(data))
	g.mixed = int64(binary.LittleEndian.Uint64(data[8:]))
	g.render()
	return nil
}

// hostProgram runs the demo game against one end of the control
// channel, exactly as an injected runtime would run a real program.
func hostProgram(conn net.Conn) error {
	timer := vclock.NewTimer()
	thr := threads.NewManager(timer, platform.Null{})

	rt := frame.NewRuntime(protocol.NewConn(conn), timer, thr, nil)

	saveFiles := savefile.NewList(func() bool {
		return rt.Config().PreventSaveFiles
	})

	game := newDemoGame(thr, saveFiles)

	rt.Program = game
	rt.Checkpoint = checkpoint.NewMemory(rt)
	rt.Screen = screencap.NewCache(game)
	rt.SaveFiles = saveFiles
	rt.Quit = platform.Null{}
	rt.AV = game
	timer.SetMixer(game)

	gi := protocol.GameInfo{Video: protocol.BackendSDL2, Audio: protocol.BackendALSA}
	gi.SetName("lockstep demo")
	rt.SetGameInfo(gi)

	for !rt.Exiting() {
		if err := game.step(rt.Inputs()); err != nil {
			rt.Alert(fmt.Sprintf("demo step failed: %v", err))
		}
		game.render()

		if err := rt.OnBoundary(true, game.present, false); err != nil {
			thr.Quit()
			return err
		}
	}

	thr.Quit()
	return nil
}

// scriptedDemo runs a fixed script: configure, run, save a third of the
// way in, rewind at two thirds, run to the end and quit.
func scriptedDemo(output io.Writer, frames uint64, fastForward bool, record string) error {
	if frames < 10 {
		frames = 10
	}

	progEnd, ctrlEnd := net.Pipe()

	progErr := make(chan error, 1)
	go func() {
		progErr <- hostProgram(progEnd)
	}()

	s := controller.NewSession(protocol.NewConn(ctrlEnd))

	if err := s.WaitFrameStart(); err != nil {
		return err
	}

	conf := s.Config()
	conf.Running = true
	conf.FastForward = fastForward
	conf.AVDumping = record != ""
	s.SetConfig(conf)

	if record != "" {
		if err := s.SetDumpFile(record, ""); err != nil {
			return err
		}
	}
	if err := s.SendConfig(); err != nil {
		return err
	}
	if err := s.SetSnapshotPath("demo"); err != nil {
		return err
	}
	if err := s.SetSnapshotSlot(0); err != nil {
		return err
	}

	for i := uint64(1); i < frames; i++ {
		var ai input.AllInputs
		if i%3 == 0 {
			ai.HoldKey('z')
		}
		if err := s.SendInputs(ai); err != nil {
			return err
		}

		if i == frames/3 {
			if err := s.SaveSnapshot(); err != nil {
				return err
			}
			fmt.Fprintf(output, "saved at frame %d\n", s.Framecount())
		}

		if i == (frames*2)/3 {
			framecount, err := s.LoadSnapshot()
			if err != nil {
				return err
			}
			fmt.Fprintf(output, "rewound to frame %d\n", framecount)
		}

		if err := s.EndFrame(); err != nil {
			return err
		}
		if err := s.WaitFrameStart(); err != nil {
			return err
		}
	}

	if record != "" {
		if err := s.StopEncode(); err != nil {
			return err
		}
	}

	if err := s.UserQuit(); err != nil {
		return err
	}
	if err := s.EndFrame(); err != nil {
		return err
	}

	if err := <-progErr; err != nil {
		return err
	}

	fps, lfps := s.FPS()
	fmt.Fprintf(output, "ran %d boundaries, ending on frame %d (fps %.1f, logical fps %.1f)\n",
		frames, s.Framecount(), fps, lfps)

	for _, a := range s.Alerts() {
		fmt.Fprintf(output, "alert: %s\n", a)
	}

	return nil
}

// interactiveDemo steps the demo from the keyboard.
func interactiveDemo(output io.Writer) error {
	pt := &term.Terminal{}
	if err := pt.Initialise(os.Stdin, os.Stdout); err != nil {
		return err
	}
	pt.CBreakMode()
	defer pt.CanonicalMode()

	progEnd, ctrlEnd := net.Pipe()

	progErr := make(chan error, 1)
	go func() {
		progErr <- hostProgram(progEnd)
	}()

	s := controller.NewSession(protocol.NewConn(ctrlEnd))

	if err := s.WaitFrameStart(); err != nil {
		return err
	}
	if err := s.SendConfig(); err != nil {
		return err
	}
	if err := s.SetSnapshotPath("demo"); err != nil {
		return err
	}
	if err := s.SetSnapshotSlot(0); err != nil {
		return err
	}

	pt.Print("space = advance frame, s = save, l = load, q = quit\n")

	for {
		pt.Print("\rframe %d  ", s.Framecount())

		k, err := pt.ReadKey()
		if err != nil {
			return err
		}

		switch k {
		case ' ':
			if err := s.EndFrame(); err != nil {
				return err
			}
			if err := s.WaitFrameStart(); err != nil {
				return err
			}

		case 's':
			if err := s.SaveSnapshot(); err != nil {
				return err
			}
			pt.Print("saved\n")

		case 'l':
			framecount, err := s.LoadSnapshot()
			if err != nil {
				return err
			}
			pt.Print("rewound to frame %d\n", framecount)

		case 'q':
			if err := s.UserQuit(); err != nil {
				return err
			}
			if err := s.EndFrame(); err != nil {
				return err
			}
			pt.Print("\n")
			return <-progErr
		}
	}
}
