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
	"github.com/stepfault/lockstep/config"
	"github.com/stepfault/lockstep/encoder"
	"github.com/stepfault/lockstep/logger"
	"github.com/stepfault/lockstep/protocol"
)

// OnBoundary pauses the program for one frame boundary. draw indicates
// whether the frame produced new screen content; drawFn presents it and
// is skipped while fast-forwarding. restoreScreen asks for the original
// frame content to be put back after the boundary, for programs whose
// surface the boundary may have dirtied with overlays.
//
// The function returns when the controller releases the frame. An error
// means the control channel is broken and the session is over; the
// boundary is never retried.
func (rt *Runtime) OnBoundary(draw bool, drawFn DrawFunc, restoreScreen bool) error {
	// the thread reaching the boundary is by definition the main thread
	rt.Threads.SetMainThread()

	rt.crit.Lock()
	rt.framecount++
	framecount := rt.framecount
	rt.crit.Unlock()

	conf := rt.Config()

	if draw {
		rt.fps.compute(framecount, rt.Timer.GetTicks(), conf.FastForward)
	}

	rt.Timer.SetPacing(!conf.FastForward)
	rt.Timer.EnterFrameBoundary()

	if err := rt.sendReports(conf); err != nil {
		return err
	}

	// the controller opens its turn with any ram-watch lines to display
	rt.crit.Lock()
	rt.watches = rt.watches[:0]
	rt.crit.Unlock()

	tag, err := rt.Conn.RecvTag()
	if err != nil {
		return err
	}
	for tag == protocol.TagRAMWatch {
		s, err := rt.Conn.RecvString()
		if err != nil {
			return err
		}
		rt.crit.Lock()
		rt.watches = append(rt.watches, s)
		rt.crit.Unlock()

		tag, err = rt.Conn.RecvTag()
		if err != nil {
			return err
		}
	}

	if !draw {
		rt.crit.Lock()
		rt.nondraw++
		rt.crit.Unlock()
	}

	// capture before presenting so a redraw during the pause shows the
	// frame as the program left it
	if !rt.skippingDraw && draw && conf.SaveScreenPixels && rt.Screen != nil {
		if err := rt.Screen.Store(); err != nil {
			logger.Logf("frame", "screen capture: %v", err)
		}
	}

	if err := rt.serviceEncoder(conf, draw); err != nil {
		logger.Logf("frame", "av dump: %v", err)
		rt.Alert("AV dump failed and has been stopped")
	}

	if !rt.skippingDraw && draw && drawFn != nil {
		if err := drawFn(); err != nil {
			logger.Logf("frame", "draw: %v", err)
		}
	}

	if err := rt.receiveLoop(tag, drawFn); err != nil {
		return err
	}

	// re-read the config: the controller may have toggled pixel saving
	// during the receive loop
	if restoreScreen && !rt.skippingDraw && draw && rt.Config().SaveScreenPixels && rt.Screen != nil && rt.Screen.Valid() {
		if err := rt.Screen.Restore(); err != nil {
			logger.Logf("frame", "screen restore: %v", err)
		}
	}

	// the decision to skip applies to the next frame. the config is
	// re-read because the controller may have changed it this boundary
	rt.skippingDraw = rt.skipDraw(rt.fps.fps)

	rt.Timer.ExitFrameBoundary()
	return nil
}

// sendReports is the program's block of the boundary conversation,
// ending with the start-of-boundary marker.
func (rt *Runtime) sendReports(conf config.SharedConfig) error {
	rt.crit.Lock()
	alerts := rt.alerts
	rt.alerts = nil
	gameInfo := rt.gameInfo
	sendGameInfo := rt.sendGameInfo
	rt.sendGameInfo = false
	wantBacktrack := rt.wantBacktrack
	rt.wantBacktrack = false
	didASnapshot := rt.didASnapshot
	framecount := rt.framecount
	rt.crit.Unlock()

	for _, a := range alerts {
		if err := rt.Conn.SendTag(protocol.TagAlert); err != nil {
			return err
		}
		if err := rt.Conn.SendString(a); err != nil {
			return err
		}
	}

	if err := rt.sendFrameCountTime(framecount); err != nil {
		return err
	}

	if sendGameInfo {
		if err := rt.Conn.SendTag(protocol.TagGameInfo); err != nil {
			return err
		}
		if err := rt.Conn.SendData(&gameInfo); err != nil {
			return err
		}
	}

	if err := rt.Conn.SendTag(protocol.TagFPS); err != nil {
		return err
	}
	if err := rt.Conn.SendData(rt.fps.fps); err != nil {
		return err
	}
	if err := rt.Conn.SendData(rt.fps.lfps); err != nil {
		return err
	}

	// a backtrack snapshot before any ordinary snapshot exists would
	// defeat incremental capture
	if wantBacktrack && conf.BacktrackSnapshot && didASnapshot {
		if err := rt.Conn.SendTag(protocol.TagDoBacktrackSnapshot); err != nil {
			return err
		}
	}

	return rt.Conn.SendTag(protocol.TagStartFrameBoundary)
}

func (rt *Runtime) sendFrameCountTime(framecount uint64) error {
	if err := rt.Conn.SendTag(protocol.TagFrameCountTime); err != nil {
		return err
	}
	if err := rt.Conn.SendData(framecount); err != nil {
		return err
	}
	return rt.Conn.SendData(int64(rt.Timer.GetTicks()))
}

// receiveLoop serves controller messages until the boundary is
// released. first is the tag left over from the ram-watch prologue.
func (rt *Runtime) receiveLoop(first protocol.Tag, drawFn DrawFunc) error {
	tag := first
	for {
		done, err := rt.dispatch(tag, drawFn)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		tag, err = rt.Conn.RecvTag()
		if err != nil {
			return err
		}
	}
}

func (rt *Runtime) dispatch(tag protocol.Tag, drawFn DrawFunc) (bool, error) {
	switch tag {
	case protocol.TagEndFrameBoundary:
		return true, nil

	case protocol.TagConfig:
		if err := rt.recvConfig(); err != nil {
			return false, err
		}

	case protocol.TagAllInputs:
		rt.crit.Lock()
		err := rt.Conn.RecvData(&rt.inputs)
		rt.crit.Unlock()
		if err != nil {
			return false, err
		}

	case protocol.TagPreviewInputs:
		rt.crit.Lock()
		err := rt.Conn.RecvData(&rt.previewInputs)
		rt.crit.Unlock()
		if err != nil {
			return false, err
		}
		rt.redraw(drawFn)

	case protocol.TagExpose:
		rt.redraw(drawFn)

	case protocol.TagDumpFile:
		s, err := rt.Conn.RecvString()
		if err != nil {
			return false, err
		}
		opts, err := rt.Conn.RecvString()
		if err != nil {
			return false, err
		}
		rt.dumpFilename = s
		rt.dumpOptions = opts

	case protocol.TagStopEncode:
		if rt.enc != nil {
			if err := rt.enc.End(); err != nil {
				logger.Logf("frame", "av dump: %v", err)
			}
			rt.enc = nil

			rt.crit.Lock()
			rt.conf.AVDumping = false
			rt.crit.Unlock()
		}

	case protocol.TagSnapshotPath:
		s, err := rt.Conn.RecvString()
		if err != nil {
			return false, err
		}
		rt.Checkpoint.SetPath(s)

	case protocol.TagSnapshotSlot:
		var slot int32
		if err := rt.Conn.RecvData(&slot); err != nil {
			return false, err
		}
		rt.Checkpoint.SetSlot(slot)

	case protocol.TagSaveSnapshot:
		if err := rt.saveSnapshot(drawFn); err != nil {
			return false, err
		}

	case protocol.TagLoadSnapshot:
		if err := rt.loadSnapshot(drawFn); err != nil {
			return false, err
		}

	case protocol.TagOSDMessage:
		s, err := rt.Conn.RecvString()
		if err != nil {
			return false, err
		}
		logger.Logf("osd", "%s", s)
		rt.redraw(drawFn)

	case protocol.TagRAMWatch:
		s, err := rt.Conn.RecvString()
		if err != nil {
			return false, err
		}
		rt.crit.Lock()
		rt.watches = append(rt.watches, s)
		rt.crit.Unlock()

	case protocol.TagUserQuit:
		logger.Log("frame", "user quit requested")
		rt.crit.Lock()
		rt.exiting = true
		rt.crit.Unlock()
		if rt.Quit != nil {
			if err := rt.Quit.PushQuitEvent(); err != nil {
				logger.Logf("frame", "push quit: %v", err)
			}
		}

	default:
		logger.Logf("frame", "unknown message received (%v)", tag)
		return true, nil
	}

	return false, nil
}

func (rt *Runtime) recvConfig() error {
	var conf config.SharedConfig
	if err := rt.Conn.RecvData(&conf); err != nil {
		return err
	}
	rt.setConfig(conf)
	return nil
}

// redraw puts the stored frame back on the surface and presents it.
// Used when the controller changes what should be on screen during the
// pause.
func (rt *Runtime) redraw(drawFn DrawFunc) {
	if rt.skippingDraw || !rt.Config().SaveScreenPixels {
		return
	}
	if rt.Screen == nil || !rt.Screen.Valid() {
		return
	}
	if err := rt.Screen.Restore(); err != nil {
		logger.Logf("frame", "screen restore: %v", err)
		return
	}
	if drawFn != nil {
		if err := drawFn(); err != nil {
			logger.Logf("frame", "draw: %v", err)
		}
	}
}

// serviceEncoder opens, feeds or closes the AV dump according to the
// config.
func (rt *Runtime) serviceEncoder(conf config.SharedConfig, draw bool) error {
	if !conf.AVDumping {
		if rt.enc != nil {
			err := rt.enc.End()
			rt.enc = nil
			return err
		}
		return nil
	}

	if rt.AV == nil {
		return nil
	}

	if rt.enc == nil {
		var err error
		rt.enc, err = encoder.NewEncoder(rt.dumpFilename, encoder.Options{})
		if err != nil {
			rt.crit.Lock()
			rt.conf.AVDumping = false
			rt.crit.Unlock()
			return err
		}
	}

	return rt.enc.Frame(rt.AV, draw)
}

// saveSnapshot captures the program into the selected slot. Also the
// resumption point of a restore: a process-image engine resumes inside
// Capture() and reports the restore flight, an in-process engine never
// does.
func (rt *Runtime) saveSnapshot(drawFn DrawFunc) error {
	rt.Threads.WaitForRegistrations()

	if err := rt.Checkpoint.Capture(); err != nil {
		logger.Logf("frame", "snapshot: %v", err)
		rt.Alert("Snapshot capture failed")
		return nil
	}

	rt.Checkpoint.SetCurrentToParent()

	rt.crit.Lock()
	rt.didASnapshot = true
	rt.crit.Unlock()

	if rt.Checkpoint.InRestoreFlight() {
		return rt.resync(drawFn)
	}
	return nil
}

// loadSnapshot restores the program from the selected slot. With a
// process-image engine a successful restore does not return: execution
// resumes inside saveSnapshot(). An in-process engine returns here with
// the restore already applied, so the resynchronisation happens in
// place.
func (rt *Runtime) loadSnapshot(drawFn DrawFunc) error {
	err := rt.Checkpoint.Restore()
	if err != nil {
		logger.Logf("frame", "snapshot restore: %v", err)

		// the controller pulls a message whether or not the restore
		// worked
		rt.crit.Lock()
		framecount := rt.framecount
		rt.crit.Unlock()
		return rt.sendFrameCountTime(framecount)
	}

	return rt.resync(drawFn)
}

// resync realigns the two processes after a restore. The program's
// counters have jumped to another point of the run and the controller's
// copy of the config may be newer than the restored one.
func (rt *Runtime) resync(drawFn DrawFunc) error {
	if err := rt.Conn.SendTag(protocol.TagLoadingSucceeded); err != nil {
		return err
	}

	tag, err := rt.Conn.RecvTag()
	if err != nil {
		return err
	}

	pending := false
	if tag == protocol.TagConfig {
		if err := rt.recvConfig(); err != nil {
			return err
		}
	} else {
		logger.Logf("frame", "expected config during resync but received %v", tag)
		pending = true
	}

	rt.crit.Lock()
	framecount := rt.framecount
	rt.crit.Unlock()
	if err := rt.sendFrameCountTime(framecount); err != nil {
		return err
	}

	// the screen content belongs to the restored frame now
	rt.redraw(drawFn)

	rt.Checkpoint.ClearRestoreFlight()

	if pending {
		// the unexpected tag still has to be served
		_, err := rt.dispatch(tag, drawFn)
		return err
	}
	return nil
}
