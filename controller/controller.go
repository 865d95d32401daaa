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

// Package controller is the other end of the control channel: the side
// that steers a hosted program. It drives the boundary conversation
// from the controller's seat - waiting for the program to arrive at a
// boundary, issuing commands while it is held there and releasing it.
//
// A Session is driven by a single goroutine. The flow per frame is
// WaitFrameStart, any number of commands, EndFrame.
package controller

import (
	"time"

	"github.com/stepfault/lockstep/config"
	"github.com/stepfault/lockstep/curated"
	"github.com/stepfault/lockstep/input"
	"github.com/stepfault/lockstep/logger"
	"github.com/stepfault/lockstep/protocol"
)

// UnexpectedTag is returned when the program speaks out of turn.
const UnexpectedTag = "controller: unexpected message: %v"

// Session is a controller's connection to one hosted program.
type Session struct {
	conn *protocol.Conn

	// the authoritative copy of the shared config. delivered to the
	// program by SendConfig()
	conf config.SharedConfig

	framecount uint64
	ticks      time.Duration
	fps        float32
	lfps       float32

	gameInfo     protocol.GameInfo
	haveGameInfo bool

	alerts []string

	backtrack bool
}

// NewSession is the preferred method of initialisation for the Session
// type.
func NewSession(conn *protocol.Conn) *Session {
	return &Session{
		conn: conn,
		conf: config.Default(),
	}
}

// WaitFrameStart blocks until the program arrives at its next frame
// boundary, absorbing the report block it sends on the way in.
func (s *Session) WaitFrameStart() error {
	for {
		tag, err := s.conn.RecvTag()
		if err != nil {
			return err
		}

		done, err := s.report(tag)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// report absorbs one message of the program's report block. Returns
// true on the start-of-boundary marker.
func (s *Session) report(tag protocol.Tag) (bool, error) {
	switch tag {
	case protocol.TagStartFrameBoundary:
		return true, nil

	case protocol.TagAlert:
		msg, err := s.conn.RecvString()
		if err != nil {
			return false, err
		}
		logger.Logf("controller", "alert: %s", msg)
		s.alerts = append(s.alerts, msg)

	case protocol.TagFrameCountTime:
		if err := s.recvFrameCountTime(); err != nil {
			return false, err
		}

	case protocol.TagGameInfo:
		if err := s.conn.RecvData(&s.gameInfo); err != nil {
			return false, err
		}
		s.haveGameInfo = true
		logger.Logf("controller", "hosted program is %s", s.gameInfo.GetName())

	case protocol.TagFPS:
		if err := s.conn.RecvData(&s.fps); err != nil {
			return false, err
		}
		if err := s.conn.RecvData(&s.lfps); err != nil {
			return false, err
		}

	case protocol.TagDoBacktrackSnapshot:
		s.backtrack = true

	default:
		return false, curated.Errorf(UnexpectedTag, tag)
	}

	return false, nil
}

func (s *Session) recvFrameCountTime() error {
	if err := s.conn.RecvData(&s.framecount); err != nil {
		return err
	}
	var ticks int64
	if err := s.conn.RecvData(&ticks); err != nil {
		return err
	}
	s.ticks = time.Duration(ticks)
	return nil
}

// EndFrame releases the program from the boundary.
func (s *Session) EndFrame() error {
	return s.conn.SendTag(protocol.TagEndFrameBoundary)
}

// Config returns the controller's copy of the shared config.
func (s *Session) Config() config.SharedConfig {
	return s.conf
}

// SetConfig replaces the controller's copy of the shared config. The
// program does not see the change until SendConfig().
func (s *Session) SetConfig(conf config.SharedConfig) {
	s.conf = conf
}

// SendConfig delivers the shared config to the program.
func (s *Session) SendConfig() error {
	if err := s.conn.SendTag(protocol.TagConfig); err != nil {
		return err
	}
	return s.conn.SendData(&s.conf)
}

// SendInputs commits the input state for the next frame.
func (s *Session) SendInputs(ai input.AllInputs) error {
	if err := s.conn.SendTag(protocol.TagAllInputs); err != nil {
		return err
	}
	return s.conn.SendData(&ai)
}

// SendPreviewInputs shows an input state on screen without committing
// it.
func (s *Session) SendPreviewInputs(ai input.AllInputs) error {
	if err := s.conn.SendTag(protocol.TagPreviewInputs); err != nil {
		return err
	}
	return s.conn.SendData(&ai)
}

// SendRAMWatch adds a ram-watch line to the program's display.
func (s *Session) SendRAMWatch(line string) error {
	if err := s.conn.SendTag(protocol.TagRAMWatch); err != nil {
		return err
	}
	return s.conn.SendString(line)
}

// SendOSDMessage shows a message on the program's display.
func (s *Session) SendOSDMessage(msg string) error {
	if err := s.conn.SendTag(protocol.TagOSDMessage); err != nil {
		return err
	}
	return s.conn.SendString(msg)
}

// Expose asks the program to redraw its current screen content.
func (s *Session) Expose() error {
	return s.conn.SendTag(protocol.TagExpose)
}

// SetDumpFile prepares an AV dump. The dump starts when a config with
// AVDumping set is delivered.
func (s *Session) SetDumpFile(filename string, options string) error {
	if err := s.conn.SendTag(protocol.TagDumpFile); err != nil {
		return err
	}
	if err := s.conn.SendString(filename); err != nil {
		return err
	}
	return s.conn.SendString(options)
}

// StopEncode ends a running AV dump.
func (s *Session) StopEncode() error {
	s.conf.AVDumping = false
	return s.conn.SendTag(protocol.TagStopEncode)
}

// SetSnapshotPath selects where snapshots are stored.
func (s *Session) SetSnapshotPath(path string) error {
	if err := s.conn.SendTag(protocol.TagSnapshotPath); err != nil {
		return err
	}
	return s.conn.SendString(path)
}

// SetSnapshotSlot selects the snapshot slot.
func (s *Session) SetSnapshotSlot(slot int32) error {
	if err := s.conn.SendTag(protocol.TagSnapshotSlot); err != nil {
		return err
	}
	return s.conn.SendData(slot)
}

// SaveSnapshot captures the program into the selected slot.
func (s *Session) SaveSnapshot() error {
	return s.conn.SendTag(protocol.TagSaveSnapshot)
}

// LoadSnapshot restores the program from the selected slot and performs
// the resynchronisation that follows a successful restore. Returns the
// frame the program is now on.
func (s *Session) LoadSnapshot() (uint64, error) {
	if err := s.conn.SendTag(protocol.TagLoadSnapshot); err != nil {
		return 0, err
	}

	tag, err := s.conn.RecvTag()
	if err != nil {
		return 0, err
	}

	switch tag {
	case protocol.TagLoadingSucceeded:
		// the restored program has an older config; bring it up to date
		if err := s.SendConfig(); err != nil {
			return 0, err
		}

		tag, err = s.conn.RecvTag()
		if err != nil {
			return 0, err
		}
		if tag != protocol.TagFrameCountTime {
			return 0, curated.Errorf(UnexpectedTag, tag)
		}
		if err := s.recvFrameCountTime(); err != nil {
			return 0, err
		}
		return s.framecount, nil

	case protocol.TagFrameCountTime:
		// the restore failed. the program reports where it still is
		if err := s.recvFrameCountTime(); err != nil {
			return 0, err
		}
		return s.framecount, nil
	}

	return 0, curated.Errorf(UnexpectedTag, tag)
}

// UserQuit asks the program to shut down along its normal path.
func (s *Session) UserQuit() error {
	return s.conn.SendTag(protocol.TagUserQuit)
}

// Framecount returns the program's frame counter as of the last report.
func (s *Session) Framecount() uint64 {
	return s.framecount
}

// Ticks returns the program's virtual time as of the last report.
func (s *Session) Ticks() time.Duration {
	return s.ticks
}

// FPS returns the last reported framerates: against the wall clock and
// against the virtual clock.
func (s *Session) FPS() (float32, float32) {
	return s.fps, s.lfps
}

// GameInfo returns the program's description of itself, if it has sent
// one.
func (s *Session) GameInfo() (protocol.GameInfo, bool) {
	return s.gameInfo, s.haveGameInfo
}

// Alerts drains the queue of alert messages received from the program.
func (s *Session) Alerts() []string {
	a := s.alerts
	s.alerts = nil
	return a
}

// BacktrackRequested reports and clears the program's request for an
// automatic snapshot.
func (s *Session) BacktrackRequested() bool {
	b := s.backtrack
	s.backtrack = false
	return b
}
