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

package protocol

import "fmt"

// Tag is the discriminant at the start of every control channel message.
type Tag uint32

// Tags sent from the controller to the program. The payload that follows
// each tag is noted alongside.
const (
	// end of the controller's turn. no payload
	TagEndFrameBoundary Tag = 0x40 + iota

	// SharedConfig in its fixed layout
	TagConfig

	// AllInputs in its fixed layout
	TagAllInputs

	// AllInputs to overlay on a redraw, without committing them
	TagPreviewInputs

	// redraw the current screen content. no payload
	TagExpose

	// two strings: dump filename and encoder options
	TagDumpFile

	// stop any running AV dump. no payload
	TagStopEncode

	// string: directory for snapshot files
	TagSnapshotPath

	// int32: snapshot slot index
	TagSnapshotSlot

	// capture a snapshot. no payload
	TagSaveSnapshot

	// restore the selected snapshot. no payload
	TagLoadSnapshot

	// string: text for the on-screen display
	TagOSDMessage

	// string: a ram-watch line to display. sent at the start of the
	// controller's turn
	TagRAMWatch

	// the user asked the program to quit. no payload
	TagUserQuit
)

// Tags sent from the program to the controller.
const (
	// start of the controller's turn. no payload. always the last message
	// of the program's report block
	TagStartFrameBoundary Tag = 0x80 + iota

	// string: alert text for the user
	TagAlert

	// uint64 frame counter followed by int64 virtual time in nanoseconds
	TagFrameCountTime

	// GameInfo in its fixed layout. sent at most once unless re-flagged
	TagGameInfo

	// two float32 values: displayed fps and logical fps
	TagFPS

	// the controller should schedule a backtrack snapshot. no payload
	TagDoBacktrackSnapshot

	// a snapshot restore completed and the program is resynchronising.
	// no payload
	TagLoadingSucceeded
)

func (t Tag) String() string {
	switch t {
	case TagEndFrameBoundary:
		return "end frame boundary"
	case TagConfig:
		return "config"
	case TagAllInputs:
		return "all inputs"
	case TagPreviewInputs:
		return "preview inputs"
	case TagExpose:
		return "expose"
	case TagDumpFile:
		return "dump file"
	case TagStopEncode:
		return "stop encode"
	case TagSnapshotPath:
		return "snapshot path"
	case TagSnapshotSlot:
		return "snapshot slot"
	case TagSaveSnapshot:
		return "save snapshot"
	case TagLoadSnapshot:
		return "load snapshot"
	case TagOSDMessage:
		return "osd message"
	case TagRAMWatch:
		return "ram watch"
	case TagUserQuit:
		return "user quit"
	case TagStartFrameBoundary:
		return "start frame boundary"
	case TagAlert:
		return "alert"
	case TagFrameCountTime:
		return "frame count/time"
	case TagGameInfo:
		return "game info"
	case TagFPS:
		return "fps"
	case TagDoBacktrackSnapshot:
		return "do backtrack snapshot"
	case TagLoadingSucceeded:
		return "loading succeeded"
	}
	return fmt.Sprintf("unknown (%#02x)", uint32(t))
}
