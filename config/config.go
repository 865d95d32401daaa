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

// Package config defines the configuration shared between the hosted
// program and the controller. The two processes hold their own copy of
// the SharedConfig struct and the controller's copy is authoritative: it
// is delivered over the control channel and overwrites the program's copy
// verbatim.
//
// Because the struct crosses a process boundary it contains only
// fixed-size fields and is encoded with a fixed little-endian layout. Any
// field added here changes the wire format.
package config

import (
	"encoding/binary"
	"io"

	"github.com/stepfault/lockstep/curated"
)

// WaitPolicy controls how condition waits on the main thread are
// rewritten. See the threads package for the application of the policy.
type WaitPolicy uint8

// List of valid WaitPolicy values.
//
// WaitNative leaves waits untouched. WaitFinite rewrites a timed wait
// into a short bounded wait, transferring the requested timeout into the
// deterministic timer. WaitInfinite transfers the timeout and then waits
// without bound.
const (
	WaitNative WaitPolicy = iota
	WaitFinite
	WaitInfinite
)

// Fast-forward mode bits. When FFRendering is set every draw is skipped
// while fast-forwarding.
const (
	FFSleep uint8 = 1 << iota
	FFMixing
	FFRendering
)

// SharedConfig is replicated byte-for-byte across the program and the
// controller.
type SharedConfig struct {
	// frame exchange is running freely, as opposed to single-stepping
	Running bool

	FastForward     bool
	FastForwardMode uint8

	// reuse OS worker threads across logical thread lifetimes
	RecycleThreads bool

	WaitTimeout WaitPolicy

	AVDumping        bool
	SaveScreenPixels bool

	// take an automatic snapshot around thread lifecycle events, bounding
	// how far a rewind must go
	BacktrackSnapshot bool

	// divert writes to save files into memory
	PreventSaveFiles bool

	// frame counter value at the start of the session
	InitialFrameCount uint64

	// virtual framerate as a fraction
	FramerateNum uint32
	FramerateDen uint32
}

// Default returns a SharedConfig suitable for a paused session at 60fps.
func Default() SharedConfig {
	return SharedConfig{
		RecycleThreads:   true,
		SaveScreenPixels: true,
		FramerateNum:     60,
		FramerateDen:     1,
	}
}

// Write the config in its fixed wire layout.
func (c *SharedConfig) Write(w io.Writer) error {
	err := binary.Write(w, binary.LittleEndian, c)
	if err != nil {
		return curated.Errorf("config: %v", err)
	}
	return nil
}

// Read a config in its fixed wire layout, overwriting the receiver
// verbatim.
func (c *SharedConfig) Read(r io.Reader) error {
	err := binary.Read(r, binary.LittleEndian, c)
	if err != nil {
		return curated.Errorf("config: %v", err)
	}
	return nil
}
