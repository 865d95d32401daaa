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

//go:build sdl
// +build sdl

// Package sdlquit implements the platform.QuitPusher capability for
// hosted programs built on SDL2.
package sdlquit

import (
	"github.com/stepfault/lockstep/curated"
	"github.com/veandco/go-sdl2/sdl"
)

// QuitError is the pattern of every error returned by this package.
const QuitError = "sdlquit: %v"

// Pusher implements the platform.QuitPusher interface for SDL2
// programs.
type Pusher struct{}

// PushQuitEvent implements the platform.QuitPusher interface.
func (Pusher) PushQuitEvent() error {
	ev := sdl.QuitEvent{
		Type:      sdl.QUIT,
		Timestamp: sdl.GetTicks(),
	}
	_, err := sdl.PushEvent(&ev)
	if err != nil {
		return curated.Errorf(QuitError, err)
	}
	return nil
}
