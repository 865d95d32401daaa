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

// Package screencap caches the rendered frame across pauses and
// snapshot restores. The controller redraws the hosted program's window
// by asking for the cached pixels rather than asking the program to
// render again, which it could not do without advancing a frame.
package screencap

import "github.com/stepfault/lockstep/curated"

// NoPixels is returned by Restore when nothing has been stored.
const NoPixels = "screencap: %v"

// Surface is the rendering surface of the hosted program, as far as the
// cache is concerned.
type Surface interface {
	// a copy of the current pixel data
	Pixels() ([]byte, error)

	// replace the current pixel data
	SetPixels(data []byte) error
}

// Cache holds the last stored frame of a Surface.
type Cache struct {
	surface Surface
	saved   []byte
	ok      bool
}

// NewCache is the preferred method of initialisation for the Cache type.
func NewCache(surface Surface) *Cache {
	return &Cache{surface: surface}
}

// Store the surface's current pixels.
func (c *Cache) Store() error {
	data, err := c.surface.Pixels()
	if err != nil {
		return curated.Errorf(NoPixels, err)
	}
	c.saved = data
	c.ok = true
	return nil
}

// Restore the most recently stored pixels onto the surface.
func (c *Cache) Restore() error {
	if !c.ok {
		return curated.Errorf(NoPixels, "nothing stored")
	}
	return c.surface.SetPixels(c.saved)
}

// Valid returns true if Store() has succeeded at least once.
func (c *Cache) Valid() bool {
	return c.ok
}
