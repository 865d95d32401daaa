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

// Package savefile redirects the hosted program's file writes into
// memory. Programs that write progress files during a run would
// otherwise leave the filesystem out of step with a restored snapshot:
// the snapshot rolls the program back but not the files it has written.
// Keeping written files in memory means they are part of program state
// and roll back with everything else.
//
// A file becomes a save file the first time the program opens it for
// writing, provided the policy function allows it. From then on every
// open of that path is served from memory, reads included.
package savefile

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/stepfault/lockstep/curated"
)

// Sentinel error patterns returned by the List type.
const (
	NotSaveFile = "savefile: %s is not a save file"
	FileRemoved = "savefile: %s has been removed"
)

// File is an in-memory save file.
type File struct {
	path    string
	data    []byte
	removed bool
}

// Path returns the path the file was registered under.
func (f *File) Path() string {
	return f.path
}

// Data returns the current contents. The caller must not mutate the
// returned slice outside the List's lock.
func (f *File) Data() []byte {
	return f.data
}

// Write replaces the file contents.
func (f *File) Write(data []byte) {
	f.data = make([]byte, len(data))
	copy(f.data, data)
	f.removed = false
}

// List tracks every save file of the hosted program.
type List struct {
	crit sync.Mutex

	// whether redirection is switched on at all. consulted on every
	// IsSaveFile decision so the controller can toggle it mid-run
	enabled func() bool

	files map[string]*File
}

// NewList is the preferred method of initialisation for the List type.
// The enabled function gates whether new save files are created; files
// already registered remain redirected regardless.
func NewList(enabled func() bool) *List {
	if enabled == nil {
		enabled = func() bool { return false }
	}
	return &List{
		enabled: enabled,
		files:   make(map[string]*File),
	}
}

// IsSaveFile decides whether an open of path should be redirected into
// memory. write indicates the open requests write access.
func (l *List) IsSaveFile(path string, write bool) bool {
	l.crit.Lock()
	defer l.crit.Unlock()

	// once registered, always redirected
	if _, ok := l.files[path]; ok {
		return true
	}

	// only a write can create a save file
	if !write {
		return false
	}

	if !l.enabled() {
		return false
	}

	// device files are not save files
	clean := filepath.Clean(path)
	if strings.HasPrefix(clean, "/dev/") && !strings.HasPrefix(clean, "/dev/shm/") {
		return false
	}

	fi, err := os.Stat(path)
	if err != nil {
		// a file that does not exist yet and is being opened for
		// writing is exactly the kind of file we want to intercept
		return os.IsNotExist(err)
	}
	return fi.Mode().IsRegular()
}

// Open returns the in-memory file for path, registering it if
// necessary. The initial contents are read from the filesystem if the
// file exists there.
func (l *List) Open(path string) (*File, error) {
	l.crit.Lock()
	defer l.crit.Unlock()

	if f, ok := l.files[path]; ok {
		if f.removed {
			return nil, curated.Errorf(FileRemoved, path)
		}
		return f, nil
	}

	f := &File{path: path}
	if data, err := os.ReadFile(path); err == nil {
		f.data = data
	}
	l.files[path] = f
	return f, nil
}

// Remove marks the save file as removed. The registration stays so that
// a later open is still redirected.
func (l *List) Remove(path string) error {
	l.crit.Lock()
	defer l.crit.Unlock()

	f, ok := l.files[path]
	if !ok {
		return curated.Errorf(NotSaveFile, path)
	}
	f.data = nil
	f.removed = true
	return nil
}

// Rename moves a save file to a new path.
func (l *List) Rename(oldPath string, newPath string) error {
	l.crit.Lock()
	defer l.crit.Unlock()

	f, ok := l.files[oldPath]
	if !ok {
		return curated.Errorf(NotSaveFile, oldPath)
	}
	delete(l.files, oldPath)
	f.path = newPath
	l.files[newPath] = f
	return nil
}

// IsRemoved returns true if the path is a registered save file that has
// been removed.
func (l *List) IsRemoved(path string) bool {
	l.crit.Lock()
	defer l.crit.Unlock()

	f, ok := l.files[path]
	return ok && f.removed
}

// Each calls fn for every registered save file, removed ones included.
func (l *List) Each(fn func(f *File)) {
	l.crit.Lock()
	defer l.crit.Unlock()

	for _, f := range l.files {
		fn(f)
	}
}
