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

package savefile_test

import (
	"path/filepath"
	"testing"

	"github.com/stepfault/lockstep/savefile"
	"github.com/stepfault/lockstep/test"
)

func TestIsSaveFile(t *testing.T) {
	enabled := true
	l := savefile.NewList(func() bool { return enabled })

	p := filepath.Join(t.TempDir(), "progress.dat")

	// a read of an unregistered path is never redirected
	test.Equate(t, l.IsSaveFile(p, false), false)

	// a write to a nonexistent regular path is
	test.Equate(t, l.IsSaveFile(p, true), true)

	// device files are not
	test.Equate(t, l.IsSaveFile("/dev/urandom", true), false)

	// disabling the policy stops new save files being created
	enabled = false
	test.Equate(t, l.IsSaveFile(p, true), false)

	// but a registered path stays redirected even for reads
	enabled = true
	_, err := l.Open(p)
	test.ExpectedSuccess(t, err)
	enabled = false
	test.Equate(t, l.IsSaveFile(p, false), true)
}

func TestRemoveAndRename(t *testing.T) {
	l := savefile.NewList(func() bool { return true })

	f, err := l.Open("/tmp/does/not/exist/save.bin")
	test.ExpectedSuccess(t, err)
	f.Write([]byte("progress"))

	test.ExpectedSuccess(t, l.Remove(f.Path()))
	test.Equate(t, l.IsRemoved(f.Path()), true)

	// a removed file cannot be reopened
	_, err = l.Open(f.Path())
	test.ExpectedFailure(t, err)

	// but the registration survives removal
	test.Equate(t, l.IsSaveFile(f.Path(), false), true)

	// renaming an unregistered path fails
	test.ExpectedFailure(t, l.Rename("/nowhere", "/somewhere"))
}

func TestContentsSurviveReopen(t *testing.T) {
	l := savefile.NewList(func() bool { return true })

	f, err := l.Open("/tmp/does/not/exist/save.bin")
	test.ExpectedSuccess(t, err)
	f.Write([]byte("progress"))

	g, err := l.Open("/tmp/does/not/exist/save.bin")
	test.ExpectedSuccess(t, err)
	test.Equate(t, string(g.Data()), "progress")

	n := 0
	l.Each(func(_ *savefile.File) { n++ })
	test.Equate(t, n, 1)
}
