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

package logger_test

import (
	"strings"
	"testing"

	"github.com/stepfault/lockstep/logger"
	"github.com/stepfault/lockstep/test"
)

func TestRepeatCompression(t *testing.T) {
	logger.Clear()

	logger.Log("test", "hello")
	logger.Log("test", "hello")
	logger.Log("test", "hello")
	logger.Log("test", "goodbye")

	s := &strings.Builder{}
	logger.Write(s)

	lines := strings.Split(strings.TrimSpace(s.String()), "\n")
	test.Equate(t, len(lines), 2)
	test.Equate(t, lines[0], "test: hello (repeat x3)")
	test.Equate(t, lines[1], "test: goodbye")
}

func TestTail(t *testing.T) {
	logger.Clear()

	logger.Log("test", "one")
	logger.Log("test", "two")
	logger.Log("test", "three")

	s := &strings.Builder{}
	logger.Tail(s, 1)
	test.Equate(t, strings.TrimSpace(s.String()), "test: three")

	// asking for more entries than exist is not an error
	s.Reset()
	logger.Tail(s, 100)
	lines := strings.Split(strings.TrimSpace(s.String()), "\n")
	test.Equate(t, len(lines), 3)
}
