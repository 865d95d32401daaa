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

// Package modalflag is a wrapper for the flag package in the Go standard
// library. It adds program modes: the first non-flag argument can select
// a sub-mode, and each mode carries its own flags.
//
// Usage begins with NewArgs() and a call to Parse():
//
//	md := modalflag.Modes{Output: os.Stdout}
//	md.NewArgs(os.Args[1:])
//	md.AddSubModes("DEMO", "VERSION")
//
//	p, err := md.Parse()
//	switch p {
//	case modalflag.ParseHelp:
//		return
//	case modalflag.ParseError:
//		fmt.Printf("* error: %v\n", err)
//		return
//	}
//
// After a successful parse, Mode() says which sub-mode was selected (the
// first listed sub-mode is the default). The program then calls
// NewMode(), adds that mode's flags with the Add*() functions, and calls
// Parse() again for the mode's own arguments.
//
// Help output (-help) is produced automatically and includes the list of
// available sub-modes. Sub-mode comparison is case insensitive.
package modalflag
