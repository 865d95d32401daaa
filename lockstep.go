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

package main

import (
	"fmt"
	"os"

	"github.com/stepfault/lockstep/logger"
	"github.com/stepfault/lockstep/modalflag"
	"github.com/stepfault/lockstep/statsview"
	"github.com/stepfault/lockstep/version"
)

func main() {
	md := &modalflag.Modes{Output: os.Stdout}
	md.NewArgs(os.Args[1:])
	md.AddSubModes("DEMO", "VERSION")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		os.Exit(0)

	case modalflag.ParseError:
		fmt.Printf("* error: %v\n", err)
		os.Exit(10)
	}

	switch md.Mode() {
	case "DEMO":
		err = demo(md)

	case "VERSION":
		err = showVersion(md)
	}

	if err != nil {
		fmt.Printf("* error in %s mode: %s\n", md.String(), err)
		os.Exit(20)
	}
}

func demo(md *modalflag.Modes) error {
	md.NewMode()

	frames := md.AddUint64("frames", 300, "number of frames to run (scripted mode)")
	interactive := md.AddBool("interactive", false, "drive the demo from the keyboard")
	fastForward := md.AddBool("fastforward", false, "run the scripted demo as fast as possible")
	record := md.AddString("record", "", "AV dump file stem. empty means no dump")
	useLog := md.AddBool("log", false, "echo log output to stderr")
	useStats := md.AddBool("statsview", false, "run stats server")

	md.AdditionalHelp(
		"The demo hosts a small deterministic program in-process and steers it over an\n" +
			"in-memory control channel: pausing, stepping, rewinding and dumping it exactly\n" +
			"as a controller would steer a real program.")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if *useLog {
		logger.SetEcho(os.Stderr)
	}

	if *useStats {
		if statsview.Available() {
			statsview.Launch(os.Stderr)
		} else {
			fmt.Println("* stats server not available. compile with statsview build tag")
		}
	}

	if *interactive {
		return interactiveDemo(os.Stdout)
	}
	return scriptedDemo(os.Stdout, *frames, *fastForward, *record)
}

func showVersion(md *modalflag.Modes) error {
	md.NewMode()

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	fmt.Printf("lockstep %s\n", version.Version)
	return nil
}
