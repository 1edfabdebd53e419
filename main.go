// SPDX-License-Identifier: MIT
package main

import (
	"runtime"

	"tonecoach/cmd"
	"tonecoach/internal/log"
	"tonecoach/pkg/build"
)

// main stamps build metadata and hands over to the command line. PortAudio
// is initialised only by the subcommands that touch a device, so analyze
// and history run on machines without audio hardware.
func main() {
	if err := build.Initialize(); err != nil {
		// Development builds carry no ldflags.
		log.Debugf("Build info incomplete: %v", err)
	}

	// One thread for the capture callback, one for the UI and analysis.
	runtime.GOMAXPROCS(2)

	if err := cmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}
