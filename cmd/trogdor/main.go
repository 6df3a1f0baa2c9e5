// Trogdor runs a text adventure whose world reacts to player actions
// through events and keeps moving on its own through a ticking clock.
//
// Usage: trogdor [--config file] [--plain] [--script file] [--player name] [game-dir]
package main

import (
	"os"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
