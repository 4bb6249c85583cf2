// Command mergevote merges or closes pull requests by the weighted reactions
// left on them.
package main

import (
	"errors"
	"os"
	_ "time/tzdata" // Window timezones in scratch containers

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/mergevote/internal/application"
	"github.com/ericfisherdev/mergevote/internal/output"
)

// exitRestart tells the supervisor to restart the service with fresh repository contents.
const exitRestart = 3

// Set by ldflags at release time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(execute(os.Args[1:], output.New()))
}

func execute(args []string, ui *output.UI) int {
	root := newRootCmd(ui)
	root.SetArgs(args)

	err := root.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, application.ErrRestartRequested):
		ui.Warning("%v, exiting with status %d", err, exitRestart)
		return exitRestart
	default:
		ui.Error("%v", err)
		return 1
	}
}
