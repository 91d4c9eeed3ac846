package main

import (
	"fmt"
	"os"

	app "github.com/slabforge/tsk/internal"
	"github.com/slabforge/tsk/internal/cli"
	"github.com/slabforge/tsk/internal/core"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	basePath := app.ResolveBasePath()

	a, err := app.NewApp(basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing tsk: %v\n", err)
		os.Exit(1)
	}

	err = cli.Execute()
	a.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(core.ExitCode(err))
	}
}
