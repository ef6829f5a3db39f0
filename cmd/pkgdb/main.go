// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"os"
	"runtime"

	"github.com/juju/gnuflag"
	"github.com/juju/loggo"

	"github.com/juju/pkgdb/internal/cmd"
)

var logger = loggo.GetLogger("pkgdb.cmd.pkgdb")

const defaultConfigPath = "/usr/local/etc/pkgdb.yaml"

var pkgdbDoc = `
pkgdb inspects and maintains the package database: the local catalog of
installed packages and the repository catalogs packages are installed from.

The database directory and repositories are read from the configuration
file. The PKG_DBDIR environment variable and the --dbdir option override
the directory.
`

// globals holds the options shared by every subcommand.
type globals struct {
	configPath string
	dbDir      string
	readOnly   bool
}

func (g *globals) addFlags(f *gnuflag.FlagSet) {
	f.StringVar(&g.configPath, "config", defaultConfigPath, "Path of the configuration file")
	f.StringVar(&g.dbDir, "dbdir", "", "Override the database directory")
	f.BoolVar(&g.readOnly, "read-only", false, "Open the local catalog read-only")
}

// NewSuperCommand returns the pkgdb command with every subcommand
// registered.
func NewSuperCommand() *cmd.SuperCommand {
	g := &globals{}
	super := cmd.NewSuperCommand(cmd.SuperCommandParams{
		Name:        "pkgdb",
		Purpose:     "Inspect and maintain the package database.",
		Doc:         pkgdbDoc,
		Log:         &cmd.Log{DefaultConfig: os.Getenv("PKGDB_LOGGING_CONFIG")},
		GlobalFlags: g.addFlags,
		NotifyRun: func(name string) {
			logger.Debugf("running %s [%s %s]", name, runtime.Compiler, runtime.Version())
		},
	})
	for _, c := range []cmd.Command{
		&infoCommand{globals: g},
		&whichCommand{globals: g},
		&searchCommand{globals: g},
		&planCommand{globals: g},
		&registerCommand{globals: g},
		&unregisterCommand{globals: g},
		&automaticCommand{globals: g},
		&backupCommand{globals: g},
		&restoreCommand{globals: g},
		&compactCommand{globals: g},
		&repoAddCommand{globals: g},
		&repoListCommand{globals: g},
	} {
		super.Register(c)
	}
	return super
}

// Main runs the pkgdb command with args and returns the exit code.
func Main(ctx context.Context, args []string) int {
	dir, err := os.Getwd()
	if err != nil {
		dir = "/"
	}
	return cmd.Main(NewSuperCommand(), &cmd.Context{
		Context: ctx,
		Dir:     dir,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}, args)
}

func main() {
	os.Exit(Main(context.Background(), os.Args[1:]))
}
