// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cmd

import (
	"fmt"
	"sort"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("pkgdb.cmd")

// Log holds the logging options shared by every subcommand.
type Log struct {
	// DefaultConfig is the logging configuration used when --logging-config
	// is not given.
	DefaultConfig string

	Debug   bool
	Verbose bool
	Config  string
}

// AddFlags adds the logging flags to f.
func (l *Log) AddFlags(f *gnuflag.FlagSet) {
	f.BoolVar(&l.Debug, "debug", false, "Equivalent to --logging-config=<root>=DEBUG")
	f.BoolVar(&l.Verbose, "verbose", false, "Show informational logging")
	f.StringVar(&l.Config, "logging-config", l.DefaultConfig, "Specify log levels for modules")
}

// Start configures the loggers and sends their output to the context's
// stderr.
func (l *Log) Start(ctx *Context) error {
	config := l.Config
	switch {
	case l.Debug:
		config = "<root>=DEBUG;" + config
	case l.Verbose:
		config = "<root>=INFO;" + config
	case config == "":
		config = "<root>=WARNING"
	}
	if err := loggo.ConfigureLoggers(config); err != nil {
		return errors.Annotate(err, "configuring loggers")
	}
	writer := loggo.NewSimpleWriter(ctx.Stderr, loggo.DefaultFormatter)
	_, err := loggo.ReplaceDefaultWriter(writer)
	return errors.Trace(err)
}

// SuperCommandParams describes a SuperCommand.
type SuperCommandParams struct {
	Name    string
	Purpose string
	Doc     string

	// Log, if set, adds the logging flags and configures logging before a
	// subcommand runs.
	Log *Log

	// GlobalFlags are added alongside the logging flags.
	GlobalFlags func(f *gnuflag.FlagSet)

	// NotifyRun, if set, is called with the name of the subcommand about
	// to run.
	NotifyRun func(name string)
}

// SuperCommand dispatches to one of its registered subcommands.
type SuperCommand struct {
	CommandBase

	params   SuperCommandParams
	commands map[string]Command
	names    map[string]string

	action     Command
	actionName string
}

// NewSuperCommand returns a SuperCommand with the help subcommand already
// registered.
func NewSuperCommand(params SuperCommandParams) *SuperCommand {
	c := &SuperCommand{
		params:   params,
		commands: make(map[string]Command),
		names:    make(map[string]string),
	}
	c.Register(&helpCommand{super: c})
	return c
}

// Register makes a subcommand available under its name and aliases.
func (c *SuperCommand) Register(sub Command) {
	info := sub.Info()
	for _, name := range append([]string{info.Name}, info.Aliases...) {
		if _, found := c.commands[name]; found {
			panic(fmt.Sprintf("command already registered: %q", name))
		}
		c.commands[name] = sub
		c.names[name] = info.Name
	}
}

// Info implements Command.
func (c *SuperCommand) Info() *Info {
	return &Info{
		Name:    c.params.Name,
		Args:    "<command> ...",
		Purpose: c.params.Purpose,
		Doc:     c.params.Doc,
	}
}

// AllowInterspersedFlags stops flag parsing at the subcommand name.
func (c *SuperCommand) AllowInterspersedFlags() bool {
	return false
}

// SetFlags implements Command.
func (c *SuperCommand) SetFlags(f *gnuflag.FlagSet) {
	if c.params.Log != nil {
		c.params.Log.AddFlags(f)
	}
	if c.params.GlobalFlags != nil {
		c.params.GlobalFlags(f)
	}
}

// Init picks the subcommand and parses its own flags and arguments.
func (c *SuperCommand) Init(args []string) error {
	if len(args) == 0 {
		c.action, c.actionName = c.commands["help"], "help"
		return nil
	}
	name := args[0]
	sub, found := c.commands[name]
	if !found {
		return errors.Errorf("unrecognized command: %s %s", c.params.Name, name)
	}
	c.action, c.actionName = sub, c.names[name]

	f := NewFlagSet(sub)
	if err := f.Parse(interspersed(sub), args[1:]); err != nil {
		if errors.Is(err, gnuflag.ErrHelp) {
			c.action = &usageCommand{target: sub}
			return nil
		}
		return errors.Trace(err)
	}
	return errors.Trace(sub.Init(f.Args()))
}

// Run starts logging and runs the chosen subcommand.
func (c *SuperCommand) Run(ctx *Context) error {
	if c.action == nil {
		return errors.New("no subcommand initialized")
	}
	if c.params.Log != nil {
		if err := c.params.Log.Start(ctx); err != nil {
			return errors.Trace(err)
		}
	}
	if c.params.NotifyRun != nil {
		c.params.NotifyRun(c.actionName)
	}
	return c.action.Run(ctx)
}

// describeCommands returns the purpose of each subcommand keyed by name.
func (c *SuperCommand) describeCommands() ([]string, map[string]string) {
	purposes := make(map[string]string)
	var names []string
	for name, sub := range c.commands {
		if c.names[name] != name {
			continue
		}
		purposes[name] = sub.Info().Purpose
		names = append(names, name)
	}
	sort.Strings(names)
	return names, purposes
}
