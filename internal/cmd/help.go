// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cmd

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
)

type helpCommand struct {
	CommandBase
	super *SuperCommand
	topic string
}

func (c *helpCommand) Info() *Info {
	return &Info{
		Name:    "help",
		Args:    "[command]",
		Purpose: "Show help on a command or list the commands.",
	}
}

func (c *helpCommand) Init(args []string) error {
	switch len(args) {
	case 0:
	case 1:
		c.topic = args[0]
	default:
		return errors.Errorf("extra arguments to command help: %q", args[1:])
	}
	return nil
}

func (c *helpCommand) Run(ctx *Context) error {
	if c.topic == "" {
		PrintUsage(c.super, ctx.Stdout)
		fmt.Fprintf(ctx.Stdout, "\nCommands:\n%s", c.describeCommands())
		return nil
	}
	sub, found := c.super.commands[c.topic]
	if !found {
		return errors.NotFoundf("help topic %q", c.topic)
	}
	PrintUsage(sub, ctx.Stdout)
	return nil
}

func (c *helpCommand) describeCommands() string {
	names, purposes := c.super.describeCommands()
	longest := 0
	for _, name := range names {
		if len(name) > longest {
			longest = len(name)
		}
	}
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "    %-*s - %s\n", longest, name, purposes[name])
	}
	return b.String()
}

// usageCommand prints the usage of target instead of running it.
type usageCommand struct {
	CommandBase
	target Command
}

func (c *usageCommand) Info() *Info {
	return c.target.Info()
}

func (c *usageCommand) Run(ctx *Context) error {
	PrintUsage(c.target, ctx.Stdout)
	return nil
}
