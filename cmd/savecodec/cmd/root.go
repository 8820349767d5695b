// SPDX-License-Identifier: MIT

// Package cmd implements the savecodec command line tool.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

type runFunction func(cmd *Command, args []string) error

func mkRunE(c *Command, f runFunction) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c.Command = cmd
		return f(c, args)
	}
}

// Command wraps the currently active cobra command with state shared by all
// subcommands.
type Command struct {
	// The currently active command.
	*cobra.Command

	root *cobra.Command
	log  *slog.Logger
}

// newRootCmd creates the base command when called without any subcommands.
func newRootCmd() *Command {
	cmd := &cobra.Command{
		Use:   "savecodec",
		Short: "savecodec decodes and encodes binary save files described by a schema.",
		Long: `savecodec reads a schema describing a binary record layout and uses it to
convert save data between its stored form and JSON.

Save data is stored as "$NNs<base64>$e": the raw record bytes are XORed with a
fixed key, zlib compressed and base64 encoded. Use --format raw or --format hex
to work on the record bytes directly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	c := &Command{Command: cmd, root: cmd}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		c.Command = cmd
		level := slog.LevelInfo
		if flagVerbose.Bool(c) {
			level = slog.LevelDebug
		}
		c.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		return nil
	}

	subCommands := []*cobra.Command{
		newCheckCmd(c),
		newDecodeCmd(c),
		newEncodeCmd(c),
		newRoundtripCmd(c),
	}

	addGlobalFlags(cmd.PersistentFlags())

	for _, sub := range subCommands {
		cmd.AddCommand(sub)
	}

	return c
}

// New creates the top-level command for the given arguments.
func New(args []string) *Command {
	c := newRootCmd()
	c.root.SetArgs(args)
	return c
}

// Run executes the command.
func (c *Command) Run() error {
	return c.root.Execute()
}

// Main runs the savecodec tool and returns the code for passing to os.Exit.
func Main() int {
	if err := New(os.Args[1:]).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "savecodec:", err)
		return 1
	}
	return 0
}
