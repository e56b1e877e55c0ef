/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package cmd dispatches the avs subcommands.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const banner = `
     ___  _   _____
    / _ \| | / / __|
   / __ / |/ /\__ \
  /_/ |_|___/ |___/
`

// CmdTree is a node of the command line. A node with Fun runs it with the
// remaining arguments; otherwise the next argument selects a child.
type CmdTree struct {
	Name string
	Help string
	Sub  []*CmdTree
	Fun  func([]string)

	// exit and out are replaced in tests
	exit func(int)
	out  io.Writer
}

func (c *CmdTree) output() io.Writer {
	if c.out != nil {
		return c.out
	}
	return os.Stderr
}

func (c *CmdTree) Usage(args []string) {
	w := c.output()
	fmt.Fprintln(w, banner[1:])
	fmt.Fprintf(w, "%s (%s)\n\n", c.Help, c.Name)
	fmt.Fprintf(w, "Usage: %s [command]\n", args[0])
	for _, sub := range c.Sub {
		if sub.Name == "" {
			fmt.Fprintln(w)
			continue
		}
		pad := 16 - len(sub.Name)
		if pad < 1 {
			pad = 1
		}
		fmt.Fprintf(w, "  %s%s%s\n", sub.Name, strings.Repeat(" ", pad), sub.Help)
	}
	fmt.Fprintln(w)

	if c.exit != nil {
		c.exit(2)
		return
	}
	os.Exit(2)
}

func (c *CmdTree) Execute(args []string) {
	// eagerly execute command if found
	if c.Fun != nil {
		c.Fun(args)
		return
	}

	if len(args) <= 1 {
		c.Usage(args)
		return
	}

	for _, sub := range c.Sub {
		if len(sub.Name) > 0 && args[1] == sub.Name {
			name := args[0] + " " + args[1]
			sargs := append([]string{name}, args[2:]...)
			sub.exit, sub.out = c.exit, c.out
			sub.Execute(sargs)
			return
		}
	}

	c.Usage(args)
}
