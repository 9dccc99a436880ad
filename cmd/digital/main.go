package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"pipelined.dev/digital"
)

type cli struct {
	args []string
	out  io.Writer
}

type command interface {
	Name() string
	Help() string
	Run(out io.Writer) error
	Register(*flag.FlagSet)
}

var (
	successExitCode = 0
	errorExitCode   = 1
	commands        = newCommands
)

func newCommands() []command {
	return []command{&writeCommand{}, &channelsCommand{}}
}

func main() {
	c := cli{
		args: os.Args,
		out:  os.Stdout,
	}
	os.Exit(c.run())
}

func (c *cli) run() int {
	cmdName, args := parseArgs(c.args)
	if cmdName == "" {
		printUsage(c.out)
		return errorExitCode
	}

	for _, cmd := range commands() {
		if cmd.Name() != cmdName {
			continue
		}
		flags := flag.NewFlagSet(cmdName, flag.ContinueOnError)
		flags.SetOutput(c.out)
		cmd.Register(flags)
		if err := flags.Parse(args); err != nil {
			return errorExitCode
		}
		if err := cmd.Run(c.out); err != nil {
			fmt.Fprintf(c.out, "Command failed: %v\n", err)
			return errorExitCode
		}
		return successExitCode
	}
	printUsage(c.out)
	return errorExitCode
}

func parseArgs(args []string) (string, []string) {
	if len(args) < 2 {
		return "", nil
	}
	return args[1], args[2:]
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Digital streams samples to digital output devices")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage: digital <command> [flags]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	for _, cmd := range commands() {
		fmt.Fprintf(out, "\t%s\t%s\n", cmd.Name(), cmd.Help())
	}
}

// channelList is a flag of dynamic channels. Every value is a line
// specifier with optional name and grouping: "[name=]lines[@grouping]".
type channelList struct {
	channels digital.Channels
}

func (l *channelList) String() string {
	s := make([]string, 0, len(l.channels))
	for _, c := range l.channels {
		s = append(s, c.String())
	}
	return strings.Join(s, "; ")
}

func (l *channelList) Set(v string) error {
	var c digital.Channel
	if i := strings.LastIndex(v, "@"); i >= 0 {
		g, err := digital.ParseGrouping(v[i+1:])
		if err != nil {
			return err
		}
		c.Grouping, v = g, v[:i]
	}
	c.Lines = v
	if i := strings.Index(v, "="); i >= 0 {
		c.Name, c.Lines = v[:i], v[i+1:]
	}
	if err := c.Validate(); err != nil {
		return err
	}
	l.channels = append(l.channels, c)
	return nil
}

// dynamic returns configuration stream with a single value of dynamic
// channels or nil if there are no dynamic channels.
func (l *channelList) dynamic() <-chan digital.Channels {
	if len(l.channels) == 0 {
		return nil
	}
	c := make(chan digital.Channels, 1)
	c <- l.channels
	close(c)
	return c
}
