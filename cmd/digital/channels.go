package main

import (
	"flag"
	"fmt"
	"io"

	"pipelined.dev/digital"
	"pipelined.dev/digital/config"
)

type channelsCommand struct {
	config  string
	dynamic channelList
}

func (cmd *channelsCommand) Name() string {
	return "channels"
}

func (cmd *channelsCommand) Help() string {
	return "Print channels of the task"
}

func (cmd *channelsCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.config, "config", "", "path to configuration file")
	fs.Var(&cmd.dynamic, "channel", "dynamic channel [name=]lines, can be repeated")
}

func (cmd *channelsCommand) Run(out io.Writer) error {
	c, err := config.Load(cmd.config)
	if err != nil {
		return err
	}
	channels := digital.Concat(c.Channels, cmd.dynamic.channels...)
	if err := channels.Validate(); err != nil {
		return err
	}
	for i, ch := range channels {
		fmt.Fprintf(out, "%d\t%v\n", i, ch)
	}
	fmt.Fprintf(out, "Mode: %+v\n", c.Mode)
	return nil
}
