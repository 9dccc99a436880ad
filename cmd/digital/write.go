package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"pipelined.dev/digital"
	"pipelined.dev/digital/config"
	"pipelined.dev/digital/metric"
	"pipelined.dev/digital/simulated"
	"pipelined.dev/digital/source"
	"pipelined.dev/digital/source/zmqsource"
)

type writeCommand struct {
	config  string
	in      string
	zmq     string
	topic   string
	device  string
	ports   int
	frames  int
	metrics bool
	dynamic channelList
}

func (cmd *writeCommand) Name() string {
	return "write"
}

func (cmd *writeCommand) Help() string {
	return "Write samples to simulated device"
}

func (cmd *writeCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.config, "config", "", "path to configuration file")
	fs.StringVar(&cmd.in, "in", "", "samples file: .npy, .wav or binary frames")
	fs.StringVar(&cmd.zmq, "zmq", "", "endpoint to receive binary frames from")
	fs.StringVar(&cmd.topic, "topic", "", "topic of zmq messages")
	fs.StringVar(&cmd.device, "device", "Dev1", "name of simulated device")
	fs.IntVar(&cmd.ports, "ports", 4, "number of ports of simulated device")
	fs.IntVar(&cmd.frames, "frames", 1000, "number of wav frames per sample")
	fs.BoolVar(&cmd.metrics, "metrics", false, "print write metrics")
	fs.Var(&cmd.dynamic, "channel", "dynamic channel [name=]lines, can be repeated")
}

func (cmd *writeCommand) Validate() error {
	var message string
	if cmd.in == "" && cmd.zmq == "" {
		message = message + "Missing -in or -zmq required flag\n"
	}
	if cmd.in != "" && cmd.zmq != "" {
		message = message + "Only one of -in and -zmq flags is allowed\n"
	}
	if message != "" {
		return fmt.Errorf("%s", message)
	}
	return nil
}

func (cmd *writeCommand) Run(out io.Writer) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	c, err := config.Load(cmd.config)
	if err != nil {
		return err
	}
	l, closer := c.Logger()
	defer closer.Close()

	ctx, cancelFn := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancelFn()

	samples, wait, err := cmd.samples(ctx)
	if err != nil {
		return err
	}
	device := simulated.New(cmd.device, cmd.ports, simulated.WithLogger(l))
	p := c.Pipeline(device, l)
	p.Metrics = cmd.metrics
	s := p.Run(ctx, cmd.dynamic.dynamic(), samples)
	var written int
	for range s.Out() {
		written++
	}
	if err := s.Wait(); err != nil {
		return err
	}
	// stop the source if session is done before it
	cancelFn()
	if err := wait(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Session %s: %d samples written\n", s.ID(), written)
	if cmd.metrics {
		for k, v := range metric.Get(p.Mode) {
			fmt.Fprintf(out, "\t%s: %s\n", k, v)
		}
	}
	return nil
}

// samples returns the stream of samples and the function to wait for
// the source to finish.
func (cmd *writeCommand) samples(ctx context.Context) (<-chan digital.Sample, func() error, error) {
	if cmd.zmq != "" {
		sub, err := zmqsource.Subscribe(ctx, cmd.zmq, cmd.topic)
		if err != nil {
			return nil, nil, err
		}
		wait := func() error {
			for range sub.Samples() {
			}
			return sub.Err()
		}
		return sub.Samples(), wait, nil
	}
	samples, err := readFile(cmd.in, cmd.frames)
	if err != nil {
		return nil, nil, err
	}
	return source.Emit(ctx, samples...), func() error { return nil }, nil
}

func readFile(path string, frames int) ([]digital.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".npy":
		m, err := source.NPY(f)
		if err != nil {
			return nil, err
		}
		return []digital.Sample{m}, nil
	case ".wav":
		r, err := source.NewWAV(f, frames)
		if err != nil {
			return nil, err
		}
		return source.ReadAll(r)
	default:
		return source.ReadAll(source.NewFrames(f))
	}
}
