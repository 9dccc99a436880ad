package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/digital"
	"pipelined.dev/digital/config"
	"pipelined.dev/digital/mock"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "digital.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	c := config.Default()
	assert.Equal(t, digital.Channels{{Lines: "Dev1/port0", Grouping: digital.OneChannelPerLine}}, c.Channels)
	assert.Equal(t, digital.OnDemand{}, c.Mode)
	assert.Empty(t, c.TaskName)
	assert.False(t, c.Debug)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
task: pattern
channels:
  - name: clk
    lines: Dev1/port0/line0
  - lines: Dev1/port1
    grouping: alllines
mode: clocked
clock:
  source: /Dev1/PFI0
  rate: 2000
  edge: falling
  quantity: finite
  buffer: 64
log:
  debug: true
`)
	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pattern", c.TaskName)
	assert.Equal(t, digital.Channels{
		{Name: "clk", Lines: "Dev1/port0/line0"},
		{Lines: "Dev1/port1", Grouping: digital.OneChannelForAllLines},
	}, c.Channels)
	assert.Equal(t, digital.Clocked{
		SignalSource: "/Dev1/PFI0",
		SampleRate:   2000,
		ActiveEdge:   digital.Falling,
		QuantityMode: digital.Finite,
		BufferSize:   64,
	}, c.Mode)
	assert.True(t, c.Debug)
}

func TestClockDefaults(t *testing.T) {
	path := writeConfig(t, `
channels:
  - lines: Dev1/port0
mode: clocked
`)
	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, digital.DefaultClocked(), c.Mode)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("DIGITAL_MODE", "clocked")
	t.Setenv("DIGITAL_CLOCK_RATE", "500")
	c, err := config.Load("")
	require.NoError(t, err)
	clock, ok := c.Mode.(digital.Clocked)
	require.True(t, ok)
	assert.Equal(t, 500.0, clock.SampleRate)
}

func TestLoadErrors(t *testing.T) {
	testError := func(content string) func(*testing.T) {
		return func(t *testing.T) {
			_, err := config.Load(writeConfig(t, content))
			assert.True(t, errors.Is(err, digital.ErrConfiguration), "unexpected error: %v", err)
		}
	}
	t.Run("unknown mode", testError("mode: sometimes\n"))
	t.Run("unknown grouping", testError("channels:\n  - lines: Dev1/port0\n    grouping: diagonal\n"))
	t.Run("malformed lines", testError("channels:\n  - lines: port0\n"))
	t.Run("duplicate names", testError("channels:\n  - name: a\n    lines: Dev1/port0\n  - name: A\n    lines: Dev1/port1\n"))
	t.Run("zero rate", testError("mode: clocked\nclock:\n  rate: 0\n"))
	t.Run("unknown edge", testError("mode: clocked\nclock:\n  edge: middle\n"))
	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.True(t, errors.Is(err, digital.ErrConfiguration))
	})
}

func TestPipeline(t *testing.T) {
	d := &mock.Driver{}
	c := config.Default()
	l, closer := c.Logger()
	defer closer.Close()
	p := c.Pipeline(d, l)
	assert.Equal(t, d, p.Driver)
	assert.Equal(t, c.Channels, p.Channels)
	assert.Equal(t, c.Mode, p.Mode)
	assert.Equal(t, l, p.Logger)
}

func TestLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digital.log")
	c := config.Default()
	c.LogFile.Path = path
	l, closer := c.Logger()
	l.Info("hello")
	require.NoError(t, closer.Close())
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "hello")
}
