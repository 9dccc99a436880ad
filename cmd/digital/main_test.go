package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/digital"
	"pipelined.dev/digital/source"
)

const clockedConfig = `
task: cli
channels:
  - name: port
    lines: Dev1/port0
    grouping: alllines
mode: clocked
clock:
  rate: 1000000
  quantity: finite
`

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func run(args ...string) (int, string) {
	var out bytes.Buffer
	c := cli{
		args: append([]string{"digital"}, args...),
		out:  &out,
	}
	code := c.run()
	return code, out.String()
}

func TestInit(t *testing.T) {
	// check if commands are registered
	assert.Equal(t, 2, len(commands()))
}

func TestUsage(t *testing.T) {
	code, out := run()
	assert.Equal(t, errorExitCode, code)
	assert.Contains(t, out, "write")
	assert.Contains(t, out, "channels")

	code, _ = run("unknown")
	assert.Equal(t, errorExitCode, code)
}

func TestChannels(t *testing.T) {
	path := writeFile(t, "digital.yaml", []byte(clockedConfig))
	code, out := run("channels", "-config", path, "-channel", "x=Dev1/port1@alllines", "-channel", "Dev1/port2/line0")
	assert.Equal(t, successExitCode, code, out)
	assert.Contains(t, out, "0\tChannel: port, Lines: Dev1/port0, Grouping: OneChannelForAllLines")
	assert.Contains(t, out, "1\tChannel: x, Lines: Dev1/port1, Grouping: OneChannelForAllLines")
	assert.Contains(t, out, "2\tChannel: (auto), Lines: Dev1/port2/line0, Grouping: OneChannelPerLine")

	code, _ = run("channels", "-config", path, "-channel", "port=Dev1/port1")
	assert.Equal(t, errorExitCode, code, "duplicate name must fail")

	code, _ = run("channels", "-channel", "Dev1/port0@diagonal")
	assert.Equal(t, errorExitCode, code, "unknown grouping must fail")
}

func TestWrite(t *testing.T) {
	config := writeFile(t, "digital.yaml", []byte(clockedConfig))
	m, err := digital.NewMatrix(1, 4, []uint8{1, 2, 4, 8})
	require.NoError(t, err)

	t.Run("frames", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, source.Encode(&buf, m))
		require.NoError(t, source.Encode(&buf, m))
		in := writeFile(t, "samples.bin", buf.Bytes())
		code, out := run("write", "-config", config, "-in", in, "-metrics")
		assert.Equal(t, successExitCode, code, out)
		assert.Contains(t, out, "2 samples written")
		assert.Contains(t, out, "Writes")
	})
	t.Run("npy", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, npyio.Write(&buf, []uint8{1, 2, 4, 8}))
		in := writeFile(t, "samples.npy", buf.Bytes())
		code, out := run("write", "-config", config, "-in", in)
		assert.Equal(t, successExitCode, code, out)
		assert.Contains(t, out, "1 samples written")
	})
	t.Run("unsupported", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, npyio.Write(&buf, []float64{1, 2}))
		in := writeFile(t, "samples.npy", buf.Bytes())
		code, out := run("write", "-config", config, "-in", in)
		assert.Equal(t, errorExitCode, code)
		assert.Contains(t, out, digital.ErrUnsupportedFormat.Error())
	})
	t.Run("missing input", func(t *testing.T) {
		code, out := run("write", "-config", config)
		assert.Equal(t, errorExitCode, code)
		assert.Contains(t, out, "Missing -in or -zmq required flag")
	})
}
