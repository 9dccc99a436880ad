package digital_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/digital"
)

func TestChannelValidate(t *testing.T) {
	testValidate := func(c digital.Channel, valid bool) func(*testing.T) {
		return func(t *testing.T) {
			err := c.Validate()
			if valid {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, digital.ErrConfiguration), "unexpected error: %v", err)
		}
	}
	t.Run("port", testValidate(digital.Channel{Lines: "Dev1/port0"}, true))
	t.Run("line", testValidate(digital.Channel{Lines: "Dev1/port0/line3"}, true))
	t.Run("line range", testValidate(digital.Channel{Lines: "/Dev1/port0/line0:7"}, true))
	t.Run("port range", testValidate(digital.Channel{Lines: "Dev1/port0:1"}, true))
	t.Run("list", testValidate(digital.Channel{Lines: "Dev1/port0/line0, Dev1/port1/line1"}, true))
	t.Run("empty", testValidate(digital.Channel{Lines: " "}, false))
	t.Run("no device", testValidate(digital.Channel{Lines: "port0"}, false))
	t.Run("no port", testValidate(digital.Channel{Lines: "Dev1/line0"}, false))
	t.Run("trailing comma", testValidate(digital.Channel{Lines: "Dev1/port0,"}, false))
	t.Run("grouping", testValidate(digital.Channel{Lines: "Dev1/port0", Grouping: 5}, false))
}

func TestChannelString(t *testing.T) {
	assert.Equal(t,
		"Channel: (auto), Lines: Dev1/port0, Grouping: OneChannelPerLine",
		digital.Channel{Lines: "Dev1/port0"}.String())
	assert.Equal(t,
		"Channel: clk, Lines: Dev1/port1/line0, Grouping: OneChannelForAllLines",
		digital.Channel{Name: "clk", Lines: "Dev1/port1/line0", Grouping: digital.OneChannelForAllLines}.String())
}

func TestChannelsValidate(t *testing.T) {
	testValidate := func(cs digital.Channels, valid bool) func(*testing.T) {
		return func(t *testing.T) {
			err := cs.Validate()
			if valid {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, digital.ErrConfiguration), "unexpected error: %v", err)
		}
	}
	t.Run("single", testValidate(digital.ChannelSet(digital.Channel{Lines: "Dev1/port0"}), true))
	t.Run("unnamed", testValidate(digital.Channels{
		{Lines: "Dev1/port0"},
		{Lines: "Dev1/port1"},
	}, true))
	t.Run("empty", testValidate(digital.Channels{}, false))
	t.Run("nil", testValidate(nil, false))
	t.Run("malformed", testValidate(digital.Channels{
		{Lines: "Dev1/port0"},
		{Lines: "port1"},
	}, false))
	t.Run("name collision", testValidate(digital.Channels{
		{Name: "clk", Lines: "Dev1/port0/line0"},
		{Name: "CLK", Lines: "Dev1/port0/line1"},
	}, false))
}

func TestConcat(t *testing.T) {
	static := digital.Channels{
		{Name: "a", Lines: "Dev1/port0/line0"},
		{Name: "b", Lines: "Dev1/port0/line1"},
	}
	c := digital.Channel{Name: "c", Lines: "Dev1/port1"}
	d := digital.Channel{Name: "d", Lines: "Dev1/port2", Grouping: digital.OneChannelForAllLines}

	all := digital.Concat(static, c)
	assert.Equal(t, digital.Channels{static[0], static[1], c}, all)

	all = static.Append(c, d)
	assert.Equal(t, digital.Channels{static[0], static[1], c, d}, all)

	all[0].Name = "modified"
	assert.Equal(t, "a", static[0].Name, "static channels must not be modified")
	assert.Len(t, static, 2)

	assert.Equal(t, digital.ChannelSet(c), digital.Concat(nil, c))
	assert.Equal(t, static, digital.Concat(static))
}

func TestParseGrouping(t *testing.T) {
	for s, expected := range map[string]digital.Grouping{
		"":                      digital.OneChannelPerLine,
		"perline":               digital.OneChannelPerLine,
		"OneChannelForEachLine": digital.OneChannelPerLine,
		"alllines":              digital.OneChannelForAllLines,
		"OneChannelForAllLines": digital.OneChannelForAllLines,
	} {
		g, err := digital.ParseGrouping(s)
		assert.NoError(t, err, s)
		assert.Equal(t, expected, g, s)
	}
	_, err := digital.ParseGrouping("diagonal")
	assert.True(t, errors.Is(err, digital.ErrConfiguration))
}
