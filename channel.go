package digital

import (
	"fmt"
	"regexp"
	"strings"
)

// Grouping defines how digital lines are exposed as virtual channels.
type Grouping int

const (
	// OneChannelPerLine creates one virtual channel for each line.
	OneChannelPerLine Grouping = iota
	// OneChannelForAllLines creates one virtual channel for all lines.
	OneChannelForAllLines
)

// physical line specifier: device/portN[:M][/lineK[:L]]
var lineSpec = regexp.MustCompile(`(?i)^/?[a-z][a-z0-9_-]*/port\d+(:\d+)?(/line\d+(:\d+)?)?$`)

type (
	// Channel describes a single virtual channel. Empty name means that
	// the driver assigns the physical channel name.
	Channel struct {
		Name     string
		Lines    string
		Grouping Grouping
	}

	// Channels is an ordered set of virtual channels. Order defines
	// channel indices in the task. Channels must not be modified after
	// they were passed to a session.
	Channels []Channel
)

// ParseGrouping returns grouping for its textual representation.
func ParseGrouping(s string) (Grouping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "perline", "per-line", "onechannelperline", "onechannelforeachline":
		return OneChannelPerLine, nil
	case "alllines", "all-lines", "onechannelforalllines":
		return OneChannelForAllLines, nil
	}
	return 0, fmt.Errorf("%w: unknown grouping %q", ErrConfiguration, s)
}

func (g Grouping) String() string {
	switch g {
	case OneChannelPerLine:
		return "OneChannelPerLine"
	case OneChannelForAllLines:
		return "OneChannelForAllLines"
	}
	return fmt.Sprintf("Grouping(%d)", int(g))
}

// Validate checks that line specifier is well-formed.
func (c Channel) Validate() error {
	if c.Grouping != OneChannelPerLine && c.Grouping != OneChannelForAllLines {
		return fmt.Errorf("%w: %v: invalid grouping", ErrConfiguration, c)
	}
	if strings.TrimSpace(c.Lines) == "" {
		return fmt.Errorf("%w: %v: empty lines", ErrConfiguration, c)
	}
	for _, l := range strings.Split(c.Lines, ",") {
		if !lineSpec.MatchString(strings.TrimSpace(l)) {
			return fmt.Errorf("%w: %v: malformed line specifier %q", ErrConfiguration, c, l)
		}
	}
	return nil
}

func (c Channel) String() string {
	name := c.Name
	if name == "" {
		name = "(auto)"
	}
	return fmt.Sprintf("Channel: %s, Lines: %s, Grouping: %v", name, c.Lines, c.Grouping)
}

// ChannelSet wraps a single channel into a set.
func ChannelSet(c Channel) Channels {
	return Channels{c}
}

// Concat combines static and dynamic channels into a new set. Static
// channels come first, dynamic are appended in provided order. Neither
// of arguments is modified.
func Concat(static Channels, dynamic ...Channel) Channels {
	cs := make(Channels, 0, len(static)+len(dynamic))
	cs = append(cs, static...)
	return append(cs, dynamic...)
}

// Append returns a new set with dynamic channels appended.
func (cs Channels) Append(dynamic ...Channel) Channels {
	return Concat(cs, dynamic...)
}

// Validate checks that the set can be used to build a task: it must be
// non-empty, every channel must be valid and explicit names must be
// unique.
func (cs Channels) Validate() error {
	if len(cs) == 0 {
		return fmt.Errorf("%w: no channels", ErrConfiguration)
	}
	names := make(map[string]int, len(cs))
	for i, c := range cs {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("channel %d: %w", i, err)
		}
		if c.Name == "" {
			continue
		}
		key := strings.ToLower(c.Name)
		if j, ok := names[key]; ok {
			return fmt.Errorf("%w: channel %d: name %q is already used by channel %d", ErrConfiguration, i, c.Name, j)
		}
		names[key] = i
	}
	return nil
}
