package simulated

import (
	"fmt"
	"strconv"
	"strings"
)

// LinesPerPort is the number of lines of every port.
const LinesPerPort = 8

// line is a physical line address.
type line struct {
	port int
	line int
}

func (l line) String() string {
	return fmt.Sprintf("port%d/line%d", l.port, l.line)
}

// parseLines resolves comma-separated physical specifiers of the device
// into lines. Ranges are inclusive and can be descending.
func parseLines(device string, ports int, spec string) ([][]line, error) {
	var groups [][]line
	for _, s := range strings.Split(spec, ",") {
		ls, err := parseSpec(device, ports, strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		groups = append(groups, ls)
	}
	return groups, nil
}

func parseSpec(device string, ports int, spec string) ([]line, error) {
	parts := strings.Split(strings.TrimPrefix(spec, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLines, spec)
	}
	if !strings.EqualFold(parts[0], device) {
		return nil, fmt.Errorf("%w: %q: unknown device %q", ErrInvalidLines, spec, parts[0])
	}
	pFrom, pTo, err := parseRange(parts[1], "port", ports)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidLines, spec, err)
	}
	lFrom, lTo := 0, LinesPerPort-1
	if len(parts) == 3 {
		if pFrom != pTo {
			return nil, fmt.Errorf("%w: %q: lines of port range", ErrInvalidLines, spec)
		}
		if lFrom, lTo, err = parseRange(parts[2], "line", LinesPerPort); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidLines, spec, err)
		}
	}

	var ls []line
	for _, p := range span(pFrom, pTo) {
		for _, l := range span(lFrom, lTo) {
			ls = append(ls, line{port: p, line: l})
		}
	}
	return ls, nil
}

// parseRange parses "prefixN" or "prefixN:M".
func parseRange(s, prefix string, limit int) (int, int, error) {
	if !strings.HasPrefix(strings.ToLower(s), prefix) {
		return 0, 0, fmt.Errorf("expected %s: %q", prefix, s)
	}
	bounds := strings.SplitN(s[len(prefix):], ":", 2)
	from, err := strconv.Atoi(bounds[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid %s: %q", prefix, s)
	}
	to := from
	if len(bounds) == 2 {
		if to, err = strconv.Atoi(bounds[1]); err != nil {
			return 0, 0, fmt.Errorf("invalid %s: %q", prefix, s)
		}
	}
	if from < 0 || to < 0 || from >= limit || to >= limit {
		return 0, 0, fmt.Errorf("%s out of range: %q", prefix, s)
	}
	return from, to, nil
}

func span(from, to int) []int {
	step := 1
	if to < from {
		step = -1
	}
	s := make([]int, 0, (to-from)*step+1)
	for i := from; ; i += step {
		s = append(s, i)
		if i == to {
			return s
		}
	}
}
