package config

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultResolutions is the capture resolution cycle used when none is configured.
var DefaultResolutions = []string{"896x504", "960x544", "480x272"}

// Resolution is a requested capture size.
type Resolution struct {
	Width  int
	Height int
}

func (r Resolution) String() string {
	return strconv.Itoa(r.Width) + "x" + strconv.Itoa(r.Height)
}

// ParseResolution parses "WxH".
func ParseResolution(s string) (Resolution, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Resolution{}, fmt.Errorf("resolution %q: want WIDTHxHEIGHT", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolution %q: %w", s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolution %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return Resolution{}, fmt.Errorf("resolution %q: dimensions must be positive", s)
	}
	return Resolution{Width: w, Height: h}, nil
}

// ParseResolutions parses an ordered resolution list. An empty list yields
// DefaultResolutions.
func ParseResolutions(list []string) ([]Resolution, error) {
	if len(list) == 0 {
		list = DefaultResolutions
	}
	out := make([]Resolution, 0, len(list))
	for _, s := range list {
		r, err := ParseResolution(s)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// SplitList splits a comma separated option, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
