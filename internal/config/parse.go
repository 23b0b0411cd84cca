package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ayusman/peekaboo/internal/overlay"
)

// Named key codes as reported by the highgui WaitKey call.
var namedKeys = map[string]int{
	"esc":    27,
	"escape": 27,
	"space":  32,
	"enter":  13,
	"tab":    9,
}

// ParseKey converts a key name into a key code. Accepted forms are a single
// character ("1", "q"), a named key ("esc", "space") or a decimal code
// prefixed with '#' ("#27").
func ParseKey(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty key")
	}

	if code, ok := namedKeys[strings.ToLower(s)]; ok {
		return code, nil
	}

	if strings.HasPrefix(s, "#") && len(s) > 1 {
		code, err := strconv.Atoi(s[1:])
		if err != nil || code < 0 {
			return 0, fmt.Errorf("invalid key code %q", s)
		}
		return code, nil
	}

	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("unknown key %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return int(r), nil
}

// ParseColor parses "#rrggbb" into an opaque colour.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}

	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 255,
	}, nil
}

// SentinelColor returns the transparency colour for an overlay feature.
// An empty value selects white; SentinelNone disables transparency.
func (f Feature) SentinelColor() (*color.RGBA, error) {
	switch strings.ToLower(f.Sentinel) {
	case "":
		c := overlay.White
		return &c, nil
	case SentinelNone:
		return nil, nil
	}

	c, err := ParseColor(f.Sentinel)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
