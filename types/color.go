package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a 24-bit RGB color, 0xRRGGBB
type Color uint32

// String returns the color as #rrggbb
func (c Color) String() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

// ParseColor accepts "#rrggbb", "0xrrggbb" or a decimal value
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	base := 10
	switch {
	case strings.HasPrefix(s, "#"):
		s, base = s[1:], 16
	case strings.HasPrefix(strings.ToLower(s), "0x"):
		s, base = s[2:], 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, fmt.Errorf("parse color %q: %w", s, err)
	}
	if v > 0xffffff {
		return 0, fmt.Errorf("color %q out of range", s)
	}
	return Color(v), nil
}
