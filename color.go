package jxf

import (
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"golang.org/x/text/cases"
)

// foldColorName folds named colors before lookup so "SteelBlue" and
// "steelblue" resolve alike. cases.Caser is not safe for concurrent use, so
// each call makes its own.
func foldColorName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// RGBA resolves the layer color. It accepts "#RRGGBB", the short form
// "#RGB" and the SVG 1.1 color keywords. The color is free-form in the
// document and never validated; ok is false when it is empty or not
// recognized, and callers fall back to their own default.
func (l Layer) RGBA() (c color.RGBA, ok bool) {
	return ParseColor(l.Color)
}

// ParseColor resolves a hex or named color string.
func ParseColor(s string) (color.RGBA, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.RGBA{}, false
	}
	if hex, found := strings.CutPrefix(s, "#"); found {
		return parseHex(hex)
	}
	c, ok := colornames.Map[foldColorName(s)]
	return c, ok
}

func parseHex(hex string) (color.RGBA, bool) {
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}
