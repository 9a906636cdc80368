package utils

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#FFFFFF",
	"red":     "#FF0000",
	"green":   "#00FF00",
	"blue":    "#0000FF",
	"yellow":  "#FFFF00",
	"magenta": "#FF00FF",
	"cyan":    "#00FFFF",
}

// GetRGBFromString parses a hex colour or one of a few colour names. Anything else is black.
func GetRGBFromString(s string) colorful.Color {
	s = strings.ToLower(strings.TrimSpace(s))
	if hex, ok := namedColors[s]; ok {
		s = hex
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}
	}
	return c
}

// ChannelPalette returns n evenly spaced hues, one per sequencer channel.
func ChannelPalette(n int) []colorful.Color {
	out := make([]colorful.Color, n)
	for i := range out {
		out[i] = colorful.Hsv(float64(i)*360/float64(n), 0.7, 0.95)
	}
	return out
}
