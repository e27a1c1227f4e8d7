package panel

import (
	"image/color"
	"math"
)

// Cycle is the number of escape ages one sweep of the hue wheel spans.
const Cycle = 64

// FormulaColor marks points settled by a region predicate rather than by
// iteration, which makes precision artifacts on set boundaries visible.
var FormulaColor = color.RGBA{R: 0x10, G: 0x10, B: 0x30, A: 0xff}

var wheel [Cycle]color.RGBA

func init() {
	for i := range wheel {
		wheel[i] = hsv(float64(i)/Cycle, 0.85, 1)
	}
}

func pointColor(formula, escaped bool, escapeAge int) color.RGBA {
	switch {
	case formula:
		return FormulaColor
	case escaped:
		return wheel[escapeAge%Cycle]
	}
	return color.RGBA{A: 0xff}
}

// EscapeColor is the color of a point escaping at age.
func EscapeColor(age int) color.RGBA {
	return wheel[age%Cycle]
}

// Simple HSV → RGB
func hsv(h, s, v float64) color.RGBA {
	h = math.Mod(h, 1)
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	case 5:
		r, g, b = v, p, q
	}
	return color.RGBA{uint8(r * 255), uint8(g * 255), uint8(b * 255), 255}
}
