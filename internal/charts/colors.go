package charts

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// parseColor reads the CSS color forms the palettes emit: #hex, rgb[a](...) and hsl(...).
// Anything else falls back to opaque black.
func parseColor(s string) drawing.Color {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "#"):
		return drawing.ColorFromHex(strings.TrimPrefix(s, "#"))
	case strings.HasPrefix(s, "rgb"):
		args := cssArgs(s)
		if len(args) < 3 {
			break
		}
		c := drawing.Color{
			R: clampByte(parseNumber(args[0])),
			G: clampByte(parseNumber(args[1])),
			B: clampByte(parseNumber(args[2])),
			A: 255,
		}
		if len(args) > 3 {
			c.A = clampByte(parseNumber(args[3]) * 255)
		}
		return c
	case strings.HasPrefix(s, "hsl"):
		args := cssArgs(s)
		if len(args) < 3 {
			break
		}
		r, g, b := hslToRGB(parseNumber(args[0]), parseNumber(args[1])/100, parseNumber(args[2])/100)
		c := drawing.Color{R: r, G: g, B: b, A: 255}
		if len(args) > 3 {
			c.A = clampByte(parseNumber(args[3]) * 255)
		}
		return c
	}
	return drawing.ColorBlack
}

// nrgba converts for image/draw based renderers
func nrgba(c drawing.Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func cssArgs(s string) []string {
	open := strings.IndexByte(s, '(')
	end := strings.LastIndexByte(s, ')')
	if open < 0 || end <= open {
		return nil
	}
	parts := strings.Split(s[open+1:end], ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0
	}
	return v
}

func clampByte(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	h = math.Mod(h, 360) / 360
	if s == 0 {
		v := clampByte(l * 255)
		return v, v, v
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return clampByte(hueToRGB(p, q, h+1.0/3) * 255),
		clampByte(hueToRGB(p, q, h) * 255),
		clampByte(hueToRGB(p, q, h-1.0/3) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}
