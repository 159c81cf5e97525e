package chart

import (
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Ramp is a sequential colour map from light to dark.
type Ramp struct {
	Name        string
	Light, Dark drawing.Color
}

// Sequential ramps used for density plots.
var (
	Blues  = Ramp{Name: "Blues", Light: drawing.Color{R: 222, G: 235, B: 247, A: 255}, Dark: drawing.Color{R: 8, G: 48, B: 107, A: 255}}
	Greens = Ramp{Name: "Greens", Light: drawing.Color{R: 229, G: 245, B: 224, A: 255}, Dark: drawing.Color{R: 0, G: 68, B: 27, A: 255}}
)

// At returns the colour at position t in [0, 1]; values outside are clamped.
func (r Ramp) At(t float64) drawing.Color {
	t = min(max(t, 0), 1)
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + t*(float64(b)-float64(a)) + 0.5)
	}
	return drawing.Color{
		R: lerp(r.Light.R, r.Dark.R),
		G: lerp(r.Light.G, r.Dark.G),
		B: lerp(r.Light.B, r.Dark.B),
		A: 255,
	}
}

// ForCount maps a count within [lo, hi] onto the ramp. A single-valued
// range maps to the middle of the ramp.
func (r Ramp) ForCount(count, lo, hi int) drawing.Color {
	if hi <= lo {
		return r.At(0.5)
	}
	return r.At(float64(count-lo) / float64(hi-lo))
}

// palette is the categorical colour cycle for series and bar groups.
var palette = []drawing.Color{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
	{R: 227, G: 119, B: 194, A: 255},
	{R: 127, G: 127, B: 127, A: 255},
	{R: 188, G: 189, B: 34, A: 255},
	{R: 23, G: 190, B: 207, A: 255},
}

// seriesColor returns the i-th colour of the categorical cycle.
func seriesColor(i int) drawing.Color {
	return palette[i%len(palette)]
}
