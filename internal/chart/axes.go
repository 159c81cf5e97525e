package chart

import (
	"math"
	"slices"
	"strconv"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var gridStyle = gochart.Style{
	StrokeColor: drawing.Color{R: 220, G: 220, B: 220, A: 255},
	StrokeWidth: 1,
}

var noGrid = gochart.Style{Hidden: true}

// valueRange spans every value with a 5% margin, optionally including zero.
// A single distinct value is widened so the axis never has zero length.
func valueRange(includeZero bool, values ...[]float64) *gochart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, vs := range values {
		for _, v := range vs {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		lo, hi = 0, 1
	}
	if includeZero {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}

	span := hi - lo
	if span == 0 {
		pad := math.Max(math.Abs(hi)*0.1, 1)
		return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	}

	margin := span * 0.05
	r := &gochart.ContinuousRange{Min: lo - margin, Max: hi + margin}
	if includeZero && lo >= 0 {
		r.Min = 0
	}
	return r
}

// distinctSorted returns the distinct values in ascending order.
func distinctSorted(values []float64) []float64 {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}

// yearTicks labels every distinct year and adds unlabelled ticks half a year
// beyond each end; go-chart derives the x range from the ticks.
func yearTicks(years []float64) []gochart.Tick {
	distinct := distinctSorted(years)
	if len(distinct) == 0 {
		return nil
	}

	ticks := make([]gochart.Tick, 0, len(distinct)+2)
	ticks = append(ticks, gochart.Tick{Value: distinct[0] - 0.5})
	for _, y := range distinct {
		ticks = append(ticks, gochart.Tick{Value: y, Label: formatYear(y)})
	}
	return append(ticks, gochart.Tick{Value: distinct[len(distinct)-1] + 0.5})
}

func formatYear(y float64) string {
	return strconv.FormatFloat(y, 'f', -1, 64)
}

// lineStyle draws a line with dot markers.
func lineStyle(i int) gochart.Style {
	c := seriesColor(i)
	return gochart.Style{
		StrokeColor: c,
		StrokeWidth: 2,
		DotColor:    c,
		DotWidth:    4,
	}
}

// groups splits parallel x/y columns by a category column, keeping categories
// in order of first appearance.
func groups(categories []string, x, y []float64) (names []string, xs, ys map[string][]float64) {
	xs = make(map[string][]float64)
	ys = make(map[string][]float64)
	for i, c := range categories {
		if _, seen := xs[c]; !seen {
			names = append(names, c)
		}
		xs[c] = append(xs[c], x[i])
		ys[c] = append(ys[c], y[i])
	}
	return names, xs, ys
}
