package chart

import (
	"fmt"

	gochart "github.com/wcharczuk/go-chart/v2"
)

// hexSeries draws the cells of a HexGrid as filled hexagons coloured by count.
type hexSeries struct {
	name string
	grid HexGrid
	ramp Ramp
}

var (
	_ gochart.Series         = hexSeries{}
	_ gochart.ValuesProvider = hexSeries{}
)

func (s hexSeries) GetName() string {
	return s.name
}

func (s hexSeries) GetYAxis() gochart.YAxisType {
	return gochart.YAxisPrimary
}

func (s hexSeries) GetStyle() gochart.Style {
	return gochart.Style{StrokeColor: s.ramp.At(1)}
}

func (s hexSeries) Len() int {
	return len(s.grid.Cells)
}

func (s hexSeries) GetValues(i int) (x, y float64) {
	return s.grid.Cells[i].X, s.grid.Cells[i].Y
}

func (s hexSeries) Validate() error {
	if s.grid.SX <= 0 || s.grid.SY <= 0 {
		return fmt.Errorf("%s: hexbin grid has no extent", s.name)
	}
	return nil
}

func (s hexSeries) Render(r gochart.Renderer, canvasBox gochart.Box, xrange, yrange gochart.Range, _ gochart.Style) {
	lo, hi := s.grid.MinCount(), s.grid.MaxCount()
	vertices := hexVertices(s.grid.SX, s.grid.SY)

	for _, cell := range s.grid.Cells {
		color := s.ramp.ForCount(cell.Count, lo, hi)
		r.SetFillColor(color)
		r.SetStrokeColor(color)
		r.SetStrokeWidth(0.5)

		for i, v := range vertices {
			px := canvasBox.Left + xrange.Translate(cell.X+v[0])
			py := canvasBox.Bottom - yrange.Translate(cell.Y+v[1])
			if i == 0 {
				r.MoveTo(px, py)
			} else {
				r.LineTo(px, py)
			}
		}
		r.Close()
		r.FillStroke()
	}
	r.ResetStyle()
}

// barSeries draws one group member of a grouped bar chart: a bar of width
// Width centred on each x value, rising from zero.
type barSeries struct {
	name    string
	style   gochart.Style
	xValues []float64
	yValues []float64
	width   float64
}

var (
	_ gochart.Series         = barSeries{}
	_ gochart.ValuesProvider = barSeries{}
)

func (s barSeries) GetName() string {
	return s.name
}

func (s barSeries) GetYAxis() gochart.YAxisType {
	return gochart.YAxisPrimary
}

func (s barSeries) GetStyle() gochart.Style {
	return s.style
}

func (s barSeries) Len() int {
	return len(s.xValues)
}

func (s barSeries) GetValues(i int) (x, y float64) {
	return s.xValues[i], s.yValues[i]
}

func (s barSeries) Validate() error {
	if len(s.xValues) != len(s.yValues) {
		return fmt.Errorf("%s: x and y values differ in length", s.name)
	}
	return nil
}

func (s barSeries) Render(r gochart.Renderer, canvasBox gochart.Box, xrange, yrange gochart.Range, _ gochart.Style) {
	base := canvasBox.Bottom - yrange.Translate(0)
	for i, x := range s.xValues {
		top := canvasBox.Bottom - yrange.Translate(s.yValues[i])
		box := gochart.Box{
			Left:   canvasBox.Left + xrange.Translate(x-s.width/2),
			Right:  canvasBox.Left + xrange.Translate(x+s.width/2),
			Top:    min(top, base),
			Bottom: max(top, base),
		}
		gochart.Draw.Box(r, box, s.style)
	}
}
