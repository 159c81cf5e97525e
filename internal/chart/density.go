package chart

import (
	"strconv"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/paveg/coffeetrends/internal/dataframe"
	"github.com/paveg/coffeetrends/internal/schema"
)

// colorbarSteps is the number of bands the colour bar is drawn with.
const colorbarSteps = 24

// PriceDemandChart draws the hexbin density of average consumption against price.
func PriceDemandChart(df *dataframe.DataFrame, opts Options) (gochart.Chart, error) {
	return densityChart(df, opts, densitySpec{
		title:  "Price Elasticity of Coffee Demand",
		xCol:   schema.Price,
		xLabel: "Average Coffee Price (USD/kg)",
		ramp:   Blues,
	})
}

// PopulationChart draws the hexbin density of average consumption against population.
func PopulationChart(df *dataframe.DataFrame, opts Options) (gochart.Chart, error) {
	return densityChart(df, opts, densitySpec{
		title:  "Population vs. Coffee Consumption",
		xCol:   schema.Population,
		xLabel: "Population (millions)",
		ramp:   Greens,
	})
}

type densitySpec struct {
	title  string
	xCol   string
	xLabel string
	ramp   Ramp
}

func densityChart(df *dataframe.DataFrame, opts Options, spec densitySpec) (gochart.Chart, error) {
	x, err := df.Float64Values(spec.xCol)
	if err != nil {
		return gochart.Chart{}, err
	}
	y, err := df.Float64Values(schema.AliasAvgConsumption)
	if err != nil {
		return gochart.Chart{}, err
	}

	grid, err := Hexbin(x, y, opts.GridSize, opts.MinCount)
	if err != nil {
		return gochart.Chart{}, err
	}

	return gochart.Chart{
		Title:  spec.title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 110, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Name: spec.xLabel,
			Range: &gochart.ContinuousRange{
				Min: grid.XMin - grid.SX/2,
				Max: grid.XMax + grid.SX/2,
			},
			GridMajorStyle: noGrid,
			GridMinorStyle: noGrid,
		},
		YAxis: gochart.YAxis{
			Name: "Avg Consumption (kg per capita)",
			Range: &gochart.ContinuousRange{
				Min: grid.YMin - grid.SY/3,
				Max: grid.YMax + grid.SY/3,
			},
			GridMajorStyle: noGrid,
			GridMinorStyle: noGrid,
		},
		Series: []gochart.Series{
			hexSeries{name: spec.title, grid: grid, ramp: spec.ramp},
		},
		Elements: []gochart.Renderable{
			colorbar(spec.ramp, grid.MinCount(), grid.MaxCount()),
		},
	}, nil
}

// colorbar draws a vertical count scale to the right of the plot area.
func colorbar(ramp Ramp, lo, hi int) gochart.Renderable {
	return func(r gochart.Renderer, canvasBox gochart.Box, defaults gochart.Style) {
		left := canvasBox.Right + 30
		right := left + 16
		top := canvasBox.Top
		height := canvasBox.Height()

		for i := 0; i < colorbarSteps; i++ {
			t := 1 - (float64(i)+0.5)/colorbarSteps
			c := ramp.At(t)
			gochart.Draw.Box(r, gochart.Box{
				Top:    top + i*height/colorbarSteps,
				Bottom: top + (i+1)*height/colorbarSteps,
				Left:   left,
				Right:  right,
			}, gochart.Style{FillColor: c, StrokeColor: c, StrokeWidth: 1})
		}
		gochart.Draw.Box(r, gochart.Box{Top: top, Bottom: top + height, Left: left, Right: right},
			gochart.Style{FillColor: drawing.ColorTransparent, StrokeColor: gochart.DefaultAxisColor, StrokeWidth: 1})

		text := gochart.Style{FontSize: 9, FontColor: gochart.DefaultTextColor}.InheritFrom(defaults)
		gochart.Draw.Text(r, strconv.Itoa(hi), right+6, top+8, text)
		gochart.Draw.Text(r, strconv.Itoa(lo), right+6, top+height, text)
		gochart.Draw.Text(r, "Count", left-4, top-8, text)
	}
}
