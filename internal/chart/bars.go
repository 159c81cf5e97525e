package chart

import (
	"fmt"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/paveg/coffeetrends/internal/dataframe"
	"github.com/paveg/coffeetrends/internal/schema"
)

// groupWidth is the share of one category slot covered by its bar group.
const groupWidth = 0.8

// TopCountriesChart draws one bar per country of per-capita consumption.
func TopCountriesChart(df *dataframe.DataFrame, opts Options) (gochart.BarChart, error) {
	countries, err := df.StringValues(schema.AliasCountry)
	if err != nil {
		return gochart.BarChart{}, err
	}
	consumption, err := df.Float64Values(schema.AliasConsumption)
	if err != nil {
		return gochart.BarChart{}, err
	}

	color := seriesColor(0)
	bars := make([]gochart.Value, len(countries))
	for i, country := range countries {
		bars[i] = gochart.Value{
			Label: country,
			Value: consumption[i],
			Style: gochart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 1},
		}
	}

	bw, spacing := barLayout(opts.Width, len(bars))
	return gochart.BarChart{
		Title:  fmt.Sprintf("Top %d Countries by Coffee Consumption Per Capita (%d)", opts.TopN, opts.SnapshotYear),
		Width:  opts.Width,
		Height: opts.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 60},
		},
		BarWidth:   bw,
		BarSpacing: spacing,
		XAxis:      gochart.Style{TextRotationDegrees: 45},
		YAxis: gochart.YAxis{
			Name:  "Consumption (kg per capita)",
			Range: valueRange(true, consumption),
		},
		Bars: bars,
	}, nil
}

// barLayout splits the plot width into n slots, two thirds bar and one third gap.
func barLayout(width, n int) (bar, spacing int) {
	slot := (width - 160) / max(n, 1)
	bar = min(max(slot*2/3, 4), 120)
	spacing = max(slot-bar, 2)
	return bar, spacing
}

// TypePreferencesChart draws average consumption per year, with one bar per
// coffee type in each year's group.
func TypePreferencesChart(df *dataframe.DataFrame, opts Options) (gochart.Chart, error) {
	years, err := df.Float64Values(schema.AliasYear)
	if err != nil {
		return gochart.Chart{}, err
	}
	types, err := df.StringValues(schema.AliasCoffeeType)
	if err != nil {
		return gochart.Chart{}, err
	}
	consumption, err := df.Float64Values(schema.AliasAvgConsumption)
	if err != nil {
		return gochart.Chart{}, err
	}

	distinct := distinctSorted(years)
	slot := make(map[float64]float64, len(distinct))
	ticks := make([]gochart.Tick, 0, len(distinct)+2)
	ticks = append(ticks, gochart.Tick{Value: -0.5})
	for i, y := range distinct {
		slot[y] = float64(i)
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: formatYear(y)})
	}
	ticks = append(ticks, gochart.Tick{Value: float64(len(distinct)) - 0.5})

	names, xs, ys := groups(types, years, consumption)
	width := groupWidth / float64(len(names))
	series := make([]gochart.Series, 0, len(names))
	for j, name := range names {
		offset := -groupWidth/2 + width*(float64(j)+0.5)
		positions := make([]float64, len(xs[name]))
		for i, y := range xs[name] {
			positions[i] = slot[y] + offset
		}
		color := seriesColor(j)
		series = append(series, barSeries{
			name:    name,
			style:   gochart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 1},
			xValues: positions,
			yValues: ys[name],
			width:   width,
		})
	}

	c := gochart.Chart{
		Title:  fmt.Sprintf("Coffee Type Preferences by Year (%s)", yearSpan(years)),
		Width:  opts.Width,
		Height: opts.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Name:           "Year",
			Ticks:          ticks,
			GridMajorStyle: noGrid,
			GridMinorStyle: noGrid,
		},
		YAxis: gochart.YAxis{
			Name:           "Average Consumption (kg per capita)",
			Range:          valueRange(true, consumption),
			GridMajorStyle: gridStyle,
		},
		Series: series,
	}
	c.Elements = []gochart.Renderable{gochart.Legend(&c)}
	return c, nil
}
