package chart

import (
	"fmt"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/paveg/coffeetrends/internal/dataframe"
	"github.com/paveg/coffeetrends/internal/schema"
)

// TrendsChart plots average consumption and average price against year.
func TrendsChart(df *dataframe.DataFrame, opts Options) (gochart.Chart, error) {
	years, err := df.Float64Values(schema.AliasYear)
	if err != nil {
		return gochart.Chart{}, err
	}
	consumption, err := df.Float64Values(schema.AliasAvgConsumption)
	if err != nil {
		return gochart.Chart{}, err
	}
	price, err := df.Float64Values(schema.AliasAvgPrice)
	if err != nil {
		return gochart.Chart{}, err
	}

	c := gochart.Chart{
		Title:  fmt.Sprintf("Global Coffee Consumption and Price Trends (%s)", yearSpan(years)),
		Width:  opts.Width,
		Height: opts.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Name:           "Year",
			Ticks:          yearTicks(years),
			GridMajorStyle: gridStyle,
		},
		YAxis: gochart.YAxis{
			Name:           "Value",
			Range:          valueRange(false, consumption, price),
			GridMajorStyle: gridStyle,
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    "Avg Consumption (kg/capita)",
				XValues: years,
				YValues: consumption,
				Style:   lineStyle(0),
			},
			gochart.ContinuousSeries{
				Name:    "Avg Price (USD/kg)",
				XValues: years,
				YValues: price,
				Style:   lineStyle(1),
			},
		},
	}
	c.Elements = []gochart.Renderable{gochart.Legend(&c)}
	return c, nil
}

// TypeTrendsChart plots one line per coffee type of average consumption
// against year.
func TypeTrendsChart(df *dataframe.DataFrame, opts Options) (gochart.Chart, error) {
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

	names, xs, ys := groups(types, years, consumption)
	series := make([]gochart.Series, 0, len(names))
	for i, name := range names {
		series = append(series, gochart.ContinuousSeries{
			Name:    name,
			XValues: xs[name],
			YValues: ys[name],
			Style:   lineStyle(i),
		})
	}

	c := gochart.Chart{
		Title:  "Coffee Type Trends Over Time",
		Width:  opts.Width,
		Height: opts.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Name:           "Year",
			Ticks:          yearTicks(years),
			GridMajorStyle: gridStyle,
		},
		YAxis: gochart.YAxis{
			Name:           "Avg Consumption (kg per capita)",
			Range:          valueRange(false, consumption),
			GridMajorStyle: gridStyle,
		},
		Series: series,
	}
	c.Elements = []gochart.Renderable{gochart.Legend(&c)}
	return c, nil
}
