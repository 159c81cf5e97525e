package analysis

import (
	"fmt"

	"github.com/paveg/coffeetrends/internal/schema"
)

// Result table names.
const (
	TrendsByYear            = "trends_by_year"
	TopCountries            = "top_countries"
	CoffeeTypeTrends        = "coffee_type_trends"
	PriceDemand             = "price_demand"
	PopulationVsConsumption = "population_vs_consumption"
)

// Query texts. Identifiers are filled in already quoted for the store's
// dialect: %[1]s table, %[2]s year, %[3]s country, %[4]s consumption,
// %[5]s price, %[6]s coffee type, %[7]s population. %[8]d is the row limit.
// Year bounds are bound as arguments.
const (
	trendsByYearSQL = `SELECT %[2]s,
       AVG(%[4]s) AS AvgConsumption,
       AVG(%[5]s) AS AvgPrice
FROM %[1]s
WHERE %[2]s >= ?
GROUP BY %[2]s
ORDER BY %[2]s`

	topCountriesSQL = `SELECT %[3]s,
       %[4]s AS Consumption,
       %[7]s AS Population
FROM %[1]s
WHERE %[2]s = ?
ORDER BY Consumption DESC
LIMIT %[8]d`

	recentTypeTrendsSQL = `SELECT %[2]s,
       %[6]s AS CoffeeType,
       COUNT(*) AS Count,
       AVG(%[4]s) AS AvgConsumption
FROM %[1]s
WHERE %[2]s >= ?
GROUP BY %[2]s, %[6]s
ORDER BY %[2]s, CoffeeType`

	priceDemandSQL = `SELECT %[5]s,
       AVG(%[4]s) AS AvgConsumption
FROM %[1]s
GROUP BY %[5]s
ORDER BY %[5]s`

	typeTrendsSQL = `SELECT %[2]s,
       %[6]s AS CoffeeType,
       AVG(%[4]s) AS AvgConsumption
FROM %[1]s
GROUP BY %[2]s, %[6]s
ORDER BY %[2]s, CoffeeType`

	populationSQL = `SELECT %[7]s,
       AVG(%[4]s) AS AvgConsumption
FROM %[1]s
GROUP BY %[7]s
ORDER BY %[7]s`
)

// query is one parameterized statement of the fixed query set.
type query struct {
	name string
	sql  string
	args []any
}

// queries returns the statements in execution order: yearly trends, top
// countries, recent coffee type trends, price demand, all-year coffee type
// trends, population against consumption.
func (p Params) queries(quote func(string) string) []query {
	format := func(text string) string {
		return fmt.Sprintf(text,
			quote(p.Table),
			quote(schema.Year),
			quote(schema.Country),
			quote(schema.Consumption),
			quote(schema.Price),
			quote(schema.CoffeeType),
			quote(schema.Population),
			p.TopN,
		)
	}
	return []query{
		{TrendsByYear, format(trendsByYearSQL), []any{p.RecentYear}},
		{TopCountries, format(topCountriesSQL), []any{p.SnapshotYear}},
		{CoffeeTypeTrends, format(recentTypeTrendsSQL), []any{p.RecentYear}},
		{PriceDemand, format(priceDemandSQL), nil},
		{CoffeeTypeTrends, format(typeTrendsSQL), nil},
		{PopulationVsConsumption, format(populationSQL), nil},
	}
}
