// Package schema names the source table and the columns of the worldwide
// coffee habits dataset. The header is assumed, never validated: a file with
// different column names loads fine and fails later, at query time.
package schema

// DefaultTable is the name the source DataFrame is materialized under.
const DefaultTable = "coffee_habits"

// Source dataset columns, exactly as they appear in the CSV header.
const (
	Year        = "Year"
	Country     = "Country"
	Consumption = "Coffee Consumption (kg per capita per year)"
	Price       = "Average Coffee Price (USD per kg)"
	CoffeeType  = "Type of Coffee Consumed"
	Population  = "Population (millions)"
)

// Columns lists the source columns in header order.
func Columns() []string {
	return []string{Year, Country, Consumption, Price, CoffeeType, Population}
}

// Result table aliases shared by the queries, charts and exports.
const (
	AliasYear           = "Year"
	AliasCountry        = "Country"
	AliasConsumption    = "Consumption"
	AliasPopulation     = "Population"
	AliasCoffeeType     = "CoffeeType"
	AliasCount          = "Count"
	AliasAvgConsumption = "AvgConsumption"
	AliasAvgPrice       = "AvgPrice"
)
