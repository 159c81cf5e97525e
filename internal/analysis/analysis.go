// Package analysis runs the fixed set of aggregate queries over the
// materialized coffee habits table.
//
// The queries execute in a fixed order. The coffee type query runs twice:
// first restricted to recent years with a row count, then unrestricted and
// without the count. The second result replaces the first, so the recent-year
// variant is computed and discarded. Downstream charts and exports see the
// unrestricted table.
package analysis

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/paveg/coffeetrends/internal/dataframe"
	"github.com/paveg/coffeetrends/internal/logging"
	"github.com/paveg/coffeetrends/internal/schema"
)

// Querier runs a query and returns its result set as a DataFrame.
// QuoteIdent quotes a table or column name in the store's SQL dialect.
type Querier interface {
	Query(ctx context.Context, table, query string, args ...any) (*dataframe.DataFrame, error)
	QuoteIdent(name string) string
}

// Params are the tunable values of the query set.
type Params struct {
	Table        string
	RecentYear   int
	SnapshotYear int
	TopN         int
}

// DefaultParams returns the parameters of the standard report.
func DefaultParams() Params {
	return Params{
		Table:        schema.DefaultTable,
		RecentYear:   2015,
		SnapshotYear: 2023,
		TopN:         5,
	}
}

// Results holds the result tables of one run.
type Results struct {
	TrendsByYear            *dataframe.DataFrame
	TopCountries            *dataframe.DataFrame
	CoffeeTypeTrends        *dataframe.DataFrame
	PriceDemand             *dataframe.DataFrame
	PopulationVsConsumption *dataframe.DataFrame
}

// Release releases every table that was produced.
func (r *Results) Release() {
	for _, df := range []*dataframe.DataFrame{
		r.TrendsByYear, r.TopCountries, r.CoffeeTypeTrends, r.PriceDemand, r.PopulationVsConsumption,
	} {
		if df != nil {
			df.Release()
		}
	}
}

// Engine executes the query set against a store.
type Engine struct {
	store  Querier
	params Params
	log    zerolog.Logger
}

// NewEngine creates an engine querying store with params.
func NewEngine(store Querier, params Params) *Engine {
	return &Engine{
		store:  store,
		params: params,
		log:    logging.With().Str("component", "analysis").Logger(),
	}
}

// Params returns the engine's query parameters.
func (e *Engine) Params() Params {
	return e.params
}

// Run executes the query set in order. On error, tables produced so far are
// released and nil is returned.
func (e *Engine) Run(ctx context.Context) (*Results, error) {
	res := &Results{}
	for _, q := range e.params.queries(e.store.QuoteIdent) {
		start := time.Now()
		df, err := e.store.Query(ctx, q.name, q.sql, q.args...)
		if err != nil {
			res.Release()
			return nil, err
		}
		e.log.Debug().
			Str("query", q.name).
			Int("rows", df.Len()).
			Dur("duration", time.Since(start)).
			Msg("query executed")

		res.assign(q.name, df)
	}
	return res, nil
}

// assign stores df under name, releasing a table it replaces.
func (r *Results) assign(name string, df *dataframe.DataFrame) {
	var slot **dataframe.DataFrame
	switch name {
	case TrendsByYear:
		slot = &r.TrendsByYear
	case TopCountries:
		slot = &r.TopCountries
	case CoffeeTypeTrends:
		slot = &r.CoffeeTypeTrends
	case PriceDemand:
		slot = &r.PriceDemand
	case PopulationVsConsumption:
		slot = &r.PopulationVsConsumption
	default:
		df.Release()
		return
	}

	if *slot != nil {
		(*slot).Release()
	}
	*slot = df
}
