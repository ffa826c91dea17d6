package processors

import "github.com/username/stationetl/src/models"

// Registry maps every recognised category to its pipeline.
type Registry map[models.Category]Pipeline

// NewRegistry builds the six category pipelines over one environment.
func NewRegistry(env *Env) Registry {
	r := Registry{}
	for _, p := range []Pipeline{
		NewDeliveredPipeline(env),
		NewOrderedPipeline(env),
		NewCreditCardPipeline(env),
		NewPromoPipeline(env),
		NewTradingAreaPipeline(env),
		NewPriceListPipeline(env),
	} {
		r[p.Category()] = p
	}
	return r
}

// Lookup returns the pipeline for a category.
func (r Registry) Lookup(c models.Category) (Pipeline, bool) {
	p, ok := r[c]
	return p, ok
}
