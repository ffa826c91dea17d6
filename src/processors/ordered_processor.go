package processors

import (
	"context"

	"github.com/username/stationetl/src/logger"
	"github.com/username/stationetl/src/models"
	"github.com/username/stationetl/src/parsers"
	"github.com/username/stationetl/src/reference"
)

// HistoricalWeeks is how many same-weekday weeks the ordered average looks back.
const HistoricalWeeks = 3

type orderedRefs struct {
	stations reference.Set
	articles reference.Set
}

// NewOrderedPipeline reconciles ordered quantities dated by the (weekend-rolled) file name.
func NewOrderedPipeline(env *Env) Pipeline {
	return &Descriptor[models.OrderedRecord, orderedRefs]{
		Name:       models.CategoryOrdered,
		Headers:    []string{"PV", "PRODOTTO", "ORDINATO"},
		KeyColumns: []string{"PV", "PRODOTTO"},
		FileDate:   FileDateRolled,
		KeyNormalizers: KeyNormalizers{
			"PV":       stationKey,
			"PRODOTTO": parsers.NormalizeCode,
		},
		LoadRefs: func(ctx context.Context, fc *FileContext) orderedRefs {
			return orderedRefs{
				stations: env.Refs.Stations(ctx),
				articles: env.Refs.Articles(ctx),
			}
		},
		Transform: func(ctx context.Context, fc *FileContext, refs orderedRefs, row parsers.Row) (models.OrderedRecord, error) {
			var rec models.OrderedRecord
			pv, err := knownStation(refs.stations, row.Get("PV"))
			if err != nil {
				return rec, err
			}
			article, err := knownArticle(refs.articles, row.Get("PRODOTTO"))
			if err != nil {
				return rec, err
			}
			qty, err := parsers.ParseDecimal(row.Get("ORDINATO"))
			if err != nil {
				return rec, err
			}
			if qty, err = positiveQuantity("ordered", qty); err != nil {
				return rec, err
			}
			return models.OrderedRecord{StationCode: pv, ArticleCode: article, OrderDate: fc.FileDate, Quantity: qty}, nil
		},
		Write: func(ctx context.Context, fc *FileContext, rec models.OrderedRecord) (models.Outcome, error) {
			return env.Store.UpsertOrdered(ctx, rec)
		},
		Finish: func(ctx context.Context, fc *FileContext) {
			avg, err := env.Store.OrderedHistoricalAverage(ctx, fc.FileDate, HistoricalWeeks)
			if err != nil {
				fc.Log.Error("Failed to compute historical average", "error", err)
				return
			}
			n, err := env.Store.OrderedRowCount(ctx, fc.FileDate)
			if err != nil {
				fc.Log.Error("Failed to count ordered rows", "error", err)
				return
			}
			fc.Metric("historicalAverageRows", avg)
			fc.Metric("storedRows", float64(n))
			fc.Log.Info("Ordered rows against historical average", logger.ReportKey, true,
				"storedRows", n, "historicalAverage", avg, "weeks", HistoricalWeeks)
		},
		env: env,
	}
}
