package processors

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/username/stationetl/src/models"
	"github.com/username/stationetl/src/parsers"
	"github.com/username/stationetl/src/reference"
)

var thousand = decimal.NewFromInt(1000)

type deliveredRefs struct {
	stations reference.Set
	sellIn   map[string]string
}

// NewDeliveredPipeline reconciles sell-through quantities. Dates come from the rows.
func NewDeliveredPipeline(env *Env) Pipeline {
	return &Descriptor[models.DeliveredRecord, deliveredRefs]{
		Name:       models.CategoryDelivered,
		Headers:    []string{"PV", "PRODOTTO", "DATA_CONSEGNA", "CONSEGNATO"},
		KeyColumns: []string{"PV", "PRODOTTO", "DATA_CONSEGNA"},
		FileDate:   FileDateNone,
		KeyNormalizers: KeyNormalizers{
			"PV":       stationKey,
			"PRODOTTO": parsers.NormalizeCode,
		},
		LoadRefs: func(ctx context.Context, fc *FileContext) deliveredRefs {
			return deliveredRefs{
				stations: env.Refs.Stations(ctx),
				sellIn:   env.Refs.SellInMap(ctx),
			}
		},
		Transform: func(ctx context.Context, fc *FileContext, refs deliveredRefs, row parsers.Row) (models.DeliveredRecord, error) {
			var rec models.DeliveredRecord
			pv, err := knownStation(refs.stations, row.Get("PV"))
			if err != nil {
				return rec, err
			}
			sellIn, article, err := resolveSellIn(refs.sellIn, row.Get("PRODOTTO"))
			if err != nil {
				return rec, err
			}
			date, err := parsers.ParseRowDate(row.Get("DATA_CONSEGNA"), fc.Loc)
			if err != nil {
				return rec, err
			}
			qty, err := parsers.ParseDecimal(row.Get("CONSEGNATO"))
			if err != nil {
				return rec, err
			}
			qty, err = positiveQuantity("delivered", qty.Div(thousand))
			if err != nil {
				return rec, err
			}
			return models.DeliveredRecord{
				StationCode:  pv,
				SellInCode:   sellIn,
				DeliveryDate: date,
				ArticleCode:  article,
				Quantity:     qty,
			}, nil
		},
		Write: func(ctx context.Context, fc *FileContext, rec models.DeliveredRecord) (models.Outcome, error) {
			return env.Store.UpsertDelivered(ctx, rec)
		},
		env: env,
	}
}
