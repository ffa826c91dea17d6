package processors

import (
	"context"
	"fmt"

	"github.com/username/stationetl/src/models"
	"github.com/username/stationetl/src/parsers"
	"github.com/username/stationetl/src/reference"
	"github.com/username/stationetl/src/store"
)

type promoRefs struct {
	stations reference.Set
	enabled  reference.Set
}

// NewPromoPipeline reconciles promo-card counters. Each row writes one counter column.
func NewPromoPipeline(env *Env) Pipeline {
	return &Descriptor[models.PromoCounter, promoRefs]{
		Name:       models.CategoryPromoCard,
		Headers:    []string{"GIORNO", "PV", "TIPO", "TOTALE"},
		KeyColumns: []string{"GIORNO", "PV", "TIPO"},
		FileDate:   FileDateNone,
		KeyNormalizers: KeyNormalizers{
			"PV":   stationKey,
			"TIPO": parsers.NormalizeCode,
		},
		LoadRefs: func(ctx context.Context, fc *FileContext) promoRefs {
			return promoRefs{
				stations: env.Refs.Stations(ctx),
				enabled:  env.Refs.PromoStations(ctx),
			}
		},
		Transform: func(ctx context.Context, fc *FileContext, refs promoRefs, row parsers.Row) (models.PromoCounter, error) {
			var rec models.PromoCounter
			kind := models.PromoType(parsers.NormalizeCode(row.Get("TIPO")))
			if _, ok := store.PromoColumn(kind); !ok {
				return rec, fmt.Errorf("unknown promo type %q", row.Get("TIPO"))
			}
			pv, err := knownStation(refs.stations, row.Get("PV"))
			if err != nil {
				return rec, err
			}
			date, err := parsers.ParseRowDate(row.Get("GIORNO"), fc.Loc)
			if err != nil {
				return rec, err
			}
			total, err := parsers.ParseCount(row.Get("TOTALE"))
			if err != nil {
				return rec, err
			}
			if !refs.enabled.Has(pv) {
				fc.Warn("Station not enabled for promo cards", "line", row.Line, "pv", pv)
			}
			return models.PromoCounter{StationCode: pv, PromoDate: date, Type: kind, Total: total}, nil
		},
		Write: func(ctx context.Context, fc *FileContext, rec models.PromoCounter) (models.Outcome, error) {
			return env.Store.UpsertPromoCounter(ctx, rec)
		},
		env: env,
	}
}
