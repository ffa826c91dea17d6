package processors

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/username/stationetl/src/database"
	"github.com/username/stationetl/src/logger"
	"github.com/username/stationetl/src/models"
	"github.com/username/stationetl/src/parsers"
	"github.com/username/stationetl/src/reference"
	"github.com/username/stationetl/src/utils"
)

type priceListRefs struct {
	stations reference.Set
	articles reference.Set
	fixed    map[string]bool
}

var priceListDecimals = []string{
	"PREZZO_SERVITO", "SCONTO_SERVITO", "PREZZO_SELF", "SCONTO_SELF",
	"PREZZO_OPT", "SCONTO_OPT", "STACCO", "ORDINATO",
}

// NewPriceListPipeline reconciles the distributor price list dated by the
// (weekend-rolled) file name.
func NewPriceListPipeline(env *Env) Pipeline {
	return &Descriptor[models.PriceListRecord, priceListRefs]{
		Name: models.CategoryPriceList,
		Headers: []string{"PV", "PRODOTTO", "PREZZO_SERVITO", "SCONTO_SERVITO", "PREZZO_SELF", "SCONTO_SELF",
			"PREZZO_OPT", "SCONTO_OPT", "STACCO", "ORDINATO", "NOTE"},
		KeyColumns: []string{"PV", "PRODOTTO"},
		FileDate:   FileDateRolled,
		KeyNormalizers: KeyNormalizers{
			"PV":       stationKey,
			"PRODOTTO": parsers.NormalizeCode,
		},
		LoadRefs: func(ctx context.Context, fc *FileContext) priceListRefs {
			return priceListRefs{
				stations: env.Refs.Stations(ctx),
				articles: env.Refs.Articles(ctx),
				fixed:    env.Refs.FixedDiscounts(ctx, fc.FileDate),
			}
		},
		Transform: func(ctx context.Context, fc *FileContext, refs priceListRefs, row parsers.Row) (models.PriceListRecord, error) {
			var rec models.PriceListRecord
			pv, err := knownStation(refs.stations, row.Get("PV"))
			if err != nil {
				return rec, err
			}
			article, err := knownArticle(refs.articles, row.Get("PRODOTTO"))
			if err != nil {
				return rec, err
			}
			vals := make(map[string]decimal.NullDecimal, len(priceListDecimals))
			for _, col := range priceListDecimals {
				v, err := parsers.ParseOptionalDecimal(row.Get(col))
				if err != nil {
					return rec, fmt.Errorf("%s: %w", col, err)
				}
				vals[col] = v
			}
			rec = models.PriceListRecord{
				ListDate:        fc.FileDate,
				StationCode:     pv,
				ArticleCode:     article,
				ServedPrice:     vals["PREZZO_SERVITO"],
				ServedDiscount:  vals["SCONTO_SERVITO"],
				SelfPrice:       vals["PREZZO_SELF"],
				SelfDiscount:    vals["SCONTO_SELF"],
				OptPrice:        vals["PREZZO_OPT"],
				OptDiscount:     vals["SCONTO_OPT"],
				CutoffQuantity:  vals["STACCO"],
				OrderedQuantity: vals["ORDINATO"],
				Notes:           row.Get("NOTE"),
			}
			if refs.fixed[reference.DiscountKey(pv, article)] && (rec.ServedDiscount.Valid || rec.SelfDiscount.Valid || rec.OptDiscount.Valid) {
				fc.Warn("Discount listed for a station/article with a fixed discount", "line", row.Line, "pv", pv, "article", article)
			}
			return rec, nil
		},
		Write: func(ctx context.Context, fc *FileContext, rec models.PriceListRecord) (models.Outcome, error) {
			return env.Store.UpsertPriceList(ctx, rec)
		},
		Finish: func(ctx context.Context, fc *FileContext) {
			current, err := env.Store.PriceListRowCount(ctx, fc.FileDate)
			if err != nil {
				fc.Log.Error("Failed to count price list rows", "error", err)
				return
			}
			prevDate := utils.PreviousBusinessDay(fc.FileDate)
			previous, err := priceListCount(ctx, env, prevDate)
			if err != nil {
				fc.Log.Error("Failed to count previous price list rows", "date", database.Date(prevDate), "error", err)
				return
			}
			fc.Metric("storedRows", float64(current))
			fc.Metric("previousDayRows", float64(previous))
			fc.Metric("dayOverDayDelta", float64(current-previous))
			fc.Log.Info("Price list rows against previous business day", logger.ReportKey, true,
				"storedRows", current, "previousDate", database.Date(prevDate), "previousRows", previous, "delta", current-previous)
		},
		env: env,
	}
}

// priceListCount reads a past day's row count through env.RowCounts.
func priceListCount(ctx context.Context, env *Env, day time.Time) (int, error) {
	key := string(models.CategoryPriceList) + ":" + database.Date(day)
	if env.RowCounts != nil {
		if v, ok := env.RowCounts.Get(key); ok {
			return v.(int), nil
		}
	}
	n, err := env.Store.PriceListRowCount(ctx, day)
	if err != nil {
		return 0, err
	}
	if env.RowCounts != nil {
		env.RowCounts.Set(key, n, cache.DefaultExpiration)
	}
	return n, nil
}
