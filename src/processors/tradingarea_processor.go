package processors

import (
	"context"
	"fmt"

	"github.com/username/stationetl/src/models"
	"github.com/username/stationetl/src/parsers"
	"github.com/username/stationetl/src/reference"
)

type tradingAreaRefs struct {
	stations  reference.Set
	articles  reference.Set
	whitelist reference.Set
}

// NewTradingAreaPipeline reconciles competitor price observations around each station.
// Articles in env.TradingAreaIgnored are skipped before any validation.
func NewTradingAreaPipeline(env *Env) Pipeline {
	return &Descriptor[models.TradingAreaRecord, tradingAreaRefs]{
		Name:       models.CategoryTradingArea,
		Headers:    []string{"PV", "PRODOTTO", "INSEGNA", "INDIRIZZO", "PRINCIPALE", "PREZZO_SELF", "PREZZO_SERVITO", "PREZZO_CHIUSO"},
		KeyColumns: []string{"PV", "PRODOTTO", "INSEGNA", "INDIRIZZO"},
		FileDate:   FileDateRolled,
		KeyNormalizers: KeyNormalizers{
			"PV":        stationKey,
			"PRODOTTO":  parsers.NormalizeCode,
			"INSEGNA":   parsers.NormalizeCode,
			"INDIRIZZO": parsers.NormalizeAddress,
		},
		LoadRefs: func(ctx context.Context, fc *FileContext) tradingAreaRefs {
			return tradingAreaRefs{
				stations:  env.Refs.Stations(ctx),
				articles:  env.Refs.Articles(ctx),
				whitelist: env.Refs.BrandAddresses(ctx),
			}
		},
		Transform: func(ctx context.Context, fc *FileContext, refs tradingAreaRefs, row parsers.Row) (models.TradingAreaRecord, error) {
			var rec models.TradingAreaRecord
			code := parsers.NormalizeCode(row.Get("PRODOTTO"))
			if env.TradingAreaIgnored.Has(code) {
				return rec, skip("article %s is ignored", code)
			}
			pv, err := knownStation(refs.stations, row.Get("PV"))
			if err != nil {
				return rec, err
			}
			article, err := knownArticle(refs.articles, code)
			if err != nil {
				return rec, err
			}
			brand := parsers.NormalizeCode(row.Get("INSEGNA"))
			address := parsers.NormalizeAddress(row.Get("INDIRIZZO"))
			if brand == "" || address == "" {
				return rec, fmt.Errorf("brand and address are required")
			}
			if !refs.whitelist.Has(reference.BrandAddressKey(brand, address)) {
				return rec, fmt.Errorf("competitor %s at %q is not registered", brand, address)
			}
			self, err := parsers.ParseOptionalDecimal(row.Get("PREZZO_SELF"))
			if err != nil {
				return rec, fmt.Errorf("PREZZO_SELF: %w", err)
			}
			served, err := parsers.ParseOptionalDecimal(row.Get("PREZZO_SERVITO"))
			if err != nil {
				return rec, fmt.Errorf("PREZZO_SERVITO: %w", err)
			}
			closing, err := parsers.ParseOptionalDecimal(row.Get("PREZZO_CHIUSO"))
			if err != nil {
				return rec, fmt.Errorf("PREZZO_CHIUSO: %w", err)
			}
			return models.TradingAreaRecord{
				AreaDate:     fc.FileDate,
				StationCode:  pv,
				ArticleCode:  article,
				Brand:        brand,
				Address:      address,
				IsMain:       parsers.ParseFlag(row.Get("PRINCIPALE")),
				SelfPrice:    self,
				ServedPrice:  served,
				ClosingPrice: closing,
			}, nil
		},
		Write: func(ctx context.Context, fc *FileContext, rec models.TradingAreaRecord) (models.Outcome, error) {
			return env.Store.UpsertTradingArea(ctx, rec)
		},
		env: env,
	}
}
