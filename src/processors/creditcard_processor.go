package processors

import (
	"context"
	"fmt"

	"github.com/username/stationetl/src/logger"
	"github.com/username/stationetl/src/models"
	"github.com/username/stationetl/src/parsers"
	"github.com/username/stationetl/src/reference"
)

type creditCardRefs struct {
	stations  reference.Set
	sellIn    map[string]string
	cardTypes reference.Set
}

// NewCreditCardPipeline replaces the processing day's transactions with the
// rows of the file. The competence date is the date in the file name.
func NewCreditCardPipeline(env *Env) Pipeline {
	return &Descriptor[models.CreditCardTxRecord, creditCardRefs]{
		Name: models.CategoryCreditCard,
		Headers: []string{"TIPO_TRANSAZIONE", "DATA_ORA", "PV", "INDIRIZZO_PV", "CODICE_SELLIN",
			"DESCRIZIONE_PRODOTTO", "TIPO_CARTA", "VOLUME", "IMPORTO", "PREZZO"},
		FileDate: FileDateRaw,
		LoadRefs: func(ctx context.Context, fc *FileContext) creditCardRefs {
			return creditCardRefs{
				stations:  env.Refs.Stations(ctx),
				sellIn:    env.Refs.SellInMap(ctx),
				cardTypes: env.Refs.CardTypes(ctx),
			}
		},
		Prepare: func(ctx context.Context, fc *FileContext, refs creditCardRefs) error {
			n, err := env.Store.DeleteCreditCardDay(ctx, fc.Today)
			if err != nil {
				return err
			}
			fc.Log.Info("Removed transactions previously loaded today", logger.ReportKey, true, "deleted", n)
			return nil
		},
		Transform: func(ctx context.Context, fc *FileContext, refs creditCardRefs, row parsers.Row) (models.CreditCardTxRecord, error) {
			var rec models.CreditCardTxRecord
			ts, err := parsers.ParseTimestamp(row.Get("DATA_ORA"), fc.Loc)
			if err != nil {
				return rec, err
			}
			pv, err := parsers.StripStationPrefix(row.Get("PV"))
			if err != nil {
				return rec, err
			}
			if !refs.stations.Has(pv) {
				return rec, fmt.Errorf("unknown station %s", pv)
			}
			sellIn, article, err := resolveSellIn(refs.sellIn, row.Get("CODICE_SELLIN"))
			if err != nil {
				return rec, err
			}
			volume, err := parsers.ParseDecimal(row.Get("VOLUME"))
			if err != nil {
				return rec, fmt.Errorf("VOLUME: %w", err)
			}
			amount, err := parsers.ParseDecimal(row.Get("IMPORTO"))
			if err != nil {
				return rec, fmt.Errorf("IMPORTO: %w", err)
			}
			price, err := parsers.ParseDecimal(row.Get("PREZZO"))
			if err != nil {
				return rec, fmt.Errorf("PREZZO: %w", err)
			}
			card := parsers.NormalizeCode(row.Get("TIPO_CARTA"))
			if card == "" {
				return rec, fmt.Errorf("empty card type")
			}
			if !refs.cardTypes.Has(card) {
				if err := env.Store.InsertTentativeCardType(ctx, card, "auto-provisioned from "+fc.FileName); err != nil {
					return rec, err
				}
				refs.cardTypes.Add(card)
				fc.Result.NewRefValues = append(fc.Result.NewRefValues, card)
				fc.Warn("Unknown card type provisioned as tentative", "line", row.Line, "cardType", card)
			}
			return models.CreditCardTxRecord{
				LoadDate:           fc.Today,
				TransactionType:    parsers.NormalizeCode(row.Get("TIPO_TRANSAZIONE")),
				TransactionTime:    ts,
				CompetenceDate:     fc.FileDate,
				StationCode:        pv,
				StationAddress:     parsers.NormalizeAddress(row.Get("INDIRIZZO_PV")),
				ArticleCode:        article,
				SellInCode:         sellIn,
				ProductDescription: row.Get("DESCRIZIONE_PRODOTTO"),
				CardType:           card,
				Volume:             volume,
				CreditedAmount:     amount,
				CreditedPrice:      price,
			}, nil
		},
		Write: func(ctx context.Context, fc *FileContext, rec models.CreditCardTxRecord) (models.Outcome, error) {
			return env.Store.InsertCreditCardTx(ctx, rec)
		},
		Finish: func(ctx context.Context, fc *FileContext) {
			n, err := env.Store.CreditCardRowCount(ctx, fc.Today)
			if err != nil {
				fc.Log.Error("Failed to count credit-card rows", "error", err)
				return
			}
			fc.Metric("storedRows", float64(n))
		},
		env: env,
	}
}
