package processors

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/username/stationetl/src/database"
	"github.com/username/stationetl/src/parsers"
	"github.com/username/stationetl/src/reference"
)

// knownStation pads the raw code and checks it against the station set.
func knownStation(stations reference.Set, raw string) (string, error) {
	pv, err := parsers.PadStation(raw)
	if err != nil {
		return "", err
	}
	if !stations.Has(pv) {
		return "", fmt.Errorf("unknown station %s", pv)
	}
	return pv, nil
}

// knownArticle normalizes the raw code and checks it against the article set.
func knownArticle(articles reference.Set, raw string) (string, error) {
	code := parsers.NormalizeCode(raw)
	if code == "" {
		return "", fmt.Errorf("empty article code")
	}
	if !articles.Has(code) {
		return "", fmt.Errorf("unknown article %s", code)
	}
	return code, nil
}

// resolveSellIn maps a sell-in product code to its article.
func resolveSellIn(sellIn map[string]string, raw string) (string, string, error) {
	code := parsers.NormalizeCode(raw)
	if code == "" {
		return "", "", fmt.Errorf("empty sell-in code")
	}
	article, ok := sellIn[code]
	if !ok {
		return code, "", fmt.Errorf("sell-in code %s has no article mapping", code)
	}
	return code, article, nil
}

// positiveQuantity rounds to the stored scale first, so a value that would be
// written as zero is rejected.
func positiveQuantity(what string, qty decimal.Decimal) (decimal.Decimal, error) {
	rounded := qty.Round(database.ScaleQuantity)
	if !rounded.IsPositive() {
		return rounded, fmt.Errorf("%s quantity must be positive at %d decimals, got %s", what, database.ScaleQuantity, qty)
	}
	return rounded, nil
}

// stationKey pads station cells for the duplicate check. Cells that do not
// parse are compared trimmed; the row transform rejects them later.
func stationKey(raw string) string {
	if pv, err := parsers.PadStation(raw); err == nil {
		return pv
	}
	return strings.TrimSpace(raw)
}

