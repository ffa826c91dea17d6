package parsers

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/username/stationetl/src/models"
)

var ErrNoFileDate = errors.New("no yyyymmdd date in file name")

type pattern struct {
	category models.Category
	re       *regexp.Regexp
}

// patterns are tried in order; the first match wins.
var patterns = []pattern{
	{models.CategoryDelivered, regexp.MustCompile(`(?i)consegnat`)},
	{models.CategoryOrdered, regexp.MustCompile(`(?i)ordinat`)},
	{models.CategoryCreditCard, regexp.MustCompile(`(?i)carte_?credito`)},
	{models.CategoryPromoCard, regexp.MustCompile(`(?i)carte_?promo`)},
	{models.CategoryTradingArea, regexp.MustCompile(`(?i)trading_?area`)},
	{models.CategoryPriceList, regexp.MustCompile(`(?i)listino`)},
}

var fileDateRe = regexp.MustCompile(`\d{8}`)

// Classify returns the category of a dropped file from its base name.
func Classify(fileName string) (models.Category, bool) {
	base := filepath.Base(fileName)
	for _, p := range patterns {
		if p.re.MatchString(base) {
			return p.category, true
		}
	}
	return models.CategoryUnknown, false
}

// FileDate extracts the first 8-digit token of the base name as yyyymmdd.
// The token must be a real calendar date.
func FileDate(fileName string, loc *time.Location) (time.Time, error) {
	base := filepath.Base(fileName)
	token := fileDateRe.FindString(base)
	if token == "" {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNoFileDate, base)
	}
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation("20060102", token, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s (%v)", ErrNoFileDate, base, err)
	}
	return d, nil
}
