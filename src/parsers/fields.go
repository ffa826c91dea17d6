package parsers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RowDateLayout = "02/01/2006"
	StationWidth  = 4
)

// ParseDecimal parses a locale formatted number: "12,5" -> 12.5, "1.234,50" -> 1234.50.
// When both separators are present the dots are thousands separators.
func ParseDecimal(s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return decimal.Zero, fmt.Errorf("empty number")
	}
	v = strings.ReplaceAll(v, " ", "")
	if strings.Contains(v, ",") && strings.Contains(v, ".") {
		v = strings.ReplaceAll(v, ".", "")
	}
	v = strings.ReplaceAll(v, ",", ".")
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", s)
	}
	return d, nil
}

// ParseOptionalDecimal is ParseDecimal where an empty cell means "no value".
func ParseOptionalDecimal(s string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := ParseDecimal(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// PadStation left-pads a station code with zeros to four characters: "7" -> "0007".
func PadStation(s string) (string, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return "", fmt.Errorf("empty station code")
	}
	if len(v) >= StationWidth {
		return v, nil
	}
	return strings.Repeat("0", StationWidth-len(v)) + v, nil
}

var stationPrefixRe = regexp.MustCompile(`^[A-Za-z]+[\s._-]*`)

// StripStationPrefix removes an alphabetic prefix such as "PV-" or "PV" and
// re-pads the numeric part: "PV-705" -> "0705". Leading zeros beyond the width are trimmed.
func StripStationPrefix(s string) (string, error) {
	v := stationPrefixRe.ReplaceAllString(strings.TrimSpace(s), "")
	if v == "" {
		return "", fmt.Errorf("empty station code in %q", s)
	}
	if _, err := strconv.Atoi(v); err != nil {
		return "", fmt.Errorf("invalid station code %q", s)
	}
	v = strings.TrimLeft(v, "0")
	if v == "" {
		v = "0"
	}
	return PadStation(v)
}

// ParseRowDate parses a dd/mm/yyyy cell.
func ParseRowDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(RowDateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected dd/mm/yyyy", s)
	}
	return t, nil
}

var timestampLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
}

// ParseTimestamp parses "dd/mm/yyyy HH:MM[:SS]".
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	v := strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// ParseFlag reads yes/no style cells.
func ParseFlag(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "S", "SI", "SÌ", "Y", "YES", "1", "TRUE", "X":
		return true
	default:
		return false
	}
}

// ParseCount parses a non-negative integer counter, accepting a "12,0" style decimal tail.
func ParseCount(s string) (int64, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative counter %q", s)
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("counter %q is not an integer", s)
	}
	return d.IntPart(), nil
}

var addressReplacer = strings.NewReplacer(
	"’", "'", "‘", "'", "`", "'", "´", "'",
	"À", "A'", "È", "E'", "É", "E'", "Ì", "I'", "Ò", "O'", "Ù", "U'",
)

// NormalizeAddress upper-cases, trims, folds accented vowels to the
// vowel+apostrophe form and collapses whitespace.
func NormalizeAddress(s string) string {
	v := addressReplacer.Replace(strings.ToUpper(strings.TrimSpace(s)))
	return strings.Join(strings.Fields(v), " ")
}

// NormalizeCode trims and upper-cases article, brand and card codes.
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
