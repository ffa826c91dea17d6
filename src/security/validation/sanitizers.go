package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}

var observatoryIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ObservatoryID cleans a query parameter holding a price observatory id.
func ObservatoryID(raw string) (string, error) {
	v := strings.TrimSpace(StripUnprintable(raw))
	if v == "" {
		return "", fmt.Errorf("empty id")
	}
	if !observatoryIDRe.MatchString(v) {
		return "", fmt.Errorf("invalid id %q", v)
	}
	return v, nil
}
