package processors

import (
	"encoding/json"

	"github.com/username/stationetl/src/models"
	"github.com/username/stationetl/src/parsers"
)

// KeyNormalizers maps a key column to the function that brings its raw cell to
// the form stored in the natural key. Columns without an entry compare as read.
type KeyNormalizers map[string]func(string) string

func (n KeyNormalizers) value(row parsers.Row, col string) string {
	v := row.Get(col)
	if fn, ok := n[col]; ok && fn != nil {
		return fn(v)
	}
	return v
}

// FindDuplicates reports every natural key that appears more than once in the
// batch, in first-seen order. An empty result means all keys are unique.
// Keys are serialized as JSON arrays so that values containing separators cannot collide.
func FindDuplicates(rows []parsers.Row, keyColumns []string, normalize KeyNormalizers) []models.DuplicateKey {
	if len(keyColumns) == 0 {
		return nil
	}
	type seen struct {
		fields map[string]string
		lines  []int
	}
	index := make(map[string]*seen, len(rows))
	var order []string

	for _, row := range rows {
		values := make([]string, len(keyColumns))
		for i, col := range keyColumns {
			values[i] = normalize.value(row, col)
		}
		b, _ := json.Marshal(values)
		k := string(b)

		entry, ok := index[k]
		if !ok {
			fields := make(map[string]string, len(keyColumns))
			for i, col := range keyColumns {
				fields[col] = values[i]
			}
			entry = &seen{fields: fields}
			index[k] = entry
			order = append(order, k)
		}
		entry.lines = append(entry.lines, row.Line)
	}

	var dups []models.DuplicateKey
	for _, k := range order {
		if e := index[k]; len(e.lines) > 1 {
			dups = append(dups, models.DuplicateKey{Fields: e.fields, Lines: e.lines})
		}
	}
	return dups
}
