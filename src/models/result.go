package models

import "time"

// RowDetail describes what happened to one input row, for reporting.
type RowDetail struct {
	Line    int               `json:"line"` // 1-based data row number (header excluded)
	Key     string            `json:"key"`
	Outcome string            `json:"outcome"`
	Reason  string            `json:"reason,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Counters aggregates row outcomes for one file.
type Counters struct {
	Elaborated int `json:"elaborated"`
	Modified   int `json:"modified"`
	Skipped    int `json:"skipped"`
	Errored    int `json:"errored"`
	Warnings   int `json:"warnings"`
}

// Add tallies one outcome.
func (c *Counters) Add(o Outcome) {
	c.Elaborated++
	switch o {
	case OutcomeModified:
		c.Modified++
	case OutcomeUnchanged:
		c.Skipped++
	default:
		c.Errored++
	}
}

// FileResult is returned by a pipeline for one file. Success is false only for
// structural failures; row errors are reported through Counters and Rows.
type FileResult struct {
	Category     Category           `json:"category"`
	FileName     string             `json:"fileName"`
	RunID        string             `json:"runId"`
	ReportDate   time.Time          `json:"reportDate"`
	Success      bool               `json:"success"`
	Err          error              `json:"-"`
	Duplicates   []DuplicateKey     `json:"duplicates,omitempty"`
	Counters     Counters           `json:"counters"`
	NewRefValues []string           `json:"newRefValues,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	Rows         []RowDetail        `json:"rows,omitempty"`
	Duration     time.Duration      `json:"duration"`
}

// DuplicateKey is one natural key repeated inside a batch.
type DuplicateKey struct {
	Fields map[string]string `json:"fields"`
	Lines  []int             `json:"lines"`
}

// Report is the hand-off contract consumed by report sinks.
type Report struct {
	Category     Category           `json:"category"`
	FileName     string             `json:"fileName"`
	RunID        string             `json:"runId"`
	ReportDate   string             `json:"reportDate"`
	Destination  string             `json:"destination"` // OK or ERROR
	Error        string             `json:"error,omitempty"`
	TotalRows    int                `json:"totalRows"`
	Modified     int                `json:"modified"`
	Skipped      int                `json:"skipped"`
	Errored      int                `json:"errored"`
	Warnings     int                `json:"warnings"`
	Duplicates   []DuplicateKey     `json:"duplicates,omitempty"`
	NewRefValues []string           `json:"newRefValues,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	Rows         []RowDetail        `json:"rows,omitempty"`
	LogLines     []string           `json:"logLines,omitempty"`
}

// NewReport flattens a FileResult into the hand-off shape.
func NewReport(res *FileResult, destination string, logLines []string) Report {
	r := Report{
		Category:     res.Category,
		FileName:     res.FileName,
		RunID:        res.RunID,
		Destination:  destination,
		TotalRows:    res.Counters.Elaborated,
		Modified:     res.Counters.Modified,
		Skipped:      res.Counters.Skipped,
		Errored:      res.Counters.Errored,
		Warnings:     res.Counters.Warnings,
		Duplicates:   res.Duplicates,
		NewRefValues: res.NewRefValues,
		Metrics:      res.Metrics,
		Rows:         res.Rows,
		LogLines:     logLines,
	}
	if !res.ReportDate.IsZero() {
		r.ReportDate = res.ReportDate.Format("2006-01-02")
	}
	if res.Err != nil {
		r.Error = res.Err.Error()
	}
	return r
}
