package processors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/username/stationetl/src/logger"
	"github.com/username/stationetl/src/models"
	"github.com/username/stationetl/src/parsers"
	"github.com/username/stationetl/src/reference"
	"github.com/username/stationetl/src/store"
	"github.com/username/stationetl/src/utils"
)

var (
	ErrHeaderMismatch  = errors.New("header mismatch")
	ErrDuplicateKeys   = errors.New("duplicate natural keys")
	ErrMissingFileDate = errors.New("missing file date")
)

// FileDatePolicy says whether a category takes its business date from the file name.
type FileDatePolicy int

const (
	FileDateNone   FileDatePolicy = iota // dates come from the rows
	FileDateRaw                          // yyyymmdd from the name, as is
	FileDateRolled                       // yyyymmdd from the name, Saturday/Sunday rolled to Monday
)

// Env carries the collaborators every pipeline needs. It replaces module-level
// connection and logger singletons.
type Env struct {
	Store *store.Store
	Refs  *reference.Loader
	Log   *slog.Logger
	Loc   *time.Location
	Now   func() time.Time

	TradingAreaIgnored reference.Set
	// RowCounts memoizes stored row counts of past days, keyed by category and date.
	// Nil disables memoization.
	RowCounts *cache.Cache
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// FileContext is the per-file state handed to descriptor hooks.
type FileContext struct {
	FileName string
	FileDate time.Time // zero unless the category uses the file name date
	Today    time.Time
	Loc      *time.Location
	Log      *slog.Logger
	Result   *models.FileResult
}

// Warn logs a non-blocking row warning and counts it.
func (fc *FileContext) Warn(msg string, args ...any) {
	fc.Result.Counters.Warnings++
	fc.Log.Warn(msg, append([]any{logger.ReportKey, true}, args...)...)
}

// Metric records a derived reporting metric.
func (fc *FileContext) Metric(name string, v float64) {
	if fc.Result.Metrics == nil {
		fc.Result.Metrics = map[string]float64{}
	}
	fc.Result.Metrics[name] = v
}

// Skip is returned by a transform for rows that are deliberately not written.
// They are counted as skipped, not errored.
type Skip struct{ Reason string }

func (s *Skip) Error() string { return s.Reason }

func skip(format string, args ...any) error {
	return &Skip{Reason: fmt.Sprintf(format, args...)}
}

// Descriptor configures the generic runner for one category.
// R is the validated record type, S the reference snapshot it validates against.
type Descriptor[R any, S any] struct {
	Name       models.Category
	Headers    []string
	KeyColumns []string
	FileDate   FileDatePolicy

	// KeyNormalizers bring key cells to their stored form before the
	// duplicate check, so "7" and "0007" are the same station.
	KeyNormalizers KeyNormalizers

	// LoadRefs takes one snapshot of the reference data for the whole file.
	LoadRefs func(ctx context.Context, fc *FileContext) S
	// Transform validates and converts one raw row. A *Skip error marks a skipped row.
	Transform func(ctx context.Context, fc *FileContext, refs S, row parsers.Row) (R, error)
	// Prepare runs once after the structural checks, before the first row.
	Prepare func(ctx context.Context, fc *FileContext, refs S) error
	// Write reconciles one valid record into the store.
	Write func(ctx context.Context, fc *FileContext, rec R) (models.Outcome, error)
	// Finish computes derived reporting metrics after the row loop.
	Finish func(ctx context.Context, fc *FileContext)

	env *Env
}

// Pipeline is a category-erased descriptor.
type Pipeline interface {
	Category() models.Category
	Run(ctx context.Context, fileName string, batch *parsers.Batch) *models.FileResult
}

func (d *Descriptor[R, S]) Category() models.Category { return d.Name }

// Run executes header check, date derivation, duplicate check, the row loop
// and the post-loop metrics. Only structural problems make the result unsuccessful.
func (d *Descriptor[R, S]) Run(ctx context.Context, fileName string, batch *parsers.Batch) *models.FileResult {
	start := time.Now()
	env := d.env
	res := &models.FileResult{
		Category: d.Name,
		FileName: fileName,
		RunID:    uuid.NewString(),
	}
	fc := &FileContext{
		FileName: fileName,
		Today:    utils.Today(env.now(), env.Loc),
		Loc:      env.Loc,
		Log:      env.Log.With("file", fileName, "category", string(d.Name), "runId", res.RunID),
		Result:   res,
	}
	defer func() { res.Duration = time.Since(start) }()

	fail := func(err error) *models.FileResult {
		res.Success = false
		res.Err = err
		fc.Log.Error("File rejected", logger.ReportKey, true, "error", err)
		return res
	}

	if missing, extra := diffHeaders(d.Headers, batch.Headers); len(missing) > 0 || len(extra) > 0 {
		return fail(fmt.Errorf("%w: missing %v, unexpected %v", ErrHeaderMismatch, missing, extra))
	}

	if d.FileDate != FileDateNone {
		fd, err := parsers.FileDate(fileName, env.Loc)
		if err != nil {
			return fail(fmt.Errorf("%w: %v", ErrMissingFileDate, err))
		}
		if d.FileDate == FileDateRolled {
			rolled := utils.RollWeekend(fd)
			if !rolled.Equal(fd) {
				fc.Log.Info("File date rolled forward to Monday", "fileDate", fd.Format(utils.DefaultDateFormat), "businessDate", rolled.Format(utils.DefaultDateFormat))
			}
			fd = rolled
		}
		fc.FileDate = fd
		res.ReportDate = fd
	} else {
		res.ReportDate = fc.Today
	}

	if dups := FindDuplicates(batch.Rows, d.KeyColumns, d.KeyNormalizers); len(dups) > 0 {
		res.Duplicates = dups
		return fail(fmt.Errorf("%w: %d key(s) repeated, first %v at lines %v", ErrDuplicateKeys, len(dups), dups[0].Fields, dups[0].Lines))
	}

	refs := d.LoadRefs(ctx, fc)

	if d.Prepare != nil {
		if err := d.Prepare(ctx, fc, refs); err != nil {
			return fail(err)
		}
	}

	for _, row := range batch.Rows {
		outcome, reason := d.processRow(ctx, fc, refs, row)
		res.Counters.Add(outcome)
		res.Rows = append(res.Rows, models.RowDetail{
			Line:    row.Line,
			Key:     rowKey(row, d.KeyColumns, d.KeyNormalizers),
			Outcome: outcome.String(),
			Reason:  reason,
			Fields:  row.Values,
		})
	}

	if d.Finish != nil {
		d.Finish(ctx, fc)
	}

	res.Success = true
	c := res.Counters
	fc.Log.Info("File processed", logger.ReportKey, true,
		"elaborated", c.Elaborated, "modified", c.Modified, "skipped", c.Skipped,
		"errored", c.Errored, "warnings", c.Warnings)
	return res
}

// processRow never lets an error escape: every failure becomes OutcomeError.
func (d *Descriptor[R, S]) processRow(ctx context.Context, fc *FileContext, refs S, row parsers.Row) (models.Outcome, string) {
	rec, err := d.Transform(ctx, fc, refs, row)
	if err != nil {
		var sk *Skip
		if errors.As(err, &sk) {
			fc.Log.Debug("Row skipped", "line", row.Line, "reason", sk.Reason)
			return models.OutcomeUnchanged, sk.Reason
		}
		fc.Log.Warn("Row rejected", logger.ReportKey, true, "line", row.Line, "reason", err.Error())
		return models.OutcomeError, err.Error()
	}
	outcome, err := d.Write(ctx, fc, rec)
	if err == nil && outcome == models.OutcomeUnknown {
		err = errors.New("write reported no outcome")
	}
	if err != nil {
		fc.Log.Error("Row write failed", logger.ReportKey, true, "line", row.Line, "error", err)
		return models.OutcomeError, err.Error()
	}
	return outcome, ""
}

// diffHeaders compares header sets ignoring order and case.
func diffHeaders(expected, actual []string) (missing, extra []string) {
	want := make(map[string]bool, len(expected))
	for _, h := range expected {
		want[strings.ToUpper(strings.TrimSpace(h))] = true
	}
	got := make(map[string]bool, len(actual))
	for _, h := range actual {
		h = strings.ToUpper(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		got[h] = true
		if !want[h] {
			extra = append(extra, h)
		}
	}
	for h := range want {
		if !got[h] {
			missing = append(missing, h)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}

func rowKey(row parsers.Row, cols []string, normalize KeyNormalizers) string {
	if len(cols) == 0 {
		return fmt.Sprintf("#%d", row.Line)
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = normalize.value(row, c)
	}
	return strings.Join(parts, "|")
}
