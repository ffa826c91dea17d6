package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/username/stationetl/src/logger"
	"github.com/username/stationetl/src/models"
	"github.com/username/stationetl/src/parsers"
	"github.com/username/stationetl/src/processors"
	"github.com/username/stationetl/src/utils"
)

const (
	DestinationOK    = "OK"
	DestinationError = "ERROR"
)

var ErrUnrecognized = errors.New("file name matches no category")

// WatchConfig is the part of the application config the controller needs.
type WatchConfig struct {
	WorkDir               string
	OKDir                 string
	ErrorDir              string
	PollIdleInterval      time.Duration
	SweepInterval         time.Duration
	UnrecognizedMaxSweeps int
	Loc                   *time.Location
}

// WatchService polls the drop directory, runs each file through its category
// pipeline and moves it to the OK or ERROR directory.
type WatchService struct {
	cfg       WatchConfig
	pipelines processors.Registry
	log       *slog.Logger

	// Optional collaborators; nil disables them.
	Capture  *logger.Capture
	Sink     ReportSink
	Archiver Archiver
	Metrics  *Metrics

	unrecognized *cache.Cache
	now          func() time.Time
}

func NewWatchService(cfg WatchConfig, pipelines processors.Registry, log *slog.Logger) *WatchService {
	if cfg.Loc == nil {
		cfg.Loc = time.Local
	}
	return &WatchService{
		cfg:          cfg,
		pipelines:    pipelines,
		log:          log,
		unrecognized: cache.New(24*time.Hour, time.Hour),
		now:          time.Now,
	}
}

// Run sweeps until ctx is cancelled. After a sweep that routed files it waits
// SweepInterval, otherwise PollIdleInterval.
func (s *WatchService) Run(ctx context.Context) error {
	s.log.Info("Watching drop directory", "workDir", s.cfg.WorkDir, "okDir", s.cfg.OKDir, "errorDir", s.cfg.ErrorDir)
	for {
		wait := s.cfg.PollIdleInterval
		routed, err := s.Sweep(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			s.log.Error("Sweep failed", "error", err, "retryIn", wait.String())
		case routed > 0:
			wait = s.cfg.SweepInterval
		default:
			s.log.Debug("Nothing to do", "retryIn", wait.String())
		}

		select {
		case <-ctx.Done():
			s.log.Info("Watcher stopped")
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Sweep handles one listing of the work directory and returns how many files
// were routed. Unrecognized files left in place are not counted.
func (s *WatchService) Sweep(ctx context.Context) (int, error) {
	for _, dir := range []string{s.cfg.OKDir, s.cfg.ErrorDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	entries, err := os.ReadDir(s.cfg.WorkDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read work dir %s: %w", s.cfg.WorkDir, err)
	}

	routed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return routed, err
		}
		if !e.Type().IsRegular() {
			continue
		}
		if s.handleFile(ctx, e.Name()) {
			routed++
		}
	}
	return routed, nil
}

// handleFile reports whether the file left the work directory. Extension and
// content are checked before the name is classified, so an empty or binary file
// goes to ERROR even when its name matches no category.
func (s *WatchService) handleFile(ctx context.Context, name string) bool {
	src := filepath.Join(s.cfg.WorkDir, name)
	log := s.log.With("file", name)
	if s.Capture != nil {
		s.Capture.Drain()
	}

	if !parsers.IsCSV(name) {
		log.Warn("Not a CSV file, moving to ERROR", logger.ReportKey, true)
		return s.finish(ctx, s.failure(models.CategoryUnknown, name, parsers.ErrNotCSV), src, DestinationError)
	}

	batch, err := parsers.ReadFile(src)
	if err != nil {
		category, ok := parsers.Classify(name)
		if !ok {
			category = models.CategoryUnknown
		}
		s.unrecognized.Delete(name)
		log.Error("Failed to read file", logger.ReportKey, true, "category", category, "error", err)
		return s.finish(ctx, s.failure(category, name, err), src, DestinationError)
	}

	category, ok := parsers.Classify(name)
	if !ok {
		return s.unrecognizedFile(ctx, log, name, src)
	}
	s.unrecognized.Delete(name)

	pipeline, ok := s.pipelines.Lookup(category)
	if !ok {
		log.Error("No pipeline registered for category", logger.ReportKey, true, "category", category)
		return s.finish(ctx, s.failure(category, name, fmt.Errorf("no pipeline for %s", category)), src, DestinationError)
	}

	log.Info("Processing file", "category", category, "rows", len(batch.Rows))
	res := s.runPipeline(ctx, pipeline, name, batch)
	s.Metrics.ObservePipeline(res)

	dest := DestinationOK
	if !res.Success {
		dest = DestinationError
	}
	return s.finish(ctx, res, src, dest)
}

func (s *WatchService) unrecognizedFile(ctx context.Context, log *slog.Logger, name, src string) bool {
	seen := 1
	if n, err := s.unrecognized.IncrementInt(name, 1); err == nil {
		seen = n
	} else {
		s.unrecognized.Set(name, 1, cache.DefaultExpiration)
	}
	limit := s.cfg.UnrecognizedMaxSweeps
	if limit == 0 || seen < limit {
		log.Warn("Unrecognized file left in place", "sightings", seen, "quarantineAfter", limit)
		s.Metrics.FileRouted(models.CategoryUnknown, "unrecognized")
		return false
	}
	s.unrecognized.Delete(name)
	log.Warn("Unrecognized file quarantined to ERROR", logger.ReportKey, true, "sightings", seen)
	return s.finish(ctx, s.failure(models.CategoryUnknown, name, ErrUnrecognized), src, DestinationError)
}

func (s *WatchService) runPipeline(ctx context.Context, p processors.Pipeline, name string, batch *parsers.Batch) (res *models.FileResult) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Pipeline panicked", logger.ReportKey, true, "file", name, "category", p.Category(),
				"panic", r, "stack", string(debug.Stack()))
			res = s.failure(p.Category(), name, fmt.Errorf("pipeline panic: %v", r))
		}
	}()
	return p.Run(ctx, name, batch)
}

func (s *WatchService) failure(category models.Category, name string, err error) *models.FileResult {
	return &models.FileResult{
		Category:   category,
		FileName:   name,
		RunID:      uuid.NewString(),
		ReportDate: utils.Today(s.now(), s.cfg.Loc),
		Err:        err,
	}
}

// finish moves the file, then archives and reports it, and reports whether the
// file was moved. Only the move can fail the routing; archive and report errors
// are logged.
func (s *WatchService) finish(ctx context.Context, res *models.FileResult, src, dest string) bool {
	dir := s.cfg.OKDir
	if dest == DestinationError {
		dir = s.cfg.ErrorDir
	}
	target := filepath.Join(dir, s.RoutedName(res.Category, filepath.Base(src)))
	if err := moveFile(src, target); err != nil {
		s.log.Error("Failed to move file", "file", res.FileName, "from", src, "to", target, "error", err)
		return false
	}
	s.log.Info("File moved", "file", res.FileName, "destination", dest, "to", target)
	s.Metrics.FileRouted(res.Category, strings.ToLower(dest))

	if s.Archiver != nil {
		if err := s.Archiver.Archive(ctx, target, dest); err != nil {
			s.log.Error("Failed to archive file", "file", res.FileName, "error", err)
		}
	}

	var lines []string
	if s.Capture != nil {
		lines = s.Capture.Drain()
	}
	if s.Sink != nil {
		if err := s.Sink.Send(ctx, models.NewReport(res, dest, lines)); err != nil {
			s.log.Error("Failed to hand off report", "file", res.FileName, "error", err)
		}
	}
	return true
}

// RoutedName is <CATEGORY>_<yyyymmdd-HHMMSS>_<8 hex>_<original name>.
func (s *WatchService) RoutedName(category models.Category, original string) string {
	stamp := s.now().In(s.cfg.Loc).Format("20060102-150405")
	return fmt.Sprintf("%s_%s_%s_%s", category, stamp, uuid.NewString()[:8], original)
}

// moveFile renames, falling back to copy and delete across devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		in.Close()
		return err
	}
	_, copyErr := io.Copy(out, in)
	in.Close()
	if err := out.Close(); copyErr == nil {
		copyErr = err
	}
	if copyErr != nil {
		os.Remove(dst)
		return copyErr
	}
	return os.Remove(src)
}
