package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ReportKey marks a record for inclusion in the per-file report.
// Usage: log.Warn("Station not enabled for promo", logger.ReportKey, true, "pv", pv)
const ReportKey = "report"

// Capture forwards every record to the wrapped handler and additionally keeps
// the ones flagged with ReportKey=true in memory until Drain is called.
type Capture struct {
	next  slog.Handler
	attrs []slog.Attr
	buf   *captureBuffer
}

type captureBuffer struct {
	mu    sync.Mutex
	lines []string
}

func NewCapture(next slog.Handler) *Capture {
	return &Capture{next: next, buf: &captureBuffer{}}
}

func (c *Capture) Enabled(ctx context.Context, level slog.Level) bool {
	return c.next.Enabled(ctx, level)
}

func (c *Capture) Handle(ctx context.Context, r slog.Record) error {
	flagged := false
	var parts []string
	collect := func(a slog.Attr) bool {
		if a.Key == ReportKey {
			if a.Value.Kind() == slog.KindBool && a.Value.Bool() {
				flagged = true
			}
			return true
		}
		parts = append(parts, fmt.Sprintf("%s=%v", a.Key, a.Value.Any()))
		return true
	}
	for _, a := range c.attrs {
		collect(a)
	}
	r.Attrs(collect)

	if flagged {
		line := fmt.Sprintf("%s %s: %s", r.Time.Format(time.DateTime), r.Level.String(), r.Message)
		if len(parts) > 0 {
			line += " " + strings.Join(parts, " ")
		}
		c.buf.mu.Lock()
		c.buf.lines = append(c.buf.lines, line)
		c.buf.mu.Unlock()
	}
	return c.next.Handle(ctx, r)
}

func (c *Capture) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(c.attrs)+len(attrs))
	merged = append(merged, c.attrs...)
	merged = append(merged, attrs...)
	return &Capture{next: c.next.WithAttrs(attrs), attrs: merged, buf: c.buf}
}

func (c *Capture) WithGroup(name string) slog.Handler {
	return &Capture{next: c.next.WithGroup(name), attrs: c.attrs, buf: c.buf}
}

// Drain returns the captured lines and clears the buffer.
func (c *Capture) Drain() []string {
	if c == nil {
		return nil
	}
	c.buf.mu.Lock()
	defer c.buf.mu.Unlock()
	out := c.buf.lines
	c.buf.lines = nil
	return out
}
