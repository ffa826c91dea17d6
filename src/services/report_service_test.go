package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/username/stationetl/src/config"
	"github.com/username/stationetl/src/logger"
	"github.com/username/stationetl/src/models"
)

func sampleReport() models.Report {
	return models.Report{
		Category:    models.CategoryPriceList,
		FileName:    "listino_20250407.csv",
		ReportDate:  "2025-04-07",
		Destination: DestinationOK,
		TotalRows:   3,
		Modified:    1,
		Skipped:     1,
		Errored:     1,
		Metrics:     map[string]float64{"dayOverDayDelta": -2},
		Rows: []models.RowDetail{
			{Line: 1, Key: "0007|SP95", Outcome: "modified"},
			{Line: 2, Key: "0007|ART1", Outcome: "skipped"},
			{Line: 3, Key: "0705|<b>", Outcome: "errored", Reason: "unknown article <b>"},
		},
		LogLines: []string{"2025-04-07T10:00:00Z INFO: File processed"},
	}
}

func TestRenderReportHTML(t *testing.T) {
	html, err := RenderReportHTML(sampleReport())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Report ETL LISTINO - 2025-04-07", "dayOverDayDelta: -2", "unknown article &lt;b&gt;", "File processed"} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
	if strings.Contains(html, "0007|SP95") {
		t.Error("modified rows should not be listed")
	}
}

func TestReportCarriesDuplicateKeys(t *testing.T) {
	res := &models.FileResult{
		Category: models.CategoryOrdered,
		FileName: "ordinato_20250407.csv",
		Err:      errors.New("duplicate natural keys"),
		Duplicates: []models.DuplicateKey{
			{Fields: map[string]string{"PV": "0007", "PRODOTTO": "ART1"}, Lines: []int{1, 3}},
			{Fields: map[string]string{"PV": "0705", "PRODOTTO": "SP95"}, Lines: []int{2, 4, 5}},
		},
	}
	r := models.NewReport(res, DestinationError, nil)
	if len(r.Duplicates) != 2 {
		t.Fatalf("report duplicates = %+v", r.Duplicates)
	}

	html, err := RenderReportHTML(r)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Duplicate keys", "PRODOTTO=ART1, PV=0007", "1, 3", "PRODOTTO=SP95, PV=0705", "2, 4, 5"} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
	text := RenderReportText(r)
	if !strings.Contains(text, "Duplicate key PRODOTTO=SP95, PV=0705 at lines 2, 4, 5") {
		t.Errorf("text report = %q", text)
	}

	payload, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	var decoded models.Report
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Duplicates) != 2 || decoded.Duplicates[1].Lines[2] != 5 {
		t.Fatalf("hand-off payload duplicates = %+v", decoded.Duplicates)
	}
}

func TestReportSubject(t *testing.T) {
	r := sampleReport()
	if s := ReportSubject(r); !strings.HasSuffix(s, "[OK]") {
		t.Errorf("subject = %q", s)
	}
	r.Destination = DestinationError
	if s := ReportSubject(r); !strings.HasSuffix(s, "[ERROR]") {
		t.Errorf("subject = %q", s)
	}
}

func TestLogReportSink(t *testing.T) {
	var buf bytes.Buffer
	log, _ := logger.NewWithWriter("info", &buf)
	buf.Reset()
	if err := NewLogReportSink(log).Send(context.Background(), sampleReport()); err != nil {
		t.Fatal(err)
	}
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["file"] != "listino_20250407.csv" || rec["errored"] != float64(1) {
		t.Fatalf("record = %v", rec)
	}
}

func TestNewReportSinkFallsBackToLog(t *testing.T) {
	for _, sink := range []string{"log", "smtp", "mailgun", "redis"} {
		cfg := &config.AppConfig{ReportSink: sink}
		if _, ok := NewReportSink(cfg, logger.Discard()).(*LogReportSink); !ok {
			t.Errorf("%s without settings should fall back to the log sink", sink)
		}
	}
	cfg := &config.AppConfig{ReportSink: "mailgun", MailgunDomain: "mg.example.com", MailgunPrivateAPIKey: "key", ReportTo: []string{"ops@example.com"}}
	if _, ok := NewReportSink(cfg, logger.Discard()).(*MailgunReportSink); !ok {
		t.Error("expected mailgun sink")
	}
}

// Requires a Redis at 127.0.0.1:6379; skipped otherwise.
func TestRedisReportSinkCapsList(t *testing.T) {
	rc := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		t.Skipf("Skipping: Redis not reachable on 127.0.0.1:6379: %v", err)
	}
	key := "stationetl-test-reports"
	rc.Del(ctx, key)
	t.Cleanup(func() { rc.Del(context.Background(), key) })

	sink := NewRedisReportSink(rc, key, 2, logger.Discard())
	for i := 0; i < 3; i++ {
		r := sampleReport()
		r.TotalRows = i
		if err := sink.Send(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	items, err := rc.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("list length = %d, want 2", len(items))
	}
	var newest models.Report
	if err := json.Unmarshal([]byte(items[0]), &newest); err != nil {
		t.Fatal(err)
	}
	if newest.TotalRows != 2 {
		t.Fatalf("newest report = %+v", newest)
	}
}
