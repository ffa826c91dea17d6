package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/redis/go-redis/v9"

	"github.com/username/stationetl/src/config"
	"github.com/username/stationetl/src/models"
)

// ReportSink receives the reconciliation summary of every routed file.
// A failing sink never changes where the file was moved.
type ReportSink interface {
	Send(ctx context.Context, r models.Report) error
}

// NewReportSink picks the sink named by cfg.ReportSink. Incomplete mail or
// Redis settings fall back to the log sink.
func NewReportSink(cfg *config.AppConfig, log *slog.Logger) ReportSink {
	provider := strings.ToLower(cfg.ReportSink)
	log.Info("Initializing report sink", "provider", provider)

	switch provider {
	case "mailgun":
		if cfg.MailgunDomain == "" || cfg.MailgunPrivateAPIKey == "" || len(cfg.ReportTo) == 0 {
			log.Warn("Mailgun configuration incomplete (Domain, API Key or REPORT_TO missing). Falling back to log sink.")
			return &LogReportSink{log: log}
		}
		mg := mailgun.NewMailgun(cfg.MailgunDomain, cfg.MailgunPrivateAPIKey)
		log.Info("Mailgun client initialized", "domain", cfg.MailgunDomain)
		return &MailgunReportSink{
			mg:   mg,
			from: fmt.Sprintf("%s <%s>", cfg.SenderName, cfg.SenderEmail),
			to:   cfg.ReportTo,
			log:  log,
		}
	case "smtp":
		if cfg.SMTPServer == "" || cfg.SMTPUser == "" || cfg.SMTPPassword == "" || len(cfg.ReportTo) == 0 {
			log.Warn("SMTP configuration incomplete. Falling back to log sink.")
			return &LogReportSink{log: log}
		}
		return &SMTPReportSink{
			Server:   cfg.SMTPServer,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SenderEmail,
			To:       cfg.ReportTo,
			log:      log,
		}
	case "redis":
		if cfg.RedisAddr == "" {
			log.Warn("REDIS_ADDR not set. Falling back to log sink.")
			return &LogReportSink{log: log}
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return NewRedisReportSink(client, cfg.RedisReportKey, cfg.RedisMaxItems, log)
	default:
		return &LogReportSink{log: log}
	}
}

// LogReportSink writes the report as one structured log record.
type LogReportSink struct {
	log *slog.Logger
}

func NewLogReportSink(log *slog.Logger) *LogReportSink {
	return &LogReportSink{log: log}
}

func (s *LogReportSink) Send(_ context.Context, r models.Report) error {
	s.log.Info("Reconciliation summary",
		"category", r.Category, "file", r.FileName, "runId", r.RunID,
		"reportDate", r.ReportDate, "destination", r.Destination, "error", r.Error,
		"totalRows", r.TotalRows, "modified", r.Modified, "skipped", r.Skipped,
		"errored", r.Errored, "warnings", r.Warnings, "duplicates", len(r.Duplicates),
		"newRefValues", r.NewRefValues, "metrics", r.Metrics)
	return nil
}

// SMTPReportSink mails the HTML report through a plain SMTP relay.
type SMTPReportSink struct {
	Server   string
	Port     int
	User     string
	Password string
	From     string
	To       []string
	log      *slog.Logger
}

func (s *SMTPReportSink) Send(_ context.Context, r models.Report) error {
	body, err := RenderReportHTML(r)
	if err != nil {
		return err
	}
	subject := ReportSubject(r)

	header := make(map[string]string)
	header["From"] = s.From
	header["To"] = strings.Join(s.To, ", ")
	header["Subject"] = subject
	header["MIME-version"] = "1.0"
	header["Content-Type"] = "text/html; charset=\"UTF-8\""
	message := ""
	for k, v := range header {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body

	auth := smtp.PlainAuth("", s.User, s.Password, s.Server)
	addr := fmt.Sprintf("%s:%d", s.Server, s.Port)
	if err := smtp.SendMail(addr, auth, s.From, s.To, []byte(message)); err != nil {
		s.log.Error("Failed to send report via SMTP", "error", err, "to", s.To, "file", r.FileName)
		return fmt.Errorf("failed to send report via SMTP: %w", err)
	}
	s.log.Info("Report sent successfully via SMTP", "to", s.To, "file", r.FileName)
	return nil
}

// MailgunReportSink mails the HTML report through Mailgun.
type MailgunReportSink struct {
	mg   mailgun.Mailgun
	from string
	to   []string
	log  *slog.Logger
}

func (s *MailgunReportSink) Send(ctx context.Context, r models.Report) error {
	html, err := RenderReportHTML(r)
	if err != nil {
		return err
	}
	message := s.mg.NewMessage(s.from, ReportSubject(r), RenderReportText(r), s.to...)
	message.SetHtml(html)
	message.AddTag("etl-report")
	message.AddTag(strings.ToLower(string(r.Category)))

	ctx, cancel := context.WithTimeout(ctx, time.Second*20)
	defer cancel()
	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		s.log.Error("Failed to send report via Mailgun", "error", err, "to", s.to, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed: %w. Response: %s", err, resp)
	}
	s.log.Info("Report sent successfully via Mailgun", "to", s.to, "id", id, "mailgunResp", resp)
	return nil
}

// RedisReportSink pushes JSON reports onto a capped Redis list, newest first.
type RedisReportSink struct {
	client   redis.Cmdable
	key      string
	maxItems int64
	log      *slog.Logger
}

func NewRedisReportSink(client redis.Cmdable, key string, maxItems int64, log *slog.Logger) *RedisReportSink {
	return &RedisReportSink{client: client, key: key, maxItems: maxItems, log: log}
}

func (s *RedisReportSink) Send(ctx context.Context, r models.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, s.key, payload)
		if s.maxItems > 0 {
			p.LTrim(ctx, s.key, 0, s.maxItems-1)
		}
		return nil
	})
	if err != nil {
		s.log.Error("Failed to push report to Redis", "error", err, "key", s.key, "file", r.FileName)
		return fmt.Errorf("redis push failed: %w", err)
	}
	s.log.Debug("Report pushed to Redis", "key", s.key, "file", r.FileName)
	return nil
}
