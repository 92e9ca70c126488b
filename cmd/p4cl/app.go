package main

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Zuo-Peng/p4-changelist-report/internal/config"
	"github.com/Zuo-Peng/p4-changelist-report/internal/logging"
	"github.com/Zuo-Peng/p4-changelist-report/internal/p4"
	"github.com/Zuo-Peng/p4-changelist-report/internal/report"
)

// app is the state every subcommand starts from.
type app struct {
	cfg *config.Config
	log *zap.Logger
}

func loadApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

func (a *app) client() (*p4.Client, error) {
	timeout, err := a.cfg.Timeout()
	if err != nil {
		return nil, fmt.Errorf("command_timeout: %w", err)
	}
	return p4.New(p4.Options{
		Command: a.cfg.P4Command,
		Charset: a.cfg.Charset,
		Timeout: timeout,
		Logger:  a.log,
	})
}

func (a *app) builder(src report.Describer) (*report.Builder, error) {
	offset, err := a.cfg.Offset()
	if err != nil {
		return nil, fmt.Errorf("timezone_offset: %w", err)
	}
	shape, err := report.ShaperFor(a.cfg.GroupBy)
	if err != nil {
		return nil, err
	}
	opts := report.Options{
		Offset:  offset,
		Exclude: report.ExcludeAuthorPrefixes(a.cfg.ExcludeAuthors...),
		Shape:   shape,
		Workers: a.cfg.Workers,
		Logger:  a.log,
	}
	if len(a.cfg.IgnoreFiles) > 0 {
		opts.Files = report.NewFileFilter(a.cfg.IgnoreFiles...)
	}
	return report.NewBuilder(src, opts), nil
}

// resolveWindow fills in the trailing window of days ending at now for any
// bound left empty.
func resolveWindow(now time.Time, days int, since, until string) (string, string, error) {
	defSince, defUntil := p4.Window(now, days)

	var err error
	if since == "" {
		since = defSince
	} else if since, err = p4.NormalizeTime(since); err != nil {
		return "", "", fmt.Errorf("--since: %w", err)
	}
	if until == "" {
		until = defUntil
	} else if until, err = p4.NormalizeTime(until); err != nil {
		return "", "", fmt.Errorf("--until: %w", err)
	}

	// TimeLayout is fixed width, so text order is time order
	if since > until {
		return "", "", fmt.Errorf("window start %s is after end %s", since, until)
	}
	return since, until, nil
}

// tsvField flattens a value onto one TSV cell.
func tsvField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", " ")
}

func tsvLine(fields ...string) string {
	for i, f := range fields {
		fields[i] = tsvField(f)
	}
	return strings.Join(fields, "\t")
}
