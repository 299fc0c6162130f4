package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
)

type Generator interface {
	Generate(ctx context.Context, typ model.ReportType) (model.Report, error)
}

type History interface {
	ReportExistsSince(ctx context.Context, typ model.ReportType, since time.Time) (bool, error)
}

// ReportWorker makes sure every report type has been generated once for the
// current month, starting at 00:00 UTC on the 1st. It polls so a replica that
// was down at that moment still catches up.
type ReportWorker struct {
	reports  Generator
	history  History
	locker   Locker
	logger   *slog.Logger
	interval time.Duration
	lease    time.Duration
	now      func() time.Time
}

type WorkerConfig struct {
	Interval time.Duration
	Lease    time.Duration
}

func NewReportWorker(reports Generator, history History, locker Locker, logger *slog.Logger, cfg WorkerConfig) *ReportWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Lease <= 0 {
		cfg.Lease = 10 * time.Minute
	}
	if locker == nil {
		locker = LocalLocker{}
	}
	return &ReportWorker{
		reports:  reports,
		history:  history,
		locker:   locker,
		logger:   logger,
		interval: cfg.Interval,
		lease:    cfg.Lease,
		now:      time.Now,
	}
}

func (w *ReportWorker) Run(ctx context.Context) {
	if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
		w.logger.Error("monthly report check failed", "err", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error("monthly report check failed", "err", err)
			}
		}
	}
}

// RunOnce generates the reports missing for the current month and returns
// the types it produced.
func (w *ReportWorker) RunOnce(ctx context.Context) ([]model.ReportType, error) {
	now := w.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var generated []model.ReportType
	for _, typ := range model.ReportTypes {
		exists, err := w.history.ReportExistsSince(ctx, typ, monthStart)
		if err != nil {
			return generated, fmt.Errorf("check %s history: %w", typ, err)
		}
		if exists {
			continue
		}

		key := fmt.Sprintf("report:%s:%s", typ, monthStart.Format("2006-01"))
		ok, err := w.locker.TryLock(ctx, key, w.lease)
		if err != nil {
			return generated, fmt.Errorf("lock %s: %w", key, err)
		}
		if !ok {
			w.logger.Debug("report generation owned by another replica", "report_type", typ)
			continue
		}

		if _, err := w.reports.Generate(ctx, typ); err != nil {
			return generated, err
		}
		generated = append(generated, typ)
	}
	return generated, nil
}
