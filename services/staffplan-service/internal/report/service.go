package report

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/staffplan/libs/db"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/outbox"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/schedule"
)

type Source interface {
	ListUserDetails(ctx context.Context) ([]model.UserDetail, error)
	ListCurrentPositions(ctx context.Context, asOf time.Time) ([]model.PositionDetail, error)
	LatestReport(ctx context.Context, typ model.ReportType) (model.Report, error)
}

type ReportWriter interface {
	Insert(ctx context.Context, q db.DBTX, r *model.Report) error
}

type EventWriter interface {
	Insert(ctx context.Context, q db.DBTX, evt outbox.Event) error
}

// Generated is the payload of the report generated event.
type Generated struct {
	ReportID   int64            `json:"report_id"`
	ReportType model.ReportType `json:"report_type"`
	Period     string           `json:"period"`
	Filename   string           `json:"filename"`
}

type Service struct {
	tx      db.Transactor
	source  Source
	reports ReportWriter
	events  EventWriter
	logger  *slog.Logger
	horizon int
	now     func() time.Time
}

type Config struct {
	AvailabilityHorizonDays int
}

func NewService(tx db.Transactor, source Source, reports ReportWriter, events EventWriter, logger *slog.Logger, cfg Config) *Service {
	if cfg.AvailabilityHorizonDays <= 0 {
		cfg.AvailabilityHorizonDays = DefaultAvailabilityHorizon
	}
	return &Service{
		tx:      tx,
		source:  source,
		reports: reports,
		events:  events,
		logger:  logger,
		horizon: cfg.AvailabilityHorizonDays,
		now:     time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

// GenerateAll builds every report type for today.
func (s *Service) GenerateAll(ctx context.Context) ([]model.Report, error) {
	s.logger.Info("report generation started")
	out := make([]model.Report, 0, len(model.ReportTypes))
	for _, typ := range model.ReportTypes {
		r, err := s.Generate(ctx, typ)
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Generate renders one report from current data and stores it together with
// its generated event.
func (s *Service) Generate(ctx context.Context, typ model.ReportType) (model.Report, error) {
	today := schedule.Day(s.now())

	users, err := s.source.ListUserDetails(ctx)
	if err != nil {
		return model.Report{}, fmt.Errorf("list users: %w", err)
	}
	current, err := s.source.ListCurrentPositions(ctx, today)
	if err != nil {
		return model.Report{}, fmt.Errorf("list current positions: %w", err)
	}

	var sheets []Sheet
	switch typ {
	case model.ReportWorkload:
		sheets = WorkloadSheets(users, current)
		if len(sheets) == 0 {
			sheets = []Sheet{{Name: "Workload", Header: typ.Headers()}}
		}
	case model.ReportAvailability:
		sheets = []Sheet{AvailabilitySheet(users, current, today, s.horizon)}
	default:
		return model.Report{}, fmt.Errorf("%w: unknown report type %q", model.ErrValidation, typ)
	}

	data, err := Render(sheets)
	if err != nil {
		return model.Report{}, fmt.Errorf("render %s report: %w", typ, err)
	}

	report := model.Report{Type: typ, Data: data}
	err = s.tx.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.reports.Insert(ctx, tx, &report); err != nil {
			return err
		}
		evt, err := outbox.NewJSONEvent(outbox.AggregateReport, strconv.FormatInt(report.ID, 10), outbox.ReportGenerated, Generated{
			ReportID:   report.ID,
			ReportType: typ,
			Period:     today.Format("2006-01"),
			Filename:   report.Filename(),
		})
		if err != nil {
			return err
		}
		return s.events.Insert(ctx, tx, evt)
	})
	if err != nil {
		return model.Report{}, fmt.Errorf("save %s report: %w", typ, err)
	}

	s.logger.Info("report saved", "report_type", typ, "report_id", report.ID, "bytes", len(data))
	return report, nil
}

func (s *Service) Last(ctx context.Context, typ model.ReportType) (model.Report, error) {
	r, err := s.source.LatestReport(ctx, typ)
	if err != nil {
		return model.Report{}, fmt.Errorf("last %s report: %w", typ, err)
	}
	return r, nil
}
