package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/report"
	"github.com/segmentio/kafka-go"
)

type ReportGenerator interface {
	Generate(ctx context.Context, typ model.ReportType) (model.Report, error)
	GenerateAll(ctx context.Context) ([]model.Report, error)
}

// ReportRequestHandler generates the requested report type, or all of them
// when the request names none.
func ReportRequestHandler(reports ReportGenerator) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var req report.Request
		if len(msg.Value) > 0 {
			if err := json.Unmarshal(msg.Value, &req); err != nil {
				return fmt.Errorf("decode report request: %w", err)
			}
		}
		if strings.TrimSpace(req.ReportType) == "" {
			_, err := reports.GenerateAll(ctx)
			return err
		}
		typ, err := model.ParseReportType(req.ReportType)
		if err != nil {
			return err
		}
		_, err = reports.Generate(ctx, typ)
		return err
	}
}
