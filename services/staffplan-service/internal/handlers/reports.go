package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/staffplan/libs/auth"
	"github.com/md-rashed-zaman/staffplan/libs/httpx"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/report"
)

type ReportService interface {
	Generate(ctx context.Context, typ model.ReportType) (model.Report, error)
	GenerateAll(ctx context.Context) ([]model.Report, error)
	Last(ctx context.Context, typ model.ReportType) (model.Report, error)
}

type ReportRequester interface {
	Request(ctx context.Context, typ model.ReportType, requestedBy string) (string, error)
}

type Reports struct {
	svc       ReportService
	requests  ReportRequester
	errs      *Errors
	logger    *slog.Logger
	adminRole string
}

// NewReports serves the report endpoints. With a requester, generation is
// queued and answered with 202; otherwise it runs inline. A non-empty
// adminRole is required to trigger generation.
func NewReports(svc ReportService, requests ReportRequester, errs *Errors, logger *slog.Logger, adminRole string) *Reports {
	return &Reports{svc: svc, requests: requests, errs: errs, logger: logger, adminRole: adminRole}
}

func (h *Reports) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/reports/last", h.Last)
	var generate http.Handler = http.HandlerFunc(h.Generate)
	if h.adminRole != "" {
		generate = auth.RequireRole(h.adminRole)(generate)
	}
	mux.Handle("POST /api/reports/generate", generate)
}

func (h *Reports) Last(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("reportType")
	if strings.TrimSpace(raw) == "" {
		h.errs.Write(w, r, fmt.Errorf("%w: reportType is required", errBadRequest))
		return
	}
	typ, err := model.ParseReportType(raw)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	rep, err := h.svc.Last(r.Context(), typ)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.Filename()))
	w.Header().Set("Content-Length", strconv.Itoa(len(rep.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rep.Data)
}

type generatedReport struct {
	ID         int64            `json:"id"`
	ReportType model.ReportType `json:"reportType"`
	Filename   string           `json:"filename"`
	CreatedAt  time.Time        `json:"creationDate"`
}

// Generate answers POST /api/reports/generate[?reportType=X].
func (h *Reports) Generate(w http.ResponseWriter, r *http.Request) {
	var typ model.ReportType
	if raw := strings.TrimSpace(r.URL.Query().Get("reportType")); raw != "" {
		parsed, err := model.ParseReportType(raw)
		if err != nil {
			h.errs.Write(w, r, err)
			return
		}
		typ = parsed
	}

	if h.requests != nil {
		requestedBy := ""
		if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
			requestedBy = claims.Subject
		}
		id, err := h.requests.Request(r.Context(), typ, requestedBy)
		if err != nil {
			h.errs.Write(w, r, err)
			return
		}
		h.logger.Info("report generation queued", "request_id", id, "report_type", typ)
		httpx.WriteJSON(w, http.StatusAccepted, map[string]string{"requestId": id})
		return
	}

	var reports []model.Report
	if typ == "" {
		all, err := h.svc.GenerateAll(r.Context())
		if err != nil {
			h.errs.Write(w, r, err)
			return
		}
		reports = all
	} else {
		one, err := h.svc.Generate(r.Context(), typ)
		if err != nil {
			h.errs.Write(w, r, err)
			return
		}
		reports = []model.Report{one}
	}

	out := make([]generatedReport, 0, len(reports))
	for _, rep := range reports {
		out = append(out, generatedReport{ID: rep.ID, ReportType: rep.Type, Filename: rep.Filename(), CreatedAt: rep.CreatedAt})
	}
	httpx.WriteJSON(w, http.StatusCreated, out)
}
