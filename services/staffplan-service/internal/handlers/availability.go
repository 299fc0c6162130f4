package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/md-rashed-zaman/staffplan/libs/httpx"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/availability"
)

type AvailabilityReader interface {
	Available(ctx context.Context, periodDays int) ([]availability.View, error)
}

type Availability struct {
	reader AvailabilityReader
	errs   *Errors
}

func NewAvailability(reader AvailabilityReader, errs *Errors) *Availability {
	return &Availability{reader: reader, errs: errs}
}

func (h *Availability) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/users/available", h.List)
}

// List answers GET /api/users/available?period=N. Without period only users
// free today are listed.
func (h *Availability) List(w http.ResponseWriter, r *http.Request) {
	period := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("period")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.errs.Write(w, r, fmt.Errorf("%w: period must be an integer number of days (got %q)", errBadRequest, raw))
			return
		}
		period = n
	}

	views, err := h.reader.Available(r.Context(), period)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, views)
}
