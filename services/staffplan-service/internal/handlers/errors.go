package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/staffplan/libs/httpx"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/availability"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/csvimport"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/storage"
)

const conflictMessage = "The request cannot be completed due to duplicate unique fields or other inconsistencies."

var errBadRequest = errors.New("bad request")

// Errors writes problem responses for service errors.
type Errors struct {
	mapper *httpx.ErrorMapper
}

func NewErrors(logger *slog.Logger) *Errors {
	mapper := httpx.NewErrorMapper(logger).
		WithMapping(storage.ErrNotFound, http.StatusNotFound, "The requested resource was not found.").
		WithMapping(storage.ErrConflict, http.StatusConflict, conflictMessage).
		WithMapping(model.ErrValidation, http.StatusBadRequest, "").
		WithMapping(httpx.ErrInvalidJSON, http.StatusBadRequest, "").
		WithMapping(availability.ErrInvalidPeriod, http.StatusBadRequest, "").
		WithMapping(errBadRequest, http.StatusBadRequest, "")
	return &Errors{mapper: mapper}
}

func (e *Errors) Write(w http.ResponseWriter, r *http.Request, err error) {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		var le *csvimport.LineError
		detail := ve.Error()
		if errors.As(err, &le) {
			detail = le.Error()
		}
		httpx.WriteProblemBody(w, httpx.Problem{
			Status: http.StatusBadRequest,
			Detail: detail,
			Errors: ve.Fields,
		})
		return
	}
	e.mapper.Write(w, r, err)
}
