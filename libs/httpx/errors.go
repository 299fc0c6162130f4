package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

// ErrorMapping binds a sentinel error to an HTTP status. An empty Message
// means the error text itself is shown to the client.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string
}

// ErrorMapper turns service errors into problem responses using errors.Is.
type ErrorMapper struct {
	mappings []ErrorMapping
	logger   *slog.Logger
}

func NewErrorMapper(logger *slog.Logger) *ErrorMapper {
	return &ErrorMapper{logger: logger}
}

func (m *ErrorMapper) WithMapping(err error, status int, message string) *ErrorMapper {
	m.mappings = append(m.mappings, ErrorMapping{Error: err, Status: status, Message: message})
	return m
}

// Map returns the status and client facing message for err.
func (m *ErrorMapper) Map(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "request cancelled"
	}
	for _, mapping := range m.mappings {
		if errors.Is(err, mapping.Error) {
			if mapping.Message == "" {
				return mapping.Status, err.Error()
			}
			return mapping.Status, mapping.Message
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

// Write maps err and writes the problem body. Unmapped errors are logged.
func (m *ErrorMapper) Write(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := m.Map(err)
	if status >= http.StatusInternalServerError && m.logger != nil {
		m.logger.Error("request failed",
			"request_id", RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
	}
	WriteProblem(w, status, msg)
}
