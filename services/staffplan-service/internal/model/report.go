package model

import (
	"fmt"
	"strings"
	"time"
)

type ReportType string

const (
	ReportWorkload     ReportType = "WORKLOAD"
	ReportAvailability ReportType = "AVAILABILITY"
)

// ReportTypes lists every report generated by a monthly run, in generation order.
var ReportTypes = []ReportType{ReportWorkload, ReportAvailability}

func ParseReportType(raw string) (ReportType, error) {
	switch t := ReportType(strings.ToUpper(strings.TrimSpace(raw))); t {
	case ReportWorkload, ReportAvailability:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown report type %q", ErrValidation, raw)
	}
}

// Headers is the first row of every sheet of the report.
func (t ReportType) Headers() []string {
	switch t {
	case ReportWorkload:
		return []string{"Employee", "Department", "Project", "Occupation"}
	case ReportAvailability:
		return []string{"Employee", "Department", "Project", "Project position end date"}
	default:
		return nil
	}
}

type Report struct {
	ID        int64
	Type      ReportType
	Data      []byte
	CreatedAt time.Time
}

// Filename is the download name, e.g. "WORKLOAD OCTOBER.xlsx".
func (r Report) Filename() string {
	return fmt.Sprintf("%s %s.xlsx", r.Type, strings.ToUpper(r.CreatedAt.Month().String()))
}
