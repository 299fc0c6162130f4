// Package csvimport decodes CSV uploads whose header row names the JSON
// fields of the target entity.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
)

// LineError points at the CSV line that failed. It matches
// model.ErrValidation so callers answer 400.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

func (e *LineError) Is(target error) bool { return target == model.ErrValidation }

// Schema describes how rows of one entity are decoded.
type Schema[T any] struct {
	Fields []string
	Build  func(r *Row) T
}

// Row is one record addressed by header name. Conversion errors are kept and
// reported once the row is built.
type Row struct {
	index  map[string]int
	record []string
	err    error
}

func (r *Row) String(field string) string {
	i, ok := r.index[field]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

// Int returns 0 for an empty cell so validation reports the field as missing.
func (r *Row) Int(field string) int64 {
	raw := r.String(field)
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		r.fail(fmt.Errorf("%s must be an integer (got %q)", field, raw))
	}
	return n
}

func (r *Row) Date(field string) model.Date {
	raw := r.String(field)
	if raw == "" {
		return model.Date{}
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		r.fail(fmt.Errorf("%s: %w", field, err))
	}
	return d
}

// OptionalDate maps an empty cell to nil.
func (r *Row) OptionalDate(field string) *model.Date {
	d, err := model.ParseOptionalDate(r.String(field))
	if err != nil {
		r.fail(fmt.Errorf("%s: %w", field, err))
		return nil
	}
	return d
}

func (r *Row) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Decode reads the header row and builds one T per following record. Unknown
// columns are rejected; absent columns decode as empty cells.
func Decode[T any](src io.Reader, schema Schema[T]) ([]T, error) {
	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &LineError{Line: 1, Err: errors.New("header row is required")}
	}
	if err != nil {
		return nil, parseError(err)
	}

	known := make(map[string]bool, len(schema.Fields))
	for _, f := range schema.Fields {
		known[f] = true
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if !known[name] {
			return nil, &LineError{Line: 1, Err: fmt.Errorf("unknown column %q", name)}
		}
		if _, dup := index[name]; dup {
			return nil, &LineError{Line: 1, Err: fmt.Errorf("duplicate column %q", name)}
		}
		index[name] = i
	}

	out := []T{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, parseError(err)
		}
		line, _ := reader.FieldPos(0)
		row := &Row{index: index, record: record}
		v := schema.Build(row)
		if row.err != nil {
			return nil, &LineError{Line: line, Err: row.err}
		}
		out = append(out, v)
	}
}

func parseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &LineError{Line: pe.Line, Err: pe.Err}
	}
	return err
}

var Departments = Schema[model.Department]{
	Fields: []string{"id", "title"},
	Build: func(r *Row) model.Department {
		return model.Department{Title: r.String("title")}
	},
}

var Projects = Schema[model.Project]{
	Fields: []string{"id", "title", "startDate", "endDate"},
	Build: func(r *Row) model.Project {
		return model.Project{
			Title:     r.String("title"),
			StartDate: r.Date("startDate"),
			EndDate:   r.OptionalDate("endDate"),
		}
	},
}

var Users = Schema[model.User]{
	Fields: []string{"id", "firstName", "lastName", "email", "jobTitle", "departmentId"},
	Build: func(r *Row) model.User {
		return model.User{
			FirstName:    r.String("firstName"),
			LastName:     r.String("lastName"),
			Email:        r.String("email"),
			JobTitle:     r.String("jobTitle"),
			DepartmentID: r.Int("departmentId"),
		}
	},
}

var Positions = Schema[model.ProjectPosition]{
	Fields: []string{"id", "userId", "projectId", "positionStartDate", "positionEndDate", "positionTitle", "occupation"},
	Build: func(r *Row) model.ProjectPosition {
		return model.ProjectPosition{
			UserID:        r.Int("userId"),
			ProjectID:     r.Int("projectId"),
			StartDate:     r.Date("positionStartDate"),
			EndDate:       r.OptionalDate("positionEndDate"),
			PositionTitle: r.String("positionTitle"),
			Occupation:    r.String("occupation"),
		}
	},
}
