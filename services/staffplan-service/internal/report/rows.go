package report

import (
	"sort"
	"strings"
	"time"

	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/schedule"
)

// DefaultAvailabilityHorizon is how far ahead the availability report looks
// for positions that are about to end.
const DefaultAvailabilityHorizon = 30

// Sheet is one worksheet: a header row followed by data rows.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

func groupByUser(positions []model.PositionDetail) map[int64][]model.PositionDetail {
	out := make(map[int64][]model.PositionDetail)
	for _, p := range positions {
		out[p.UserID] = append(out[p.UserID], p)
	}
	return out
}

// WorkloadSheets builds one sheet per department. Each user gets a row per
// current position, or a single row with blank project columns when idle.
func WorkloadSheets(users []model.UserDetail, current []model.PositionDetail) []Sheet {
	byUser := groupByUser(current)
	byDepartment := make(map[string][][]string)

	for _, u := range users {
		positions := byUser[u.ID]
		if len(positions) == 0 {
			byDepartment[u.DepartmentTitle] = append(byDepartment[u.DepartmentTitle],
				[]string{u.FullName(), u.DepartmentTitle, "", ""})
			continue
		}
		for _, p := range positions {
			byDepartment[u.DepartmentTitle] = append(byDepartment[u.DepartmentTitle],
				[]string{u.FullName(), u.DepartmentTitle, p.ProjectTitle, p.Occupation})
		}
	}

	names := make([]string, 0, len(byDepartment))
	for name := range byDepartment {
		names = append(names, name)
	}
	sort.Strings(names)

	sheets := make([]Sheet, 0, len(names))
	for _, name := range names {
		sheets = append(sheets, Sheet{
			Name:   name,
			Header: model.ReportWorkload.Headers(),
			Rows:   byDepartment[name],
		})
	}
	return sheets
}

// AvailabilitySheet lists users who are idle today or whose latest current
// position ends within horizonDays. Users busy past the horizon, or on a
// position without an end date, are left out.
func AvailabilitySheet(users []model.UserDetail, current []model.PositionDetail, today time.Time, horizonDays int) Sheet {
	today = schedule.Day(today)
	horizon := today.AddDate(0, 0, horizonDays)
	byUser := groupByUser(current)

	rows := [][]string{}
	for _, u := range users {
		positions := byUser[u.ID]
		if len(positions) == 0 {
			rows = append(rows, []string{u.FullName(), u.DepartmentTitle, "", ""})
			continue
		}
		latest := latestEnding(positions)
		if latest.EndDate != nil && latest.EndDate.Before(horizon) {
			rows = append(rows, []string{u.FullName(), u.DepartmentTitle, latest.ProjectTitle, latest.EndDate.String()})
		}
	}

	return Sheet{
		Name:   "Availability " + strings.ToUpper(today.Month().String()),
		Header: model.ReportAvailability.Headers(),
		Rows:   rows,
	}
}

// latestEnding picks the position ending last. An open end sorts after every
// date; among equal ends the later one in the slice wins.
func latestEnding(positions []model.PositionDetail) model.PositionDetail {
	latest := positions[0]
	for _, p := range positions[1:] {
		switch {
		case p.EndDate == nil:
			latest = p
		case latest.EndDate == nil:
			// keep the open-ended one
		case !p.EndDate.Before(latest.EndDate.Time):
			latest = p
		}
	}
	return latest
}
