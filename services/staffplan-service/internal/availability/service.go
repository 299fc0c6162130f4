package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/schedule"
)

// ErrInvalidPeriod rejects periods that are negative or run past schedule.MaxDate.
var ErrInvalidPeriod = errors.New("invalid period")

// View is one available user. AvailableTo is nil when the availability runs
// past the end of the queried period.
type View struct {
	User          model.User  `json:"user_details"`
	AvailableFrom model.Date  `json:"available_from"`
	AvailableTo   *model.Date `json:"available_to,omitempty"`
}

type UserLister interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	// ListUsersWithoutCurrentPosition returns users with no position active on asOf.
	ListUsersWithoutCurrentPosition(ctx context.Context, asOf time.Time) ([]model.User, error)
}

type AssignmentFetcher interface {
	// FetchActiveAndFutureAssignments returns the user's positions that are
	// open-ended or end after asOf.
	FetchActiveAndFutureAssignments(ctx context.Context, userID int64, asOf time.Time) ([]model.ProjectPosition, error)
}

type Service struct {
	users       UserLister
	assignments AssignmentFetcher
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(users UserLister, assignments AssignmentFetcher, logger *slog.Logger) *Service {
	return &Service{
		users:       users,
		assignments: assignments,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock replaces the time source. Used by tests and the report job.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

func (s *Service) Today() time.Time {
	return schedule.Day(s.now())
}

// Available lists users free during the next periodDays days. Zero means
// "free right now".
func (s *Service) Available(ctx context.Context, periodDays int) ([]View, error) {
	if periodDays < 0 {
		return nil, fmt.Errorf("%w: %d is negative", ErrInvalidPeriod, periodDays)
	}
	today := s.Today()
	if limit := maxPeriodDays(today); int64(periodDays) > limit {
		return nil, fmt.Errorf("%w: %d days from %s passes %s", ErrInvalidPeriod,
			periodDays, today.Format(schedule.DateLayout), schedule.MaxDate.Format(schedule.DateLayout))
	}
	if periodDays == 0 {
		return s.AvailableNow(ctx, today)
	}
	target, err := schedule.Between(today, today.AddDate(0, 0, periodDays))
	if err != nil {
		return nil, err
	}
	return s.AvailableIn(ctx, target, today)
}

// maxPeriodDays is the longest period starting at today that still ends on
// or before schedule.MaxDate. Computed on Unix seconds so huge inputs never
// reach time.AddDate.
func maxPeriodDays(today time.Time) int64 {
	return (schedule.MaxDate.Unix() - today.Unix()) / secondsPerDay
}

const secondsPerDay = 24 * 60 * 60

// AvailableNow skips window computation: users with no active position are
// available from today with no known end.
func (s *Service) AvailableNow(ctx context.Context, today time.Time) ([]View, error) {
	users, err := s.users.ListUsersWithoutCurrentPosition(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("list users without current position: %w", err)
	}
	views := make([]View, 0, len(users))
	for _, u := range users {
		views = append(views, View{User: u, AvailableFrom: model.NewDate(today)})
	}
	return views, nil
}

// AvailableIn reports, for each user, the earliest free window inside target.
// Users with no free window are omitted.
func (s *Service) AvailableIn(ctx context.Context, target schedule.DateInterval, asOf time.Time) ([]View, error) {
	s.logger.Debug("collecting available users", "period", target.String())

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	views := make([]View, 0, len(users))
	for _, u := range users {
		positions, err := s.assignments.FetchActiveAndFutureAssignments(ctx, u.ID, asOf)
		if err != nil {
			return nil, fmt.Errorf("fetch assignments for user %d: %w", u.ID, err)
		}
		windows, err := schedule.AvailabilityWindows(positions, target)
		if err != nil {
			return nil, fmt.Errorf("availability windows for user %d: %w", u.ID, err)
		}
		if view, ok := ViewFor(u, windows, target); ok {
			views = append(views, view)
		}
	}
	return views, nil
}

// ViewFor turns the first window into a View. The end is dropped when it is
// only the end of the query period.
func ViewFor(u model.User, windows []schedule.DateInterval, target schedule.DateInterval) (View, bool) {
	if len(windows) == 0 {
		return View{}, false
	}
	first := windows[0]
	view := View{User: u, AvailableFrom: model.NewDate(first.Start())}
	if !first.End().Equal(target.End()) {
		to := model.NewDate(first.End())
		view.AvailableTo = &to
	}
	return view, true
}
