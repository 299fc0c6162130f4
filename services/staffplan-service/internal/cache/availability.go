// Package cache keeps short-lived copies of expensive read models.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/availability"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/schedule"
	"golang.org/x/sync/singleflight"
)

type AvailabilitySource interface {
	Available(ctx context.Context, periodDays int) ([]availability.View, error)
}

// Availability caches availability views per day and period. Writes to
// users or positions bump a generation counter, which retires every cached
// entry at once. Concurrent misses for the same key share one computation.
type Availability struct {
	src     AvailabilitySource
	backend Backend
	logger  *slog.Logger
	ttl     time.Duration
	prefix  string
	group   singleflight.Group
	now     func() time.Time
}

func NewAvailability(src AvailabilitySource, backend Backend, logger *slog.Logger, ttl time.Duration) *Availability {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Availability{
		src:     src,
		backend: backend,
		logger:  logger,
		ttl:     ttl,
		prefix:  "staffplan:availability:",
		now:     time.Now,
	}
}

func (c *Availability) generationKey() string { return c.prefix + "generation" }

func (c *Availability) Available(ctx context.Context, periodDays int) ([]availability.View, error) {
	if periodDays < 0 {
		return c.src.Available(ctx, periodDays)
	}

	gen, err := c.backend.Counter(ctx, c.generationKey())
	if err != nil {
		c.logger.Warn("availability cache unavailable", "err", err)
		return c.src.Available(ctx, periodDays)
	}
	key := fmt.Sprintf("%sg%d:%s:%d", c.prefix, gen, schedule.Day(c.now()).Format(schedule.DateLayout), periodDays)

	if raw, ok, err := c.backend.Get(ctx, key); err != nil {
		c.logger.Warn("availability cache read failed", "key", key, "err", err)
	} else if ok {
		var views []availability.View
		if err := json.Unmarshal(raw, &views); err == nil {
			return views, nil
		}
		c.logger.Warn("availability cache entry corrupt", "key", key)
	}

	// The shared computation outlives any single caller, so one cancelled
	// request does not fail the others waiting on the same key.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		views, err := c.src.Available(flightCtx, periodDays)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(views); err == nil {
			if err := c.backend.Set(flightCtx, key, raw, c.ttl); err != nil {
				c.logger.Warn("availability cache write failed", "key", key, "err", err)
			}
		}
		return views, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]availability.View), nil
	}
}

// Invalidate retires every cached view. Failures are logged; entries then
// expire with their TTL.
func (c *Availability) Invalidate(ctx context.Context) {
	if _, err := c.backend.Incr(ctx, c.generationKey()); err != nil {
		c.logger.Warn("availability cache invalidation failed", "err", err)
	}
}
