package conflict

import (
	"context"
	"log/slog"
	"time"

	"github.com/LeventeLantos/ema-scheduler/internal/model"
	"github.com/LeventeLantos/ema-scheduler/internal/pager"
)

// ScheduleSource lists scheduled messages sorted by next send time ascending,
// with already-fired schedules (no next send time) after all pending ones.
type ScheduleSource interface {
	ListSchedules(ctx context.Context, page int) (pager.Page[model.Schedule], error)
}

// Checker reports whether a contact already has messages waiting to go out.
type Checker struct {
	src      ScheduleSource
	fullScan bool
	now      func() time.Time
	log      *slog.Logger
}

type Option func(*Checker)

// WithFullScan reads every page instead of stopping at the first fired
// schedule, for listings whose sort order cannot be trusted.
func WithFullScan(on bool) Option {
	return func(c *Checker) { c.fullScan = on }
}

func WithClock(now func() time.Time) Option {
	return func(c *Checker) { c.now = now }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Checker) { c.log = log }
}

func NewChecker(src ScheduleSource, opts ...Option) *Checker {
	c := &Checker{src: src, now: time.Now, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Checker) HasPendingSend(ctx context.Context, contactID int64) (bool, error) {
	pending, err := c.PendingContacts(ctx)
	if err != nil {
		return false, err
	}
	_, ok := pending[contactID]
	return ok, nil
}

// PendingContacts collects every contact referenced by a schedule whose next
// send is still ahead. Unless full scan is on, the walk ends at the first
// schedule without a next send time.
func (c *Checker) PendingContacts(ctx context.Context) (map[int64]struct{}, error) {
	c.log.Info("checking contact against scheduled messages", "full_scan", c.fullScan)

	now := c.now()
	pending := make(map[int64]struct{})
	pages := 0

	for schedules, err := range pager.Pages(ctx, c.src.ListSchedules) {
		if err != nil {
			return nil, err
		}
		pages++

		for _, s := range schedules {
			if s.NextSend == nil {
				if c.fullScan {
					continue
				}
				c.log.Debug("pending schedule scan stopped early", "pages", pages, "contacts", len(pending))
				return pending, nil
			}
			if !s.NextSend.After(now) {
				continue
			}
			for _, id := range s.Parameters.Recipients.Contacts {
				pending[id] = struct{}{}
			}
		}
	}

	c.log.Debug("pending schedule scan complete", "pages", pages, "contacts", len(pending))
	return pending, nil
}
