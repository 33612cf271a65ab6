package timing

import (
	"fmt"
	"time"
)

// MaxWindow is the longest daily window whose sends all land before the next
// day's window opens, including across a spring-forward day of 23 hours.
const MaxWindow = 23 * time.Hour

// DateGenerator produces campaign dates as midnights in a fixed zone.
type DateGenerator struct {
	loc *time.Location
	now func() time.Time
}

func NewDateGenerator(loc *time.Location, now func() time.Time) *DateGenerator {
	if now == nil {
		now = time.Now
	}
	return &DateGenerator{loc: loc, now: now}
}

func (g *DateGenerator) Location() *time.Location { return g.loc }

// Dates returns durationDays consecutive calendar dates, the first one
// startDelayDays after today in the generator's zone.
func (g *DateGenerator) Dates(startDelayDays, durationDays int) ([]time.Time, error) {
	if startDelayDays < 0 {
		return nil, fmt.Errorf("start delay must be >= 0, got %d", startDelayDays)
	}
	if durationDays <= 0 {
		return nil, fmt.Errorf("campaign duration must be > 0, got %d", durationDays)
	}

	y, m, d := g.now().In(g.loc).Date()
	dates := make([]time.Time, durationDays)
	for i := range dates {
		// time.Date normalises day overflow across month and year ends.
		dates[i] = time.Date(y, m, d+startDelayDays+i, 0, 0, 0, 0, g.loc)
	}
	return dates, nil
}

// SendTime composes the absolute send instant for a date, the window start,
// and an offset into the window.
func SendTime(date time.Time, startHour, startMinute int, offset time.Duration) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, startHour, startMinute, 0, 0, date.Location()).Add(offset)
}
