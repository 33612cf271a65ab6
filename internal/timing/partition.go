package timing

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const DefaultMinSpacing = 90 * time.Minute

// PartitionConfigError reports a window/count/spacing combination for which
// some sub-window can run out of room for its offset.
type PartitionConfigError struct {
	SubWindows int
	Window     time.Duration
	MinSpacing time.Duration
	Index      int
}

func (e *PartitionConfigError) Error() string {
	return fmt.Sprintf(
		"partition config: spacing %s leaves no room in sub-window %d of %d (window %s)",
		e.MinSpacing, e.Index, e.SubWindows, e.Window,
	)
}

// Partitioner draws one send offset per sub-window of a daily window.
type Partitioner struct {
	subWindows int
	window     time.Duration
	minSpacing time.Duration
	rng        *rand.Rand
}

// NewPartitioner validates that every sub-window keeps at least one whole
// minute available even when the previous offset lands as late as possible.
func NewPartitioner(subWindows int, window, minSpacing time.Duration, rng *rand.Rand) (*Partitioner, error) {
	if subWindows <= 0 {
		return nil, fmt.Errorf("partition config: sub-window count must be > 0, got %d", subWindows)
	}
	if window <= 0 {
		return nil, fmt.Errorf("partition config: window must be > 0, got %s", window)
	}
	if minSpacing < 0 {
		return nil, fmt.Errorf("partition config: min spacing must be >= 0, got %s", minSpacing)
	}
	if rng == nil {
		return nil, fmt.Errorf("partition config: random source must not be nil")
	}

	p := &Partitioner{
		subWindows: subWindows,
		window:     window,
		minSpacing: minSpacing,
		rng:        rng,
	}
	if err := p.checkFeasible(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Partitioner) checkFeasible() error {
	var latestPrev time.Duration
	for i := 0; i < p.subWindows; i++ {
		lo, hi := p.Bounds(i)
		minAcceptable := lo
		if i > 0 {
			minAcceptable = max(lo, latestPrev+p.minSpacing)
		}
		first := ceilMinute(minAcceptable)
		if first >= hi {
			return &PartitionConfigError{
				SubWindows: p.subWindows,
				Window:     p.window,
				MinSpacing: p.minSpacing,
				Index:      i,
			}
		}
		latestPrev = lastMinuteBefore(hi)
	}
	return nil
}

// Bounds returns the half-open range [lo, hi) of sub-window i.
func (p *Partitioner) Bounds(i int) (lo, hi time.Duration) {
	n := time.Duration(p.subWindows)
	lo = time.Duration(i) * p.window / n
	hi = time.Duration(i+1) * p.window / n
	return lo, hi
}

func (p *Partitioner) SubWindows() int { return p.subWindows }

func (p *Partitioner) MinSpacing() time.Duration { return p.minSpacing }

// Offsets returns one offset per sub-window, measured from the window start.
// Every call makes fresh draws.
func (p *Partitioner) Offsets() []time.Duration {
	out := make([]time.Duration, 0, p.subWindows)
	for i := 0; i < p.subWindows; i++ {
		lo, hi := p.Bounds(i)
		minAcceptable := lo
		if i > 0 {
			minAcceptable = max(lo, out[i-1]+p.minSpacing)
		}
		out = append(out, p.randomMinute(minAcceptable, hi))
	}
	return out
}

// randomMinute picks a whole-minute offset uniformly from [lo, hi).
// A range with no whole minute in it yields lo.
func (p *Partitioner) randomMinute(lo, hi time.Duration) time.Duration {
	first := ceilMinute(lo)
	if hi <= lo || first >= hi {
		return lo
	}
	candidates := int64((hi-first-1)/time.Minute) + 1
	return first + time.Duration(p.rng.Int64N(candidates))*time.Minute
}

func ceilMinute(d time.Duration) time.Duration {
	t := d.Truncate(time.Minute)
	if t < d {
		t += time.Minute
	}
	return t
}

func lastMinuteBefore(d time.Duration) time.Duration {
	return ceilMinute(d) - time.Minute
}
