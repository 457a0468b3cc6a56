package selection

import "time"

// RefreshRate is the target redraw rate in frames per second.
const RefreshRate = 60

// Throttle is a passive minimum-interval gate for redraws. It never advances
// itself: callers Mark it only when a redraw actually happens.
type Throttle struct {
	interval time.Duration
	last     time.Time
}

// NewThrottle returns a gate whose interval is half a frame at rate.
func NewThrottle(rate int, start time.Time) *Throttle {
	return &Throttle{interval: frameInterval(rate), last: start}
}

func frameInterval(rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(0.5 / float64(rate) * float64(time.Second))
}

// Interval returns the minimum time between accepted redraws.
func (t *Throttle) Interval() time.Duration { return t.interval }

// Allow reports whether more than the interval has passed since the last mark.
func (t *Throttle) Allow(now time.Time) bool {
	return now.Sub(t.last) > t.interval
}

// Mark records a redraw at now.
func (t *Throttle) Mark(now time.Time) { t.last = now }
