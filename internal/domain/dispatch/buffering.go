package dispatch

// BufferingPolicy decides how long the dispatcher buffers orders before the
// next matching flush.
type BufferingPolicy interface {
	NextFlush(now int64) int64
}

// RollingBufferingPolicy flushes at a fixed interval.
type RollingBufferingPolicy struct {
	Interval int64
}

// NewRollingBufferingPolicy creates a fixed-interval buffering policy.
func NewRollingBufferingPolicy(interval int64) *RollingBufferingPolicy {
	if interval < 1 {
		interval = 1
	}
	return &RollingBufferingPolicy{Interval: interval}
}

func (r *RollingBufferingPolicy) NextFlush(int64) int64 {
	return r.Interval
}
