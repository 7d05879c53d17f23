package user

import "math/rand"

// CancellationPolicy decides how long a user waits before giving up on an
// order that has not been picked up. A negative wait means the user never
// cancels and no watcher is spawned.
type CancellationPolicy interface {
	WaitToCancel(rng *rand.Rand) int64
}

// NeverCancellationPolicy models an endlessly patient user.
type NeverCancellationPolicy struct{}

// NewNeverCancellationPolicy creates the no-cancellation policy.
func NewNeverCancellationPolicy() *NeverCancellationPolicy {
	return &NeverCancellationPolicy{}
}

func (*NeverCancellationPolicy) WaitToCancel(*rand.Rand) int64 {
	return -1
}

// RandomCancellationPolicy waits a uniform random span in [MinWait, MaxWait]
// seconds.
type RandomCancellationPolicy struct {
	MinWait int64
	MaxWait int64
}

// NewRandomCancellationPolicy creates the uniform-wait cancellation policy.
func NewRandomCancellationPolicy(minWait, maxWait int64) *RandomCancellationPolicy {
	if minWait < 0 {
		minWait = 0
	}
	if maxWait < minWait {
		maxWait = minWait
	}
	return &RandomCancellationPolicy{MinWait: minWait, MaxWait: maxWait}
}

func (r *RandomCancellationPolicy) WaitToCancel(rng *rand.Rand) int64 {
	if span := r.MaxWait - r.MinWait; span > 0 {
		return r.MinWait + rng.Int63n(span+1)
	}
	return r.MinWait
}
