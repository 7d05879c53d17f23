package courier

import (
	"math/rand"

	"github.com/andrescamacho/deliverysim-go/internal/sim"
)

// AcceptancePolicy decides whether a courier takes an offer. Decisions may
// involve a cooperative wait, so the policy runs inside the offer process.
type AcceptancePolicy interface {
	Decide(p *sim.Process, rng *rand.Rand, acceptanceRate float64) (bool, error)
}

// AbsoluteAcceptancePolicy decides immediately with a Bernoulli draw at the
// courier's acceptance rate.
type AbsoluteAcceptancePolicy struct{}

// NewAbsoluteAcceptancePolicy creates the no-delay acceptance policy.
func NewAbsoluteAcceptancePolicy() *AbsoluteAcceptancePolicy {
	return &AbsoluteAcceptancePolicy{}
}

func (*AbsoluteAcceptancePolicy) Decide(_ *sim.Process, rng *rand.Rand, acceptanceRate float64) (bool, error) {
	return rng.Float64() < acceptanceRate, nil
}

// UniformAcceptancePolicy waits a uniform random span before the Bernoulli
// draw, modelling a courier looking at the phone first.
type UniformAcceptancePolicy struct {
	MinWait int64
	MaxWait int64
}

// NewUniformAcceptancePolicy creates the delayed acceptance policy.
func NewUniformAcceptancePolicy(minWait, maxWait int64) *UniformAcceptancePolicy {
	if maxWait < minWait {
		maxWait = minWait
	}
	return &UniformAcceptancePolicy{MinWait: minWait, MaxWait: maxWait}
}

func (u *UniformAcceptancePolicy) Decide(p *sim.Process, rng *rand.Rand, acceptanceRate float64) (bool, error) {
	delay := u.MinWait
	if span := u.MaxWait - u.MinWait; span > 0 {
		delay += rng.Int63n(span + 1)
	}
	if err := p.Timeout(delay); err != nil {
		return false, err
	}
	return rng.Float64() < acceptanceRate, nil
}
