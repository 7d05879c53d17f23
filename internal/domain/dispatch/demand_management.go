package dispatch

import "github.com/andrescamacho/deliverysim-go/internal/domain/shared"

// DemandManagementPolicy is the admission control consulted before an order
// reaches the dispatcher. The current radius is the dispatcher's congestion
// signal: unlimited while supply keeps up with demand.
type DemandManagementPolicy interface {
	Admit(pickUp, dropOff shared.Location, currentRadius float64) bool
}

// NoDemandManagementPolicy admits every order.
type NoDemandManagementPolicy struct{}

// NewNoDemandManagementPolicy creates the always-admit policy.
func NewNoDemandManagementPolicy() *NoDemandManagementPolicy {
	return &NoDemandManagementPolicy{}
}

func (*NoDemandManagementPolicy) Admit(shared.Location, shared.Location, float64) bool {
	return true
}

// RadiusDemandManagementPolicy rejects orders whose pick-up to drop-off
// distance exceeds the current radius.
type RadiusDemandManagementPolicy struct{}

// NewRadiusDemandManagementPolicy creates the radius-limited policy.
func NewRadiusDemandManagementPolicy() *RadiusDemandManagementPolicy {
	return &RadiusDemandManagementPolicy{}
}

func (*RadiusDemandManagementPolicy) Admit(pickUp, dropOff shared.Location, currentRadius float64) bool {
	return pickUp.DistanceTo(dropOff) <= currentRadius
}
