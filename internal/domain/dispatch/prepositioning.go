package dispatch

import (
	"github.com/andrescamacho/deliverysim-go/internal/domain/courier"
	"github.com/andrescamacho/deliverysim-go/internal/domain/delivery"
	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
)

// PrepositioningPolicy proposes relocations for idle couriers based on where
// demand has recently appeared.
type PrepositioningPolicy interface {
	Preposition(idle []*courier.Courier, recentPickUps []shared.Location) []*delivery.Notification
}

// PrepositioningEvaluationPolicy schedules the prepositioning loop. A
// negative next-evaluation delay stops the loop.
type PrepositioningEvaluationPolicy interface {
	NextEvaluation(now int64) int64
}

// NonePrepositioningPolicy never relocates anyone.
type NonePrepositioningPolicy struct{}

// NewNonePrepositioningPolicy creates the do-nothing prepositioning policy.
func NewNonePrepositioningPolicy() *NonePrepositioningPolicy {
	return &NonePrepositioningPolicy{}
}

func (*NonePrepositioningPolicy) Preposition([]*courier.Courier, []shared.Location) []*delivery.Notification {
	return nil
}

// DemandHotspotPrepositioningPolicy sends far-away idle couriers toward the
// centroid of recent pick-up locations.
type DemandHotspotPrepositioningPolicy struct {
	MinDistance float64
	MaxCouriers int
}

// NewDemandHotspotPrepositioningPolicy creates the hotspot policy. Couriers
// already within minDistance meters of the hotspot stay where they are.
func NewDemandHotspotPrepositioningPolicy(minDistance float64, maxCouriers int) *DemandHotspotPrepositioningPolicy {
	if maxCouriers < 1 {
		maxCouriers = 1
	}
	return &DemandHotspotPrepositioningPolicy{MinDistance: minDistance, MaxCouriers: maxCouriers}
}

func (d *DemandHotspotPrepositioningPolicy) Preposition(
	idle []*courier.Courier,
	recentPickUps []shared.Location,
) []*delivery.Notification {
	if len(recentPickUps) == 0 {
		return nil
	}

	var sumLat, sumLng float64
	for _, l := range recentPickUps {
		sumLat += l.Lat
		sumLng += l.Lng
	}
	hotspot := shared.Location{
		Lat: sumLat / float64(len(recentPickUps)),
		Lng: sumLng / float64(len(recentPickUps)),
	}

	var notifications []*delivery.Notification
	for _, c := range idle {
		if len(notifications) >= d.MaxCouriers {
			break
		}
		if c.Location().DistanceTo(hotspot) <= d.MinDistance {
			continue
		}
		notifications = append(notifications, delivery.NewPrepositionNotification(c.ID(), hotspot))
	}
	return notifications
}

// NeverPrepositioningEvaluationPolicy disables the prepositioning loop.
type NeverPrepositioningEvaluationPolicy struct{}

// NewNeverPrepositioningEvaluationPolicy creates the disabled schedule.
func NewNeverPrepositioningEvaluationPolicy() *NeverPrepositioningEvaluationPolicy {
	return &NeverPrepositioningEvaluationPolicy{}
}

func (*NeverPrepositioningEvaluationPolicy) NextEvaluation(int64) int64 {
	return -1
}

// PeriodicPrepositioningEvaluationPolicy evaluates at a fixed interval.
type PeriodicPrepositioningEvaluationPolicy struct {
	Interval int64
}

// NewPeriodicPrepositioningEvaluationPolicy creates the periodic schedule.
func NewPeriodicPrepositioningEvaluationPolicy(interval int64) *PeriodicPrepositioningEvaluationPolicy {
	if interval < 1 {
		interval = 1
	}
	return &PeriodicPrepositioningEvaluationPolicy{Interval: interval}
}

func (p *PeriodicPrepositioningEvaluationPolicy) NextEvaluation(int64) int64 {
	return p.Interval
}
