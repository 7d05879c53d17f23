package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/deliverysim-go/internal/domain/courier"
	"github.com/andrescamacho/deliverysim-go/internal/domain/delivery"
)

// RunRecord is everything a finished run persists.
type RunRecord struct {
	RunID         string
	InstanceID    int
	StartedAt     time.Time
	FinishedAt    time.Time
	SimulateFrom  int64
	SimulateUntil int64
	Seed          int64
	ConfigJSON    string

	OrdersPlaced    int
	OrdersFulfilled int
	OrdersCanceled  int
	OrdersLost      int

	CourierMetrics []courier.Metrics
	Orders         []*delivery.Order
}

// GormResultsRepository persists run results using GORM.
type GormResultsRepository struct {
	db *gorm.DB
}

// NewGormResultsRepository creates a new GORM results repository.
func NewGormResultsRepository(db *gorm.DB) *GormResultsRepository {
	return &GormResultsRepository{db: db}
}

// SaveRun persists the run row and its per-courier and per-order metrics in
// one transaction.
func (r *GormResultsRepository) SaveRun(ctx context.Context, record RunRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run := RunModel{
			RunID:           record.RunID,
			InstanceID:      record.InstanceID,
			StartedAt:       record.StartedAt,
			FinishedAt:      record.FinishedAt,
			SimulateFrom:    record.SimulateFrom,
			SimulateUntil:   record.SimulateUntil,
			Seed:            record.Seed,
			Config:          record.ConfigJSON,
			OrdersPlaced:    record.OrdersPlaced,
			OrdersFulfilled: record.OrdersFulfilled,
			OrdersCanceled:  record.OrdersCanceled,
			OrdersLost:      record.OrdersLost,
			Couriers:        len(record.CourierMetrics),
		}
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}

		for _, m := range record.CourierMetrics {
			guaranteed := 0
			if m.GuaranteedCompensation {
				guaranteed = 1
			}
			model := CourierMetricModel{
				RunID:                  record.RunID,
				CourierID:              m.CourierID,
				OnTime:                 m.OnTime,
				OffTime:                m.OffTime,
				FulfilledOrders:        m.FulfilledOrders,
				AcceptedNotifications:  m.AcceptedNotifications,
				UtilizationTime:        m.UtilizationTime,
				Utilization:            m.Utilization,
				Earnings:               m.Earnings.StringFixed(2),
				DeliveryEarnings:       m.DeliveryEarnings.StringFixed(2),
				GuaranteedCompensation: guaranteed,
				OrdersDeliveredPerHour: m.OrdersDeliveredPerHour,
				BundlesPickedPerHour:   m.BundlesPickedPerHour,
			}
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("failed to save courier metric: %w", err)
			}
		}

		for _, o := range record.Orders {
			model := orderMetricModel(record.RunID, o)
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("failed to save order metric: %w", err)
			}
		}
		return nil
	})
}

// ListRuns retrieves all persisted runs, newest first.
func (r *GormResultsRepository) ListRuns(ctx context.Context) ([]RunModel, error) {
	var runs []RunModel
	result := r.db.WithContext(ctx).Order("started_at DESC").Find(&runs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list runs: %w", result.Error)
	}
	return runs, nil
}

// GetRun retrieves one run with its courier metrics.
func (r *GormResultsRepository) GetRun(ctx context.Context, runID string) (*RunModel, []CourierMetricModel, error) {
	var run RunModel
	result := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&run)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil, fmt.Errorf("run not found: %s", runID)
		}
		return nil, nil, fmt.Errorf("failed to find run: %w", result.Error)
	}

	var couriers []CourierMetricModel
	result = r.db.WithContext(ctx).Where("run_id = ?", runID).Order("courier_id").Find(&couriers)
	if result.Error != nil {
		return nil, nil, fmt.Errorf("failed to load courier metrics: %w", result.Error)
	}
	return &run, couriers, nil
}

func orderMetricModel(runID string, o *delivery.Order) OrderMetricModel {
	var clickToDoor int64
	if o.Status() == delivery.StatusDroppedOff {
		clickToDoor = o.DropOffTime() - o.PlacementTime()
	}
	return OrderMetricModel{
		RunID:            runID,
		OrderID:          o.ID(),
		Status:           string(o.Status()),
		CourierID:        o.CourierID(),
		PlacementTime:    o.PlacementTime(),
		AcceptanceTime:   o.AcceptanceTime(),
		InStoreTime:      o.InStoreTime(),
		PickUpTime:       o.PickUpTime(),
		DropOffTime:      o.DropOffTime(),
		CancellationTime: o.CancellationTime(),
		ClickToDoor:      clickToDoor,
	}
}
