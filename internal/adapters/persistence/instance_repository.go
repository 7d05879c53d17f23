package persistence

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/andrescamacho/deliverysim-go/internal/domain/delivery"
	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
)

// CourierInstance is a courier shift row converted to domain terms.
type CourierInstance struct {
	CourierID  int64
	Vehicle    shared.Vehicle
	OnLocation shared.Location
	OnTime     int64
	OffTime    int64
}

// OrderInstance is an order arrival row converted to domain terms. The
// alternate pick-up location backs the demand-management substitution flow;
// it is zero-valued when the instance carries none.
type OrderInstance struct {
	Params            delivery.OrderParams
	AlternatePickUpAt shared.Location
}

// HasAlternatePickUp reports whether the row carries a usable alternate
// pick-up location.
func (o OrderInstance) HasAlternatePickUp() bool {
	return o.AlternatePickUpAt.Lat != 0 || o.AlternatePickUpAt.Lng != 0
}

// GormInstanceRepository reads and seeds instance data using GORM.
type GormInstanceRepository struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewGormInstanceRepository creates a new GORM instance repository.
func NewGormInstanceRepository(db *gorm.DB, logger logrus.FieldLogger) *GormInstanceRepository {
	return &GormInstanceRepository{db: db, log: logger.WithField("adapter", "instance_repository")}
}

// OrdersPlacedAt retrieves the orders of an instance placed exactly at t.
// DB errors degrade to "no new orders this tick" with a warning; a data
// source hiccup must not abort a long run.
func (r *GormInstanceRepository) OrdersPlacedAt(ctx context.Context, instanceID int, t int64) []OrderInstance {
	var models []OrderInstanceModel
	result := r.db.WithContext(ctx).
		Where("instance_id = ? AND placement_time = ?", instanceID, t).
		Order("order_id").
		Find(&models)
	if result.Error != nil {
		r.log.WithField("error", result.Error.Error()).Warn("order query failed, no new orders this tick")
		return nil
	}

	orders := make([]OrderInstance, 0, len(models))
	for _, m := range models {
		orders = append(orders, OrderInstance{
			Params: delivery.OrderParams{
				ID:                  m.OrderID,
				UserID:              m.OrderID,
				PickUpAt:            shared.Location{Lat: m.PickUpLat, Lng: m.PickUpLng},
				DropOffAt:           shared.Location{Lat: m.DropOffLat, Lng: m.DropOffLng},
				PlacementTime:       m.PlacementTime,
				PreparationTime:     m.PreparationTime,
				ReadyTime:           m.ReadyTime,
				ExpectedDropOffTime: m.ExpectedDropOffTime,
				PickUpServiceTime:   m.PickUpServiceTime,
				DropOffServiceTime:  m.DropOffServiceTime,
			},
			AlternatePickUpAt: shared.Location{Lat: m.PickUpLat2, Lng: m.PickUpLng2},
		})
	}
	return orders
}

// CouriersLoggingOnAt retrieves the couriers of an instance whose shift
// starts exactly at t. Rows with an unknown vehicle are skipped with a
// warning.
func (r *GormInstanceRepository) CouriersLoggingOnAt(ctx context.Context, instanceID int, t int64) []CourierInstance {
	var models []CourierInstanceModel
	result := r.db.WithContext(ctx).
		Where("instance_id = ? AND on_time = ?", instanceID, t).
		Order("courier_id").
		Find(&models)
	if result.Error != nil {
		r.log.WithField("error", result.Error.Error()).Warn("courier query failed, no new couriers this tick")
		return nil
	}

	couriers := make([]CourierInstance, 0, len(models))
	for _, m := range models {
		vehicle, err := shared.ParseVehicle(m.Vehicle)
		if err != nil {
			r.log.WithFields(logrus.Fields{"courier_id": m.CourierID, "vehicle": m.Vehicle}).
				Warn("skipping courier with unknown vehicle")
			continue
		}
		couriers = append(couriers, CourierInstance{
			CourierID:  m.CourierID,
			Vehicle:    vehicle,
			OnLocation: shared.Location{Lat: m.OnLat, Lng: m.OnLng},
			OnTime:     m.OnTime,
			OffTime:    m.OffTime,
		})
	}
	return couriers
}

// Instances lists the distinct instance ids present in the data source.
func (r *GormInstanceRepository) Instances(ctx context.Context) ([]int, error) {
	var ids []int
	result := r.db.WithContext(ctx).
		Model(&OrderInstanceModel{}).
		Distinct("instance_id").
		Order("instance_id").
		Pluck("instance_id", &ids)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list instances: %w", result.Error)
	}
	return ids, nil
}

// SeedOrders inserts order instance rows in one batch.
func (r *GormInstanceRepository) SeedOrders(ctx context.Context, models []OrderInstanceModel) error {
	if len(models) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return fmt.Errorf("failed to seed orders: %w", err)
	}
	return nil
}

// SeedCouriers inserts courier instance rows in one batch.
func (r *GormInstanceRepository) SeedCouriers(ctx context.Context, models []CourierInstanceModel) error {
	if len(models) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return fmt.Errorf("failed to seed couriers: %w", err)
	}
	return nil
}
