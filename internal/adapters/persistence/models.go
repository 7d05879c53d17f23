package persistence

import (
	"time"
)

// OrderInstanceModel represents the orders_instance_data table. All times
// are integer clock-of-day seconds; the alternate pick-up coordinates feed
// the demand-management substitution flow.
type OrderInstanceModel struct {
	ID                  int64   `gorm:"column:id;primaryKey;autoIncrement"`
	InstanceID          int     `gorm:"column:instance_id;index;not null"`
	OrderID             int64   `gorm:"column:order_id;not null"`
	PickUpLat           float64 `gorm:"column:pick_up_lat;not null"`
	PickUpLng           float64 `gorm:"column:pick_up_lng;not null"`
	DropOffLat          float64 `gorm:"column:drop_off_lat;not null"`
	DropOffLng          float64 `gorm:"column:drop_off_lng;not null"`
	PickUpLat2          float64 `gorm:"column:pick_up_lat_2"`
	PickUpLng2          float64 `gorm:"column:pick_up_lng_2"`
	PlacementTime       int64   `gorm:"column:placement_time;index;not null"`
	PreparationTime     int64   `gorm:"column:preparation_time"`
	ReadyTime           int64   `gorm:"column:ready_time"`
	ExpectedDropOffTime int64   `gorm:"column:expected_drop_off_time"`
	PickUpServiceTime   int64   `gorm:"column:pick_up_service_time"`
	DropOffServiceTime  int64   `gorm:"column:drop_off_service_time"`
}

func (OrderInstanceModel) TableName() string {
	return "orders_instance_data"
}

// CourierInstanceModel represents the couriers_instance_data table.
type CourierInstanceModel struct {
	ID         int64   `gorm:"column:id;primaryKey;autoIncrement"`
	InstanceID int     `gorm:"column:instance_id;index;not null"`
	CourierID  int64   `gorm:"column:courier_id;not null"`
	Vehicle    string  `gorm:"column:vehicle;not null"`
	OnLat      float64 `gorm:"column:on_lat;not null"`
	OnLng      float64 `gorm:"column:on_lng;not null"`
	OnTime     int64   `gorm:"column:on_time;index;not null"`
	OffTime    int64   `gorm:"column:off_time;not null"`
}

func (CourierInstanceModel) TableName() string {
	return "couriers_instance_data"
}

// RunModel represents the runs table: one row per completed simulation run.
type RunModel struct {
	RunID           string    `gorm:"column:run_id;primaryKey"`
	InstanceID      int       `gorm:"column:instance_id;not null"`
	StartedAt       time.Time `gorm:"column:started_at;not null"`
	FinishedAt      time.Time `gorm:"column:finished_at;not null"`
	SimulateFrom    int64     `gorm:"column:simulate_from;not null"`
	SimulateUntil   int64     `gorm:"column:simulate_until;not null"`
	Seed            int64     `gorm:"column:seed;not null"`
	Config          string    `gorm:"column:config;type:text"` // JSON echo of the run config
	OrdersPlaced    int       `gorm:"column:orders_placed;not null"`
	OrdersFulfilled int       `gorm:"column:orders_fulfilled;not null"`
	OrdersCanceled  int       `gorm:"column:orders_canceled;not null"`
	OrdersLost      int       `gorm:"column:orders_lost;not null"`
	Couriers        int       `gorm:"column:couriers;not null"`
}

func (RunModel) TableName() string {
	return "runs"
}

// CourierMetricModel represents the courier_metrics table.
type CourierMetricModel struct {
	ID                     int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunID                  string    `gorm:"column:run_id;index;not null"`
	Run                    *RunModel `gorm:"foreignKey:RunID;references:RunID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CourierID              int64     `gorm:"column:courier_id;not null"`
	OnTime                 int64     `gorm:"column:on_time;not null"`
	OffTime                int64     `gorm:"column:off_time;not null"`
	FulfilledOrders        int       `gorm:"column:fulfilled_orders;not null"`
	AcceptedNotifications  int       `gorm:"column:accepted_notifications;not null"`
	UtilizationTime        int64     `gorm:"column:utilization_time;not null"`
	Utilization            float64   `gorm:"column:utilization;not null"`
	Earnings               string    `gorm:"column:earnings;not null"` // decimal as string
	DeliveryEarnings       string    `gorm:"column:delivery_earnings;not null"`
	GuaranteedCompensation int       `gorm:"column:guaranteed_compensation;not null;default:0"` // 0 or 1 (SQLite compatible)
	OrdersDeliveredPerHour float64   `gorm:"column:orders_delivered_per_hour;not null"`
	BundlesPickedPerHour   float64   `gorm:"column:bundles_picked_per_hour;not null"`
}

func (CourierMetricModel) TableName() string {
	return "courier_metrics"
}

// OrderMetricModel represents the order_metrics table.
type OrderMetricModel struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunID            string    `gorm:"column:run_id;index;not null"`
	Run              *RunModel `gorm:"foreignKey:RunID;references:RunID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	OrderID          int64     `gorm:"column:order_id;not null"`
	Status           string    `gorm:"column:status;not null"`
	CourierID        int64     `gorm:"column:courier_id"`
	PlacementTime    int64     `gorm:"column:placement_time;not null"`
	AcceptanceTime   int64     `gorm:"column:acceptance_time"`
	InStoreTime      int64     `gorm:"column:in_store_time"`
	PickUpTime       int64     `gorm:"column:pick_up_time"`
	DropOffTime      int64     `gorm:"column:drop_off_time"`
	CancellationTime int64     `gorm:"column:cancellation_time"`
	ClickToDoor      int64     `gorm:"column:click_to_door"`
}

func (OrderMetricModel) TableName() string {
	return "order_metrics"
}

// AllModels lists every model for automigration.
func AllModels() []any {
	return []any{
		&OrderInstanceModel{},
		&CourierInstanceModel{},
		&RunModel{},
		&CourierMetricModel{},
		&OrderMetricModel{},
	}
}
