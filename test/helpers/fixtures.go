package helpers

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/andrescamacho/deliverysim-go/internal/adapters/persistence"
)

// QuietLogger returns a logger that discards everything; tests that care
// about output swap in their own.
func QuietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// LunchInstance is a small fixed instance around a lunch peak: orders placed
// a few minutes apart near one store, couriers on shift across the window.
// Placement and shift times are clock-of-day seconds (12:00:00 = 43200).
func LunchInstance(instanceID int) ([]persistence.OrderInstanceModel, []persistence.CourierInstanceModel) {
	orders := []persistence.OrderInstanceModel{
		{
			InstanceID: instanceID, OrderID: 1,
			PickUpLat: 52.5200, PickUpLng: 13.4000, DropOffLat: 52.5235, DropOffLng: 13.4040,
			PlacementTime: 43200, ReadyTime: 43500, PickUpServiceTime: 120, DropOffServiceTime: 60,
		},
		{
			InstanceID: instanceID, OrderID: 2,
			PickUpLat: 52.5200, PickUpLng: 13.4000, DropOffLat: 52.5170, DropOffLng: 13.3950,
			PlacementTime: 43380, ReadyTime: 43700, PickUpServiceTime: 120, DropOffServiceTime: 60,
		},
		{
			InstanceID: instanceID, OrderID: 3,
			PickUpLat: 52.5250, PickUpLng: 13.4090, DropOffLat: 52.5290, DropOffLng: 13.4150,
			PickUpLat2: 52.5205, PickUpLng2: 13.4005,
			PlacementTime: 43560, ReadyTime: 43900, PickUpServiceTime: 120, DropOffServiceTime: 60,
		},
	}

	couriers := []persistence.CourierInstanceModel{
		{
			InstanceID: instanceID, CourierID: 1, Vehicle: "car",
			OnLat: 52.5190, OnLng: 13.3990, OnTime: 43080, OffTime: 50400,
		},
		{
			InstanceID: instanceID, CourierID: 2, Vehicle: "bicycle",
			OnLat: 52.5260, OnLng: 13.4100, OnTime: 43140, OffTime: 50400,
		},
	}
	return orders, couriers
}
