package shared

import "fmt"

// Vehicle is the transport a courier rides. Each kind carries an average
// velocity in meters per simulated second; movement and matching estimates
// divide distances by it.
type Vehicle string

const (
	VehicleWalker     Vehicle = "walker"
	VehicleBicycle    Vehicle = "bicycle"
	VehicleMotorcycle Vehicle = "motorcycle"
	VehicleCar        Vehicle = "car"
)

// AverageVelocity returns the vehicle's cruising speed in meters per second.
func (v Vehicle) AverageVelocity() float64 {
	switch v {
	case VehicleWalker:
		return 1.4
	case VehicleBicycle:
		return 4.0
	case VehicleMotorcycle:
		return 7.0
	case VehicleCar:
		return 8.5
	default:
		return VehicleMotorcycle.AverageVelocity()
	}
}

// ParseVehicle maps an instance-data label onto a vehicle kind.
func ParseVehicle(label string) (Vehicle, error) {
	switch Vehicle(label) {
	case VehicleWalker, VehicleBicycle, VehicleMotorcycle, VehicleCar:
		return Vehicle(label), nil
	default:
		return "", fmt.Errorf("unknown vehicle %q", label)
	}
}
