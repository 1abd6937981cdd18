package models

import (
	"time"
)

// Vehicle represents a fleet vehicle as seen by the fuel-stock engine.
type Vehicle struct {
	ID               string    `bson:"_id,omitempty" json:"id"`
	LicensePlate     string    `bson:"license_plate" json:"license_plate"`
	Make             string    `bson:"make" json:"make"`
	Model            string    `bson:"model" json:"model"`
	FuelType         string    `bson:"fuel_type" json:"fuel_type"`                                     // "diesel", "petrol", "lpg"
	TankCapacity     *float64  `bson:"tank_capacity,omitempty" json:"tank_capacity,omitempty"`         // in liters
	RatedConsumption *float64  `bson:"rated_consumption,omitempty" json:"rated_consumption,omitempty"` // liters per 100 km
	InitialOdometer  float64   `bson:"initial_odometer" json:"initial_odometer"`                       // in kilometers
	Status           string    `bson:"status" json:"status"`                                           // "active" or "inactive"
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
}

// HasTankCapacity reports whether a positive tank capacity is known.
func (v *Vehicle) HasTankCapacity() bool {
	return v.TankCapacity != nil && *v.TankCapacity > 0
}

// HasRatedConsumption reports whether a positive rated consumption is known.
func (v *Vehicle) HasRatedConsumption() bool {
	return v.RatedConsumption != nil && *v.RatedConsumption > 0
}
