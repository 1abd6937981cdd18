package models

import (
	"time"
)

// FuelRecord represents a single refueling event.
type FuelRecord struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	VehicleID     string    `json:"vehicle_id" bson:"vehicle_id"`
	DriverID      string    `json:"driver_id" bson:"driver_id"`
	Date          time.Time `json:"date" bson:"date"`
	Liters        float64   `json:"liters" bson:"liters"`
	Country       string    `json:"country" bson:"country"` // ISO 3166 region, e.g. "CZ"
	PricePerLiter float64   `json:"price_per_liter" bson:"price_per_liter"`
	TotalPrice    float64   `json:"total_price" bson:"total_price"`
	Currency      string    `json:"currency" bson:"currency"`
	Odometer      float64   `json:"odometer" bson:"odometer"`
	FullTank      bool      `json:"full_tank" bson:"full_tank"`
	Notes         string    `json:"notes" bson:"notes"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}
