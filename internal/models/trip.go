package models

import (
	"time"
)

// Trip purposes.
const (
	TripPurposeBusiness = "business"
	TripPurposePrivate  = "private"
)

// Trip represents a logbook entry for one vehicle trip.
type Trip struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	VehicleID     string    `json:"vehicle_id" bson:"vehicle_id"`
	DriverID      string    `json:"driver_id" bson:"driver_id"`
	Date          time.Time `json:"date" bson:"date"`
	StartLocation string    `json:"start_location" bson:"start_location"`
	EndLocation   string    `json:"end_location" bson:"end_location"`
	OdometerStart float64   `json:"odometer_start" bson:"odometer_start"`
	OdometerEnd   float64   `json:"odometer_end" bson:"odometer_end"`
	Distance      *float64  `json:"distance,omitempty" bson:"distance,omitempty"` // in kilometers
	Purpose       string    `json:"purpose" bson:"purpose"`                       // "business" or "private"
	Notes         string    `json:"notes" bson:"notes"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// IsPrivate reports whether the trip is classified as private use.
// Anything not explicitly private is accounted as business.
func (t *Trip) IsPrivate() bool {
	return t.Purpose == TripPurposePrivate
}

// DistanceKm returns the trip distance, or 0 when it was not recorded.
func (t *Trip) DistanceKm() float64 {
	if t.Distance == nil {
		return 0
	}
	return *t.Distance
}
