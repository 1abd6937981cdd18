package models

import (
	"time"
)

// InventorySource identifies why a fuel inventory point was recorded.
type InventorySource string

const (
	InventorySourceInitial          InventorySource = "initial"
	InventorySourceFullTank         InventorySource = "full_tank"
	InventorySourceManualCorrection InventorySource = "manual_correction"
)

// IsValidInventorySource checks if a source is one of the known sources
func IsValidInventorySource(source InventorySource) bool {
	switch source {
	case InventorySourceInitial, InventorySourceFullTank, InventorySourceManualCorrection:
		return true
	default:
		return false
	}
}

// FuelInventory is a reference point: the amount of fuel known to be in the
// tank on a given day. Inventory points are append-only.
type FuelInventory struct {
	ID           string          `json:"id" bson:"_id,omitempty"`
	VehicleID    string          `json:"vehicle_id" bson:"vehicle_id"`
	Date         time.Time       `json:"date" bson:"date"`
	FuelAmount   float64         `json:"fuel_amount" bson:"fuel_amount"` // in liters
	Source       InventorySource `json:"source" bson:"source"`
	FuelRecordID string          `json:"fuel_record_id,omitempty" bson:"fuel_record_id,omitempty"`
	CreatedBy    string          `json:"created_by,omitempty" bson:"created_by,omitempty"`
	Notes        string          `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt    time.Time       `json:"created_at" bson:"created_at"`
}
