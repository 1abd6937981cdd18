package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/fleet-fuel/internal/models"
)

// ErrNotFound is returned by single-row lookups when no row matches.
// Any other error means the query itself failed.
var ErrNotFound = errors.New("not found")

// VehicleReader defines read access to fleet vehicles.
type VehicleReader interface {
	GetVehicle(ctx context.Context, id string) (*models.Vehicle, error)
	ListVehicles(ctx context.Context) ([]models.Vehicle, error)
}

// FuelInventoryStore defines access to the append-only fuel inventory ledger.
type FuelInventoryStore interface {
	// GetLatestFuelInventory returns the latest inventory point dated on or
	// before the given day. When several points share that date the most
	// recently inserted one wins.
	GetLatestFuelInventory(ctx context.Context, vehicleID string, onOrBefore time.Time) (*models.FuelInventory, error)
	InsertFuelInventory(ctx context.Context, inventory models.FuelInventory) (*models.FuelInventory, error)
}

// UsageReader aggregates purchases and trips. All ranges are day based:
// records dated strictly after `after` and on or before `through`.
type UsageReader interface {
	SumPurchasedLiters(ctx context.Context, vehicleID string, after, through time.Time) (float64, error)
	SumDistance(ctx context.Context, vehicleID string, after, through time.Time) (float64, error)
	PurchasedLitersByCountry(ctx context.Context, vehicleID string, after, through time.Time) (map[string]float64, error)
	DistanceByPurpose(ctx context.Context, vehicleID string, after, through time.Time) (map[string]float64, error)
}

// FleetWriter defines the collaborator-side inserts of vehicles, purchases and trips.
type FleetWriter interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) (string, error)
	InsertFuelRecord(ctx context.Context, record models.FuelRecord) (string, error)
	InsertTrip(ctx context.Context, trip models.Trip) (string, error)
}

// FuelStore is the complete backing store of the fuel-stock engine.
type FuelStore interface {
	VehicleReader
	FuelInventoryStore
	UsageReader
	FleetWriter
	Close(ctx context.Context) error
}
