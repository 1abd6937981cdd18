package fuelstock

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-fuel/internal/db"
	"github.com/ukydev/fleet-fuel/internal/models"
)

// InventoryStore is the store access needed to record reference points.
type InventoryStore interface {
	GetVehicle(ctx context.Context, id string) (*models.Vehicle, error)
	InsertFuelInventory(ctx context.Context, inventory models.FuelInventory) (*models.FuelInventory, error)
}

// InventoryInput describes a new fuel inventory point.
type InventoryInput struct {
	VehicleID    string                 `json:"vehicle_id"`
	Date         time.Time              `json:"date"`
	FuelAmount   float64                `json:"fuel_amount"`
	Source       models.InventorySource `json:"source"`
	FuelRecordID string                 `json:"fuel_record_id,omitempty"`
	CreatedBy    string                 `json:"created_by,omitempty"`
	Notes        string                 `json:"notes,omitempty"`
}

// Writer records fuel inventory reference points.
type Writer struct {
	store    InventoryStore
	recorder Recorder
}

// NewWriter creates a Writer. A nil recorder disables reporting.
func NewWriter(store InventoryStore, recorder Recorder) *Writer {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Writer{store: store, recorder: recorder}
}

// CreateFuelInventory inserts one immutable inventory point. Only required
// fields are checked; amounts are not compared against the tank capacity.
func (w *Writer) CreateFuelInventory(ctx context.Context, in InventoryInput) (*models.FuelInventory, error) {
	switch {
	case in.VehicleID == "":
		return nil, fmt.Errorf("%w: vehicle_id is required", ErrInvalidInventory)
	case in.Date.IsZero():
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInventory)
	case !models.IsValidInventorySource(in.Source):
		return nil, fmt.Errorf("%w: unknown source %q", ErrInvalidInventory, in.Source)
	}

	inventory, err := w.store.InsertFuelInventory(ctx, models.FuelInventory{
		VehicleID:    in.VehicleID,
		Date:         db.Day(in.Date),
		FuelAmount:   in.FuelAmount,
		Source:       in.Source,
		FuelRecordID: in.FuelRecordID,
		CreatedBy:    in.CreatedBy,
		Notes:        in.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create fuel inventory for %s: %w", in.VehicleID, err)
	}
	w.recorder.InventoryCreated(inventory.Source)

	log.WithFields(log.Fields{
		"vehicle_id":  inventory.VehicleID,
		"date":        inventory.Date.Format("2006-01-02"),
		"fuel_amount": inventory.FuelAmount,
		"source":      inventory.Source,
	}).Info("Created fuel inventory point")
	return inventory, nil
}

// HandleFullTankRefuel records a full tank as a reference point equal to the
// vehicle's tank capacity, linked to the triggering fuel record.
func (w *Writer) HandleFullTankRefuel(ctx context.Context, vehicleID, fuelRecordID string, date time.Time) (*models.FuelInventory, error) {
	vehicle, err := w.store.GetVehicle(ctx, vehicleID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrVehicleNotFound, vehicleID)
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle %s: %w", vehicleID, err)
	}
	if !vehicle.HasTankCapacity() {
		return nil, fmt.Errorf("%w: %s", ErrTankCapacityUnknown, vehicleID)
	}

	return w.CreateFuelInventory(ctx, InventoryInput{
		VehicleID:    vehicleID,
		Date:         date,
		FuelAmount:   *vehicle.TankCapacity,
		Source:       models.InventorySourceFullTank,
		FuelRecordID: fuelRecordID,
		Notes:        "full tank refuel",
	})
}
