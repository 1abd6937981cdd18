package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ukydev/fleet-fuel/internal/models"
)

// MemoryStore is an in-process FuelStore used by tests and the "memory" backend.
type MemoryStore struct {
	mu          sync.RWMutex
	vehicles    map[string]models.Vehicle
	vehicleIDs  []string
	fuelRecords []models.FuelRecord
	trips       []models.Trip
	inventory   []models.FuelInventory
	now         func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vehicles: make(map[string]models.Vehicle),
		now:      time.Now,
	}
}

// GetVehicle returns the vehicle with the given ID or ErrNotFound.
func (s *MemoryStore) GetVehicle(ctx context.Context, id string) (*models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vehicle, ok := s.vehicles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &vehicle, nil
}

// ListVehicles returns all vehicles in insertion order.
func (s *MemoryStore) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vehicles := make([]models.Vehicle, 0, len(s.vehicleIDs))
	for _, id := range s.vehicleIDs {
		vehicles = append(vehicles, s.vehicles[id])
	}
	return vehicles, nil
}

// GetLatestFuelInventory implements FuelInventoryStore.
func (s *MemoryStore) GetLatestFuelInventory(ctx context.Context, vehicleID string, onOrBefore time.Time) (*models.FuelInventory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := Day(onOrBefore)
	var latest *models.FuelInventory
	for i := range s.inventory {
		inv := s.inventory[i]
		if inv.VehicleID != vehicleID || inv.Date.After(limit) {
			continue
		}
		// later insertions win ties on the same date
		if latest == nil || !inv.Date.Before(latest.Date) {
			latest = &inv
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

// InsertFuelInventory appends an inventory point.
func (s *MemoryStore) InsertFuelInventory(ctx context.Context, inventory models.FuelInventory) (*models.FuelInventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inventory.ID == "" {
		inventory.ID = uuid.NewString()
	}
	inventory.Date = Day(inventory.Date)
	inventory.CreatedAt = s.now()
	s.inventory = append(s.inventory, inventory)
	return &inventory, nil
}

// SumPurchasedLiters implements UsageReader.
func (s *MemoryStore) SumPurchasedLiters(ctx context.Context, vehicleID string, after, through time.Time) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, until := dayWindow(after, through)
	var total float64
	for _, r := range s.fuelRecords {
		if r.VehicleID == vehicleID && inWindow(r.Date, from, until) {
			total += r.Liters
		}
	}
	return total, nil
}

// SumDistance implements UsageReader.
func (s *MemoryStore) SumDistance(ctx context.Context, vehicleID string, after, through time.Time) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, until := dayWindow(after, through)
	var total float64
	for _, t := range s.trips {
		if t.VehicleID == vehicleID && inWindow(t.Date, from, until) {
			total += t.DistanceKm()
		}
	}
	return total, nil
}

// PurchasedLitersByCountry implements UsageReader.
func (s *MemoryStore) PurchasedLitersByCountry(ctx context.Context, vehicleID string, after, through time.Time) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, until := dayWindow(after, through)
	result := make(map[string]float64)
	for _, r := range s.fuelRecords {
		if r.VehicleID == vehicleID && inWindow(r.Date, from, until) {
			result[r.Country] += r.Liters
		}
	}
	return result, nil
}

// DistanceByPurpose implements UsageReader.
func (s *MemoryStore) DistanceByPurpose(ctx context.Context, vehicleID string, after, through time.Time) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, until := dayWindow(after, through)
	result := make(map[string]float64)
	for _, t := range s.trips {
		if t.VehicleID == vehicleID && inWindow(t.Date, from, until) {
			result[t.Purpose] += t.DistanceKm()
		}
	}
	return result, nil
}

// InsertVehicle stores a vehicle, generating an ID when none is set.
func (s *MemoryStore) InsertVehicle(ctx context.Context, vehicle models.Vehicle) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vehicle.ID == "" {
		vehicle.ID = uuid.NewString()
	}
	if _, exists := s.vehicles[vehicle.ID]; exists {
		return "", fmt.Errorf("vehicle %s already exists", vehicle.ID)
	}
	vehicle.CreatedAt = s.now()
	s.vehicles[vehicle.ID] = vehicle
	s.vehicleIDs = append(s.vehicleIDs, vehicle.ID)
	return vehicle.ID, nil
}

// InsertFuelRecord stores a refueling record.
func (s *MemoryStore) InsertFuelRecord(ctx context.Context, record models.FuelRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.Date = Day(record.Date)
	record.CreatedAt = s.now()
	s.fuelRecords = append(s.fuelRecords, record)
	return record.ID, nil
}

// InsertTrip stores a trip.
func (s *MemoryStore) InsertTrip(ctx context.Context, trip models.Trip) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	trip.Date = Day(trip.Date)
	trip.CreatedAt = s.now()
	s.trips = append(s.trips, trip)
	return trip.ID, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

func inWindow(t, from, until time.Time) bool {
	return !t.Before(from) && t.Before(until)
}
