package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ukydev/fleet-fuel/internal/models"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements FuelStore on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and migrates it.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// single writer avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// GetVehicle finds a vehicle by its ID.
func (s *SQLiteStore) GetVehicle(ctx context.Context, id string) (*models.Vehicle, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, license_plate, make, model, fuel_type, tank_capacity, rated_consumption,
		       initial_odometer, status, created_at
		FROM vehicles WHERE id = ?`, id)

	vehicle, err := scanVehicle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get vehicle %s: %w", id, err)
	}
	return vehicle, nil
}

// ListVehicles returns all vehicles ordered by creation time.
func (s *SQLiteStore) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, license_plate, make, model, fuel_type, tank_capacity, rated_consumption,
		       initial_odometer, status, created_at
		FROM vehicles ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, *vehicle)
	}
	return vehicles, rows.Err()
}

// GetLatestFuelInventory implements FuelInventoryStore; seq breaks same-day ties.
func (s *SQLiteStore) GetLatestFuelInventory(ctx context.Context, vehicleID string, onOrBefore time.Time) (*models.FuelInventory, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, vehicle_id, date, fuel_amount, source, fuel_record_id, created_by, notes, created_at
		FROM fuel_inventory
		WHERE vehicle_id = ? AND date <= ?
		ORDER BY date DESC, seq DESC
		LIMIT 1`, vehicleID, Day(onOrBefore).Format(dateLayout))

	var (
		inv       models.FuelInventory
		date      string
		source    string
		createdAt string
	)
	err := row.Scan(&inv.ID, &inv.VehicleID, &date, &inv.FuelAmount, &source,
		&inv.FuelRecordID, &inv.CreatedBy, &inv.Notes, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get latest fuel inventory for %s: %w", vehicleID, err)
	}
	if inv.Date, err = time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("parse inventory date %q: %w", date, err)
	}
	inv.Source = models.InventorySource(source)
	inv.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &inv, nil
}

// InsertFuelInventory inserts an inventory point.
func (s *SQLiteStore) InsertFuelInventory(ctx context.Context, inventory models.FuelInventory) (*models.FuelInventory, error) {
	if inventory.ID == "" {
		inventory.ID = uuid.NewString()
	}
	inventory.Date = Day(inventory.Date)
	inventory.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fuel_inventory (id, vehicle_id, date, fuel_amount, source, fuel_record_id, created_by, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inventory.ID, inventory.VehicleID, inventory.Date.Format(dateLayout), inventory.FuelAmount,
		string(inventory.Source), inventory.FuelRecordID, inventory.CreatedBy, inventory.Notes,
		inventory.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert fuel inventory: %w", err)
	}
	return &inventory, nil
}

// SumPurchasedLiters implements UsageReader.
func (s *SQLiteStore) SumPurchasedLiters(ctx context.Context, vehicleID string, after, through time.Time) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(liters), 0) FROM fuel_records
		WHERE vehicle_id = ? AND date > ? AND date <= ?`,
		vehicleID, Day(after).Format(dateLayout), Day(through).Format(dateLayout)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum purchased liters for %s: %w", vehicleID, err)
	}
	return total, nil
}

// SumDistance implements UsageReader.
func (s *SQLiteStore) SumDistance(ctx context.Context, vehicleID string, after, through time.Time) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(distance), 0) FROM trips
		WHERE vehicle_id = ? AND date > ? AND date <= ?`,
		vehicleID, Day(after).Format(dateLayout), Day(through).Format(dateLayout)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum distance for %s: %w", vehicleID, err)
	}
	return total, nil
}

// PurchasedLitersByCountry implements UsageReader.
func (s *SQLiteStore) PurchasedLitersByCountry(ctx context.Context, vehicleID string, after, through time.Time) (map[string]float64, error) {
	return s.groupedSum(ctx, `
		SELECT country, COALESCE(SUM(liters), 0) FROM fuel_records
		WHERE vehicle_id = ? AND date > ? AND date <= ?
		GROUP BY country`, vehicleID, after, through)
}

// DistanceByPurpose implements UsageReader.
func (s *SQLiteStore) DistanceByPurpose(ctx context.Context, vehicleID string, after, through time.Time) (map[string]float64, error) {
	return s.groupedSum(ctx, `
		SELECT purpose, COALESCE(SUM(distance), 0) FROM trips
		WHERE vehicle_id = ? AND date > ? AND date <= ?
		GROUP BY purpose`, vehicleID, after, through)
}

func (s *SQLiteStore) groupedSum(ctx context.Context, query, vehicleID string, after, through time.Time) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, query, vehicleID, Day(after).Format(dateLayout), Day(through).Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("grouped sum for %s: %w", vehicleID, err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var (
			key   string
			total float64
		)
		if err := rows.Scan(&key, &total); err != nil {
			return nil, fmt.Errorf("scan grouped sum: %w", err)
		}
		totals[key] += total
	}
	return totals, rows.Err()
}

// InsertVehicle inserts a vehicle, generating an ID when none is set.
func (s *SQLiteStore) InsertVehicle(ctx context.Context, vehicle models.Vehicle) (string, error) {
	if vehicle.ID == "" {
		vehicle.ID = uuid.NewString()
	}
	if vehicle.Status == "" {
		vehicle.Status = "active"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vehicles (id, license_plate, make, model, fuel_type, tank_capacity, rated_consumption,
		                      initial_odometer, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		vehicle.ID, vehicle.LicensePlate, vehicle.Make, vehicle.Model, vehicle.FuelType,
		nullFloat(vehicle.TankCapacity), nullFloat(vehicle.RatedConsumption),
		vehicle.InitialOdometer, vehicle.Status, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("insert vehicle: %w", err)
	}
	return vehicle.ID, nil
}

// InsertFuelRecord inserts a refueling record.
func (s *SQLiteStore) InsertFuelRecord(ctx context.Context, record models.FuelRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fuel_records (id, vehicle_id, driver_id, date, liters, country, price_per_liter,
		                          total_price, currency, odometer, full_tank, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.VehicleID, record.DriverID, Day(record.Date).Format(dateLayout), record.Liters,
		record.Country, record.PricePerLiter, record.TotalPrice, record.Currency, record.Odometer,
		record.FullTank, record.Notes, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("insert fuel record: %w", err)
	}
	return record.ID, nil
}

// InsertTrip inserts a trip.
func (s *SQLiteStore) InsertTrip(ctx context.Context, trip models.Trip) (string, error) {
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	if trip.Purpose == "" {
		trip.Purpose = models.TripPurposeBusiness
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trips (id, vehicle_id, driver_id, date, start_location, end_location, odometer_start,
		                   odometer_end, distance, purpose, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trip.ID, trip.VehicleID, trip.DriverID, Day(trip.Date).Format(dateLayout), trip.StartLocation,
		trip.EndLocation, trip.OdometerStart, trip.OdometerEnd, nullFloat(trip.Distance), trip.Purpose,
		trip.Notes, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("insert trip: %w", err)
	}
	return trip.ID, nil
}

// Close closes the database.
func (s *SQLiteStore) Close(ctx context.Context) error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (*models.Vehicle, error) {
	var (
		v                      models.Vehicle
		tankCapacity, consumed sql.NullFloat64
		createdAt              string
	)
	err := row.Scan(&v.ID, &v.LicensePlate, &v.Make, &v.Model, &v.FuelType, &tankCapacity, &consumed,
		&v.InitialOdometer, &v.Status, &createdAt)
	if err != nil {
		return nil, err
	}
	if tankCapacity.Valid {
		v.TankCapacity = &tankCapacity.Float64
	}
	if consumed.Valid {
		v.RatedConsumption = &consumed.Float64
	}
	v.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &v, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
