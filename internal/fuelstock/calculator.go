// Package fuelstock estimates the fuel physically present in a vehicle tank
// from fuel inventory reference points, later purchases and driven distance.
package fuelstock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-fuel/internal/db"
	"github.com/ukydev/fleet-fuel/internal/models"
	"golang.org/x/text/language"
)

// Source is the read side of the backing store used by the calculator.
type Source interface {
	GetVehicle(ctx context.Context, id string) (*models.Vehicle, error)
	GetLatestFuelInventory(ctx context.Context, vehicleID string, onOrBefore time.Time) (*models.FuelInventory, error)
	SumPurchasedLiters(ctx context.Context, vehicleID string, after, through time.Time) (float64, error)
	SumDistance(ctx context.Context, vehicleID string, after, through time.Time) (float64, error)
	PurchasedLitersByCountry(ctx context.Context, vehicleID string, after, through time.Time) (map[string]float64, error)
	DistanceByPurpose(ctx context.Context, vehicleID string, after, through time.Time) (map[string]float64, error)
}

// Recorder receives calculation outcomes, typically for metrics.
type Recorder interface {
	CalculationCompleted(kind string, estimate bool, warnings int)
	InventoryCreated(source models.InventorySource)
}

// Calculation kinds reported to the Recorder.
const (
	KindFuelStock = "fuel_stock"
	KindMonthly   = "monthly"
)

// DefaultHomeCountry is the region whose purchases count as domestic.
const DefaultHomeCountry = "CZ"

type nopRecorder struct{}

func (nopRecorder) CalculationCompleted(string, bool, int)  {}
func (nopRecorder) InventoryCreated(models.InventorySource) {}

// Calculator computes fuel stocks and monthly fuel reports. It holds no
// mutable state; every call re-reads the store.
type Calculator struct {
	store    Source
	home     language.Region
	recorder Recorder
}

// Option configures a Calculator.
type Option func(*Calculator) error

// WithHomeCountry sets the ISO 3166 region treated as domestic.
func WithHomeCountry(code string) Option {
	return func(c *Calculator) error {
		region, err := language.ParseRegion(strings.TrimSpace(code))
		if err != nil {
			return fmt.Errorf("invalid home country %q: %w", code, err)
		}
		c.home = region.Canonicalize()
		return nil
	}
}

// WithRecorder reports calculation outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(c *Calculator) error {
		if r != nil {
			c.recorder = r
		}
		return nil
	}
}

// NewCalculator creates a calculator reading from store.
func NewCalculator(store Source, opts ...Option) (*Calculator, error) {
	c := &Calculator{
		store:    store,
		home:     language.MustParseRegion(DefaultHomeCountry),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// CalculateFuelStock returns the fuel in the tank of vehicleID at the end of
// targetDate. Missing data degrades to an estimate carrying a warning; only
// store failures are returned as errors.
func (c *Calculator) CalculateFuelStock(ctx context.Context, vehicleID string, targetDate time.Time) (*models.FuelStockResult, error) {
	target := db.Day(targetDate)

	vehicle, err := c.store.GetVehicle(ctx, vehicleID)
	if errors.Is(err, db.ErrNotFound) {
		result := &models.FuelStockResult{
			VehicleID:  vehicleID,
			Date:       target,
			IsEstimate: true,
			Warning:    WarningVehicleNotFound,
		}
		c.recorder.CalculationCompleted(KindFuelStock, true, 1)
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle %s: %w", vehicleID, err)
	}

	result, err := c.stockForVehicle(ctx, vehicle, target)
	if err != nil {
		return nil, err
	}
	warnings := 0
	if result.Warning != "" {
		warnings = 1
	}
	c.recorder.CalculationCompleted(KindFuelStock, result.IsEstimate, warnings)
	return result, nil
}

func (c *Calculator) stockForVehicle(ctx context.Context, vehicle *models.Vehicle, target time.Time) (*models.FuelStockResult, error) {
	result := &models.FuelStockResult{
		VehicleID: vehicle.ID,
		Date:      target,
	}

	inventory, err := c.store.GetLatestFuelInventory(ctx, vehicle.ID, target)
	if errors.Is(err, db.ErrNotFound) {
		result.IsEstimate = true
		result.Warning = WarningMissingReferencePoint
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reference point for %s: %w", vehicle.ID, err)
	}

	// purchases and trips on the reference day are already part of the
	// reference amount
	purchased, err := c.store.SumPurchasedLiters(ctx, vehicle.ID, inventory.Date, target)
	if err != nil {
		return nil, fmt.Errorf("sum purchases for %s: %w", vehicle.ID, err)
	}
	distance, err := c.store.SumDistance(ctx, vehicle.ID, inventory.Date, target)
	if err != nil {
		return nil, fmt.Errorf("sum distance for %s: %w", vehicle.ID, err)
	}

	consumed, warning := ConsumedLiters(distance, vehicle.RatedConsumption, SafetyCoefficient)
	raw := inventory.FuelAmount + purchased - consumed

	stock := raw
	if stock < 0 {
		stock = 0
	}
	if vehicle.HasTankCapacity() && stock > *vehicle.TankCapacity {
		stock = *vehicle.TankCapacity
	}

	referenceDate := inventory.Date
	result.FuelStock = round2(stock)
	result.RawFuelStock = round2(raw)
	result.ReferenceDate = &referenceDate
	result.ReferenceSource = inventory.Source
	result.PurchasedLiters = round2(purchased)
	result.DistanceKm = round2(distance)
	result.ConsumedLiters = round2(consumed)
	result.Warning = warning

	log.WithFields(log.Fields{
		"vehicle_id":     vehicle.ID,
		"date":           target.Format("2006-01-02"),
		"reference_date": referenceDate.Format("2006-01-02"),
		"fuel_stock":     result.FuelStock,
		"raw_fuel_stock": result.RawFuelStock,
	}).Debug("Calculated fuel stock")

	return result, nil
}

// isDomestic reports whether a purchase country matches the home region.
// Purchases without a country are counted as domestic.
func (c *Calculator) isDomestic(country string) bool {
	country = strings.TrimSpace(country)
	if country == "" {
		return true
	}
	region, err := language.ParseRegion(country)
	if err != nil {
		return strings.EqualFold(country, c.home.String())
	}
	return region.Canonicalize() == c.home
}
