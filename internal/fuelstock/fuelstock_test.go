package fuelstock

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-fuel/internal/db"
	"github.com/ukydev/fleet-fuel/internal/models"
)

const vehicleID = "vehicle-1"

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(v float64) *float64 { return &v }

type fixture struct {
	t     *testing.T
	store *db.MemoryStore
	calc  *Calculator
}

func newFixture(t *testing.T, tankCapacity, ratedConsumption *float64, opts ...Option) *fixture {
	t.Helper()
	store := db.NewMemoryStore()
	_, err := store.InsertVehicle(context.Background(), models.Vehicle{
		ID:               vehicleID,
		LicensePlate:     "1AB 2345",
		TankCapacity:     tankCapacity,
		RatedConsumption: ratedConsumption,
		Status:           "active",
	})
	require.NoError(t, err)
	calc, err := NewCalculator(store, opts...)
	require.NoError(t, err)
	return &fixture{t: t, store: store, calc: calc}
}

func (f *fixture) inventory(date string, amount float64, source models.InventorySource) {
	f.t.Helper()
	_, err := f.store.InsertFuelInventory(context.Background(), models.FuelInventory{
		VehicleID: vehicleID, Date: day(date), FuelAmount: amount, Source: source,
	})
	require.NoError(f.t, err)
}

func (f *fixture) purchase(date string, liters float64, country string) {
	f.t.Helper()
	_, err := f.store.InsertFuelRecord(context.Background(), models.FuelRecord{
		VehicleID: vehicleID, Date: day(date), Liters: liters, Country: country,
	})
	require.NoError(f.t, err)
}

func (f *fixture) trip(date string, km float64, purpose string) {
	f.t.Helper()
	_, err := f.store.InsertTrip(context.Background(), models.Trip{
		VehicleID: vehicleID, Date: day(date), Distance: ptr(km), Purpose: purpose,
	})
	require.NoError(f.t, err)
}

func TestConsumedLiters(t *testing.T) {
	tests := []struct {
		name        string
		distance    float64
		rated       *float64
		coefficient float64
		want        float64
		wantWarning bool
	}{
		{"rated with safety margin", 300, ptr(8), SafetyCoefficient, 28.8, false},
		{"rated without margin", 300, ptr(8), 1, 24, false},
		{"missing rating", 500, nil, SafetyCoefficient, 0, true},
		{"zero rating", 500, ptr(0), SafetyCoefficient, 0, true},
		{"no distance", 0, ptr(8), SafetyCoefficient, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warning := ConsumedLiters(tt.distance, tt.rated, tt.coefficient)
			assert.InDelta(t, tt.want, got, 1e-9)
			if tt.wantWarning {
				assert.Equal(t, WarningMissingRatedConsumption, warning)
			} else {
				assert.Empty(t, warning)
			}
		})
	}
}

func TestCalculateFuelStock_SimpleBalance(t *testing.T) {
	f := newFixture(t, ptr(60), ptr(8))
	f.inventory("2024-01-01", 60, models.InventorySourceFullTank)
	f.purchase("2024-01-01", 45, "CZ") // the full-tank purchase behind the snapshot
	f.purchase("2024-01-10", 20, "CZ")
	f.trip("2024-01-05", 100, models.TripPurposeBusiness)
	f.trip("2024-01-12", 150, models.TripPurposeBusiness)
	f.trip("2024-01-20", 50, models.TripPurposePrivate)

	result, err := f.calc.CalculateFuelStock(context.Background(), vehicleID, day("2024-01-20"))
	require.NoError(t, err)

	assert.False(t, result.IsEstimate)
	assert.Equal(t, 51.2, result.FuelStock)
	assert.Equal(t, 20.0, result.PurchasedLiters)
	assert.Equal(t, 300.0, result.DistanceKm)
	assert.Equal(t, 28.8, result.ConsumedLiters)
	require.NotNil(t, result.ReferenceDate)
	assert.True(t, day("2024-01-01").Equal(*result.ReferenceDate))
	assert.Equal(t, models.InventorySourceFullTank, result.ReferenceSource)
	assert.Empty(t, result.Warning)
}

func TestCalculateFuelStock_SnapshotDayIsNotCountedTwice(t *testing.T) {
	f := newFixture(t, ptr(60), ptr(8))
	f.purchase("2024-03-04", 38.5, "CZ")
	f.inventory("2024-03-04", 60, models.InventorySourceFullTank)

	for _, target := range []string{"2024-03-04", "2024-03-10"} {
		result, err := f.calc.CalculateFuelStock(context.Background(), vehicleID, day(target))
		require.NoError(t, err)
		assert.Equal(t, 60.0, result.FuelStock, target)
		assert.Zero(t, result.PurchasedLiters, target)
	}
}

func TestCalculateFuelStock_ClampToZero(t *testing.T) {
	f := newFixture(t, ptr(60), ptr(8))
	f.inventory("2024-01-01", 60, models.InventorySourceFullTank)
	f.trip("2024-01-15", 1000, models.TripPurposeBusiness)

	result, err := f.calc.CalculateFuelStock(context.Background(), vehicleID, day("2024-01-31"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.FuelStock)
	assert.Equal(t, -36.0, result.RawFuelStock)
	assert.False(t, result.IsEstimate)
}

func TestCalculateFuelStock_ClampToTankCapacity(t *testing.T) {
	f := newFixture(t, ptr(60), ptr(8))
	f.inventory("2024-01-01", 50, models.InventorySourceManualCorrection)
	f.purchase("2024-01-02", 30, "CZ")

	result, err := f.calc.CalculateFuelStock(context.Background(), vehicleID, day("2024-01-03"))
	require.NoError(t, err)
	assert.Equal(t, 60.0, result.FuelStock)
	assert.Equal(t, 80.0, result.RawFuelStock)
}

func TestCalculateFuelStock_UnknownCapacityIsNotCapped(t *testing.T) {
	f := newFixture(t, nil, ptr(8))
	f.inventory("2024-01-01", 50, models.InventorySourceInitial)
	f.purchase("2024-01-02", 30, "CZ")

	result, err := f.calc.CalculateFuelStock(context.Background(), vehicleID, day("2024-01-03"))
	require.NoError(t, err)
	assert.Equal(t, 80.0, result.FuelStock)
}

func TestCalculateFuelStock_MissingRatedConsumption(t *testing.T) {
	f := newFixture(t, ptr(60), nil)
	f.inventory("2024-01-01", 40, models.InventorySourceInitial)
	f.trip("2024-01-10", 500, models.TripPurposeBusiness)

	result, err := f.calc.CalculateFuelStock(context.Background(), vehicleID, day("2024-01-31"))
	require.NoError(t, err)
	assert.Equal(t, 40.0, result.FuelStock)
	assert.False(t, result.IsEstimate)
	assert.Contains(t, result.Warning, "rated consumption")
}

func TestCalculateFuelStock_NoReferencePoint(t *testing.T) {
	f := newFixture(t, ptr(60), ptr(8))
	f.inventory("2024-02-01", 60, models.InventorySourceInitial)
	f.purchase("2024-01-10", 20, "CZ")

	result, err := f.calc.CalculateFuelStock(context.Background(), vehicleID, day("2024-01-31"))
	require.NoError(t, err)
	assert.True(t, result.IsEstimate)
	assert.Zero(t, result.FuelStock)
	assert.Nil(t, result.ReferenceDate)
	assert.Equal(t, WarningMissingReferencePoint, result.Warning)
}

func TestCalculateFuelStock_VehicleNotFound(t *testing.T) {
	f := newFixture(t, ptr(60), ptr(8))

	result, err := f.calc.CalculateFuelStock(context.Background(), "unknown", day("2024-01-31"))
	require.NoError(t, err)
	assert.True(t, result.IsEstimate)
	assert.Zero(t, result.FuelStock)
	assert.Equal(t, WarningVehicleNotFound, result.Warning)
}

func TestCalculateFuelStock_NeverNegativeNorAboveCapacity(t *testing.T) {
	for _, km := range []float64{0, 10, 500, 10000, 1e7} {
		for _, amount := range []float64{0, 30, 60, 500} {
			f := newFixture(t, ptr(60), ptr(8))
			f.inventory("2024-01-01", amount, models.InventorySourceManualCorrection)
			f.purchase("2024-01-03", 25, "CZ")
			f.trip("2024-01-02", km, models.TripPurposeBusiness)

			result, err := f.calc.CalculateFuelStock(context.Background(), vehicleID, day("2024-01-05"))
			require.NoError(t, err)
			assert.GreaterOrEqual(t, result.FuelStock, 0.0)
			assert.LessOrEqual(t, result.FuelStock, 60.0)
		}
	}
}

type failingStore struct {
	*db.MemoryStore
	err error
}

func (s *failingStore) GetLatestFuelInventory(ctx context.Context, vehicleID string, onOrBefore time.Time) (*models.FuelInventory, error) {
	return nil, s.err
}

func TestCalculateFuelStock_StoreFailurePropagates(t *testing.T) {
	f := newFixture(t, ptr(60), ptr(8))
	storeErr := errors.New("connection reset")
	calc, err := NewCalculator(&failingStore{MemoryStore: f.store, err: storeErr})
	require.NoError(t, err)

	_, err = calc.CalculateFuelStock(context.Background(), vehicleID, day("2024-01-31"))
	assert.ErrorIs(t, err, storeErr)

	_, err = calc.CalculateMonthlyFuelStocks(context.Background(), vehicleID, 2024, 1)
	assert.ErrorIs(t, err, storeErr)
}

func TestMonthPeriod(t *testing.T) {
	tests := []struct {
		year, month    int
		start, end     string
		dayBeforeStart string
	}{
		{2024, 2, "2024-02-01", "2024-02-29", "2024-01-31"},
		{2023, 2, "2023-02-01", "2023-02-28", "2023-01-31"},
		{2024, 1, "2024-01-01", "2024-01-31", "2023-12-31"},
		{2024, 4, "2024-04-01", "2024-04-30", "2024-03-31"},
		{2024, 12, "2024-12-01", "2024-12-31", "2024-11-30"},
	}
	for _, tt := range tests {
		period, err := MonthPeriod(tt.year, tt.month)
		require.NoError(t, err)
		assert.Equal(t, day(tt.start), period.StartDate)
		assert.Equal(t, day(tt.end), period.EndDate)
		assert.Equal(t, day(tt.dayBeforeStart), period.DayBeforeStart)
	}

	for _, bad := range [][2]int{{2024, 0}, {2024, 13}, {0, 5}} {
		_, err := MonthPeriod(bad[0], bad[1])
		assert.ErrorIs(t, err, ErrInvalidPeriod)
	}
}

func TestPreviousMonth(t *testing.T) {
	year, month := PreviousMonth(time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC))
	assert.Equal(t, 2023, year)
	assert.Equal(t, 12, month)

	year, month = PreviousMonth(time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, 2024, year)
	assert.Equal(t, 2, month)
}

func TestCalculateMonthlyFuelStocks_FullReport(t *testing.T) {
	f := newFixture(t, ptr(60), ptr(8))
	f.inventory("2023-12-31", 60, models.InventorySourceInitial)
	f.purchase("2024-01-10", 20, "CZ")
	f.trip("2024-01-05", 100, models.TripPurposeBusiness)
	f.trip("2024-01-12", 150, models.TripPurposeBusiness)
	f.trip("2024-01-20", 50, models.TripPurposePrivate)

	calc, err := f.calc.CalculateMonthlyFuelStocks(context.Background(), vehicleID, 2024, 1)
	require.NoError(t, err)

	assert.Empty(t, calc.Error)
	assert.True(t, calc.HasReferencePoint)
	assert.False(t, calc.IsEstimate)
	assert.Equal(t, 60.0, calc.InitialFuelStock)
	assert.Equal(t, 51.2, calc.FinalFuelStock)
	assert.Equal(t, 20.0, calc.TotalRefueled)
	assert.Equal(t, 20.0, calc.RefueledDomestic)
	assert.Zero(t, calc.RefueledForeign)
	assert.Equal(t, 300.0, calc.TotalKm)
	assert.Equal(t, 250.0, calc.BusinessKm)
	assert.Equal(t, 50.0, calc.PrivateKm)
	assert.Equal(t, 24.0, calc.RatedConsumptionLiters)
	assert.Equal(t, 28.8, calc.ActualConsumptionLiters)
	assert.Equal(t, 9.6, calc.ActualConsumptionPer100Km)
	assert.Equal(t, models.InventorySourceInitial, calc.ReferenceSource)
	assert.Empty(t, calc.Warnings)
	require.NotNil(t, calc.Opening)
	require.NotNil(t, calc.Closing)
}

func TestCalculateMonthlyFuelStocks_NegativeClosingWarning(t *testing.T) {
	f := newFixture(t, ptr(60), ptr(8))
	f.inventory("2023-12-15", 60, models.InventorySourceFullTank)
	f.trip("2024-01-15", 1000, models.TripPurposeBusiness)

	calc, err := f.calc.CalculateMonthlyFuelStocks(context.Background(), vehicleID, 2024, 1)
	require.NoError(t, err)

	assert.Equal(t, 60.0, calc.InitialFuelStock)
	assert.Equal(t, 0.0, calc.FinalFuelStock)
	assert.False(t, calc.IsEstimate)
	require.Len(t, calc.Warnings, 1)
	assert.True(t, strings.HasPrefix(calc.Warnings[0], "calculated closing stock was negative (-36.00 l)"), calc.Warnings[0])
}

func TestCalculateMonthlyFuelStocks_NoReferencePoint(t *testing.T) {
	f := newFixture(t, ptr(60), ptr(8))
	f.purchase("2024-01-10", 20, "CZ")
	f.trip("2024-01-12", 120, models.TripPurposeBusiness)

	calc, err := f.calc.CalculateMonthlyFuelStocks(context.Background(), vehicleID, 2024, 1)
	require.NoError(t, err)

	assert.False(t, calc.HasReferencePoint)
	assert.True(t, calc.IsEstimate)
	assert.Zero(t, calc.InitialFuelStock)
	assert.Zero(t, calc.FinalFuelStock)
	assert.Contains(t, calc.Warnings, WarningNoReferenceForReport)
	assert.Empty(t, calc.Error)
}

func TestCalculateMonthlyFuelStocks_ReferenceInsideMonth(t *testing.T) {
	f := newFixture(t, ptr(60), ptr(8))
	f.inventory("2024-01-10", 40, models.InventorySourceInitial)

	calc, err := f.calc.CalculateMonthlyFuelStocks(context.Background(), vehicleID, 2024, 1)
	require.NoError(t, err)

	assert.True(t, calc.HasReferencePoint)
	assert.True(t, calc.IsEstimate)
	assert.Zero(t, calc.InitialFuelStock)
	assert.Equal(t, 40.0, calc.FinalFuelStock)
	assert.Contains(t, calc.Warnings, WarningOpeningEstimated)
}

func TestCalculateMonthlyFuelStocks_MissingVehicleData(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.inventory("2023-12-31", 40, models.InventorySourceInitial)
	f.trip("2024-01-05", 500, models.TripPurposeBusiness)

	calc, err := f.calc.CalculateMonthlyFuelStocks(context.Background(), vehicleID, 2024, 1)
	require.NoError(t, err)

	assert.Equal(t, 40.0, calc.FinalFuelStock)
	assert.Equal(t, []string{WarningMissingTankCapacity, WarningMissingRatedConsumption}, calc.Warnings)
}

func TestCalculateMonthlyFuelStocks_VehicleNotFound(t *testing.T) {
	f := newFixture(t, ptr(60), ptr(8))

	calc, err := f.calc.CalculateMonthlyFuelStocks(context.Background(), "unknown", 2024, 1)
	require.NoError(t, err)
	assert.Equal(t, ErrVehicleNotFound.Error(), calc.Error)
	assert.Empty(t, calc.Warnings)
	assert.Zero(t, calc.InitialFuelStock)
	assert.Zero(t, calc.FinalFuelStock)
}

func TestCalculateMonthlyFuelStocks_LeapYearFebruary(t *testing.T) {
	f := newFixture(t, ptr(60), ptr(8))
	f.inventory("2024-01-31", 60, models.InventorySourceInitial)
	f.trip("2024-02-29", 100, models.TripPurposeBusiness)
	f.trip("2024-03-01", 400, models.TripPurposeBusiness)

	calc, err := f.calc.CalculateMonthlyFuelStocks(context.Background(), vehicleID, 2024, 2)
	require.NoError(t, err)
	assert.Equal(t, day("2024-02-29"), calc.Period.EndDate)
	assert.Equal(t, 100.0, calc.TotalKm)
	assert.Equal(t, 50.4, calc.FinalFuelStock)
}

func TestCalculateMonthlyFuelStocks_InvalidMonth(t *testing.T) {
	f := newFixture(t, ptr(60), ptr(8))
	_, err := f.calc.CalculateMonthlyFuelStocks(context.Background(), vehicleID, 2024, 13)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestCalculateMonthlyFuelStocks_DomesticForeignSplit(t *testing.T) {
	f := newFixture(t, nil, ptr(8), WithHomeCountry("cz"))
	f.inventory("2023-12-31", 10, models.InventorySourceInitial)
	f.purchase("2024-01-03", 20, "CZ")
	f.purchase("2024-01-04", 10, "cze")
	f.purchase("2024-01-05", 5, "")
	f.purchase("2024-01-06", 30, "DE")
	f.purchase("2024-01-07", 12.5, "at")

	calc, err := f.calc.CalculateMonthlyFuelStocks(context.Background(), vehicleID, 2024, 1)
	require.NoError(t, err)
	assert.Equal(t, 35.0, calc.RefueledDomestic)
	assert.Equal(t, 42.5, calc.RefueledForeign)
	assert.Equal(t, 77.5, calc.TotalRefueled)
}

func TestCalculateMonthlyFuelStocks_Deterministic(t *testing.T) {
	f := newFixture(t, ptr(55), ptr(6.4))
	f.inventory("2023-12-20", 30, models.InventorySourceManualCorrection)
	f.purchase("2023-12-28", 22.37, "CZ")
	f.purchase("2024-01-08", 41.11, "SK")
	f.purchase("2024-01-18", 13.9, "PL")
	f.trip("2023-12-29", 87.3, models.TripPurposePrivate)
	f.trip("2024-01-09", 412.6, models.TripPurposeBusiness)
	f.trip("2024-01-25", 33.3, models.TripPurposePrivate)

	first, err := f.calc.CalculateMonthlyFuelStocks(context.Background(), vehicleID, 2024, 1)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := f.calc.CalculateMonthlyFuelStocks(context.Background(), vehicleID, 2024, 1)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestNewCalculator_InvalidHomeCountry(t *testing.T) {
	_, err := NewCalculator(db.NewMemoryStore(), WithHomeCountry("12345"))
	assert.Error(t, err)
}

type countingRecorder struct {
	calculations map[string]int
	estimates    int
	inventory    []models.InventorySource
}

func (r *countingRecorder) CalculationCompleted(kind string, estimate bool, warnings int) {
	if r.calculations == nil {
		r.calculations = make(map[string]int)
	}
	r.calculations[kind]++
	if estimate {
		r.estimates++
	}
}

func (r *countingRecorder) InventoryCreated(source models.InventorySource) {
	r.inventory = append(r.inventory, source)
}

func TestCalculator_ReportsToRecorder(t *testing.T) {
	rec := &countingRecorder{}
	f := newFixture(t, ptr(60), ptr(8), WithRecorder(rec))

	_, err := f.calc.CalculateFuelStock(context.Background(), vehicleID, day("2024-01-31"))
	require.NoError(t, err)
	_, err = f.calc.CalculateMonthlyFuelStocks(context.Background(), vehicleID, 2024, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.calculations[KindFuelStock])
	assert.Equal(t, 1, rec.calculations[KindMonthly])
	assert.Equal(t, 2, rec.estimates)
}
