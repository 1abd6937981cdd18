package fuelstock

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-fuel/internal/db"
	"github.com/ukydev/fleet-fuel/internal/models"
)

// CalculateMonthlyFuelStocks builds the monthly fuel report of a vehicle:
// opening stock at the end of the previous month, closing stock at the end
// of the month, and the month's purchases and distance.
//
// A missing vehicle yields a zero report with Error set. Store failures are
// returned as errors.
func (c *Calculator) CalculateMonthlyFuelStocks(ctx context.Context, vehicleID string, year, month int) (*models.FuelStockCalculation, error) {
	period, err := MonthPeriod(year, month)
	if err != nil {
		return nil, err
	}

	calc := &models.FuelStockCalculation{
		VehicleID: vehicleID,
		Period:    period,
		Warnings:  []string{},
	}

	vehicle, err := c.store.GetVehicle(ctx, vehicleID)
	if errors.Is(err, db.ErrNotFound) {
		calc.Error = ErrVehicleNotFound.Error()
		c.recorder.CalculationCompleted(KindMonthly, false, 0)
		return calc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle %s: %w", vehicleID, err)
	}

	calc.TankCapacity = vehicle.TankCapacity
	calc.RatedConsumption = vehicle.RatedConsumption
	if !vehicle.HasTankCapacity() {
		calc.AddWarning(WarningMissingTankCapacity)
	}
	if !vehicle.HasRatedConsumption() {
		calc.AddWarning(WarningMissingRatedConsumption)
	}

	// month figures cover [StartDate, EndDate], i.e. after DayBeforeStart
	byCountry, err := c.store.PurchasedLitersByCountry(ctx, vehicle.ID, period.DayBeforeStart, period.EndDate)
	if err != nil {
		return nil, fmt.Errorf("sum monthly purchases for %s: %w", vehicle.ID, err)
	}
	byPurpose, err := c.store.DistanceByPurpose(ctx, vehicle.ID, period.DayBeforeStart, period.EndDate)
	if err != nil {
		return nil, fmt.Errorf("sum monthly distance for %s: %w", vehicle.ID, err)
	}
	purchases := c.splitPurchases(byCountry)
	distances := splitDistances(byPurpose)

	calc.TotalRefueled = round2(purchases.Total())
	calc.RefueledDomestic = round2(purchases.Domestic)
	calc.RefueledForeign = round2(purchases.Foreign)
	calc.TotalKm = round2(distances.Total())
	calc.BusinessKm = round2(distances.Business)
	calc.PrivateKm = round2(distances.Private)
	rated, _ := ConsumedLiters(distances.Total(), vehicle.RatedConsumption, 1)
	calc.RatedConsumptionLiters = round2(rated)

	opening, err := c.stockForVehicle(ctx, vehicle, period.DayBeforeStart)
	if err != nil {
		return nil, err
	}
	closing, err := c.stockForVehicle(ctx, vehicle, period.EndDate)
	if err != nil {
		return nil, err
	}
	calc.Opening = opening
	calc.Closing = closing

	if !opening.HasReferencePoint() && !closing.HasReferencePoint() {
		calc.HasReferencePoint = false
		calc.IsEstimate = true
		calc.AddWarning(WarningNoReferenceForReport)
		c.finish(calc)
		return calc, nil
	}

	calc.HasReferencePoint = true
	calc.IsEstimate = opening.IsEstimate || closing.IsEstimate
	calc.InitialFuelStock = opening.FuelStock
	calc.FinalFuelStock = closing.FuelStock
	calc.ReferenceDate = closing.ReferenceDate
	calc.ReferenceSource = closing.ReferenceSource

	if opening.IsEstimate {
		calc.AddWarning(WarningOpeningEstimated)
	}
	calc.AddWarning(closing.Warning)
	if closing.RawFuelStock < 0 {
		calc.AddWarning(fmt.Sprintf(warningNegativeClosingStock, closing.RawFuelStock))
	}

	actual := calc.InitialFuelStock + calc.TotalRefueled - calc.FinalFuelStock
	calc.ActualConsumptionLiters = round2(actual)
	if calc.TotalKm > 0 {
		calc.ActualConsumptionPer100Km = round2(actual / calc.TotalKm * 100)
	}

	c.finish(calc)
	return calc, nil
}

func (c *Calculator) finish(calc *models.FuelStockCalculation) {
	c.recorder.CalculationCompleted(KindMonthly, calc.IsEstimate, len(calc.Warnings))
	if len(calc.Warnings) == 0 {
		return
	}
	log.WithFields(log.Fields{
		"vehicle_id": calc.VehicleID,
		"year":       calc.Period.Year,
		"month":      calc.Period.Month,
		"warnings":   calc.Warnings,
	}).Warn("Monthly fuel report has warnings")
}

func (c *Calculator) splitPurchases(byCountry map[string]float64) models.PurchaseBreakdown {
	var breakdown models.PurchaseBreakdown
	// sorted keys keep float summation order stable between calls
	for _, country := range slices.Sorted(maps.Keys(byCountry)) {
		if c.isDomestic(country) {
			breakdown.Domestic += byCountry[country]
		} else {
			breakdown.Foreign += byCountry[country]
		}
	}
	return breakdown
}

func splitDistances(byPurpose map[string]float64) models.DistanceBreakdown {
	var breakdown models.DistanceBreakdown
	for _, purpose := range slices.Sorted(maps.Keys(byPurpose)) {
		if purpose == models.TripPurposePrivate {
			breakdown.Private += byPurpose[purpose]
		} else {
			breakdown.Business += byPurpose[purpose]
		}
	}
	return breakdown
}
