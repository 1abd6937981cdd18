package models

import (
	"time"
)

// FuelStockResult is the fuel level of one vehicle on one day.
type FuelStockResult struct {
	VehicleID       string          `json:"vehicle_id"`
	Date            time.Time       `json:"date"`
	FuelStock       float64         `json:"fuel_stock"`
	RawFuelStock    float64         `json:"raw_fuel_stock"` // before clamping
	IsEstimate      bool            `json:"is_estimate"`
	ReferenceDate   *time.Time      `json:"reference_date,omitempty"`
	ReferenceSource InventorySource `json:"reference_source,omitempty"`
	PurchasedLiters float64         `json:"purchased_liters"`
	DistanceKm      float64         `json:"distance_km"`
	ConsumedLiters  float64         `json:"consumed_liters"`
	Warning         string          `json:"warning,omitempty"`
}

// HasReferencePoint reports whether the result is anchored on a fuel inventory point.
func (r *FuelStockResult) HasReferencePoint() bool {
	return r.ReferenceDate != nil
}

// ReportPeriod describes the calendar month of a monthly report.
type ReportPeriod struct {
	Year           int       `json:"year"`
	Month          int       `json:"month"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	DayBeforeStart time.Time `json:"day_before_start"`
}

// FuelStockCalculation is the monthly fuel report of one vehicle.
type FuelStockCalculation struct {
	VehicleID         string       `json:"vehicle_id"`
	Period            ReportPeriod `json:"period"`
	InitialFuelStock  float64      `json:"initial_fuel_stock"`
	FinalFuelStock    float64      `json:"final_fuel_stock"`
	IsEstimate        bool         `json:"is_estimate"`
	HasReferencePoint bool         `json:"has_reference_point"`

	ReferenceDate   *time.Time      `json:"reference_date,omitempty"`
	ReferenceSource InventorySource `json:"reference_source,omitempty"`

	TankCapacity     *float64 `json:"tank_capacity,omitempty"`
	RatedConsumption *float64 `json:"rated_consumption,omitempty"`

	TotalKm    float64 `json:"total_km"`
	BusinessKm float64 `json:"business_km"`
	PrivateKm  float64 `json:"private_km"`

	TotalRefueled    float64 `json:"total_refueled"`
	RefueledDomestic float64 `json:"refueled_domestic"`
	RefueledForeign  float64 `json:"refueled_foreign"`

	RatedConsumptionLiters    float64 `json:"rated_consumption_liters"`
	ActualConsumptionLiters   float64 `json:"actual_consumption_liters"`
	ActualConsumptionPer100Km float64 `json:"actual_consumption_per_100km"`

	Opening *FuelStockResult `json:"opening,omitempty"`
	Closing *FuelStockResult `json:"closing,omitempty"`

	Warnings []string `json:"warnings"`
	Error    string   `json:"error,omitempty"`
}

// AddWarning appends a warning unless it is empty or already present.
func (c *FuelStockCalculation) AddWarning(warning string) {
	if warning == "" {
		return
	}
	for _, w := range c.Warnings {
		if w == warning {
			return
		}
	}
	c.Warnings = append(c.Warnings, warning)
}

// PurchaseBreakdown is the liters bought in a period split by country.
type PurchaseBreakdown struct {
	Domestic float64 `json:"domestic"`
	Foreign  float64 `json:"foreign"`
}

// Total returns the sum of domestic and foreign liters.
func (p PurchaseBreakdown) Total() float64 {
	return p.Domestic + p.Foreign
}

// DistanceBreakdown is the distance driven in a period split by trip purpose.
type DistanceBreakdown struct {
	Business float64 `json:"business"`
	Private  float64 `json:"private"`
}

// Total returns the sum of business and private kilometers.
func (d DistanceBreakdown) Total() float64 {
	return d.Business + d.Private
}
