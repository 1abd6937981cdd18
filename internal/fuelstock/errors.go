package fuelstock

import "errors"

var (
	ErrVehicleNotFound     = errors.New("vehicle not found")
	ErrTankCapacityUnknown = errors.New("vehicle has no tank capacity")
	ErrInvalidInventory    = errors.New("invalid fuel inventory")
	ErrInvalidPeriod       = errors.New("invalid report period")
)

// Warnings attached to degraded results.
const (
	WarningVehicleNotFound         = "vehicle not found: fuel stock cannot be calculated"
	WarningMissingReferencePoint   = "missing reference point: no fuel inventory on or before this date"
	WarningMissingRatedConsumption = "missing rated consumption: fuel consumption was not deducted"
	WarningMissingTankCapacity     = "missing tank capacity: fuel stock is not capped"
	WarningNoReferenceForReport    = "missing reference point: enter an initial stock or a full-tank refuel"
	WarningOpeningEstimated        = "no reference point before the start of the month: opening stock assumed to be 0"
)

// warningNegativeClosingStock flags a closing stock that had to be raised to zero.
const warningNegativeClosingStock = "calculated closing stock was negative (%.2f l) and was set to 0: check for unlogged refuels or odometer errors"
