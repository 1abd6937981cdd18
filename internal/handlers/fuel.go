package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-fuel/internal/fuelstock"
	"github.com/ukydev/fleet-fuel/internal/middleware"
	"github.com/ukydev/fleet-fuel/internal/models"
)

const dateLayout = "2006-01-02"

// StockCalculator computes fuel stocks and monthly reports.
type StockCalculator interface {
	CalculateFuelStock(ctx context.Context, vehicleID string, targetDate time.Time) (*models.FuelStockResult, error)
	CalculateMonthlyFuelStocks(ctx context.Context, vehicleID string, year, month int) (*models.FuelStockCalculation, error)
}

// InventoryWriter records fuel inventory reference points.
type InventoryWriter interface {
	CreateFuelInventory(ctx context.Context, in fuelstock.InventoryInput) (*models.FuelInventory, error)
	HandleFullTankRefuel(ctx context.Context, vehicleID, fuelRecordID string, date time.Time) (*models.FuelInventory, error)
}

// FuelHandler serves the fuel stock endpoints.
type FuelHandler struct {
	calculator StockCalculator
	writer     InventoryWriter
	now        func() time.Time
}

// NewFuelHandler creates a new fuel handler
func NewFuelHandler(calculator StockCalculator, writer InventoryWriter) *FuelHandler {
	return &FuelHandler{
		calculator: calculator,
		writer:     writer,
		now:        time.Now,
	}
}

// inventoryRequest is the body of POST /api/vehicles/{id}/fuel-inventory.
type inventoryRequest struct {
	Date         string                 `json:"date"`
	FuelAmount   float64                `json:"fuel_amount"`
	Source       models.InventorySource `json:"source"`
	FuelRecordID string                 `json:"fuel_record_id,omitempty"`
	CreatedBy    string                 `json:"created_by,omitempty"`
	Notes        string                 `json:"notes,omitempty"`
}

// fullTankRequest is the body of POST /api/vehicles/{id}/full-tank.
type fullTankRequest struct {
	FuelRecordID string `json:"fuel_record_id"`
	Date         string `json:"date"`
}

// GetFuelStock handles GET /api/vehicles/{id}/fuel-stock?date=YYYY-MM-DD.
// Without a date the current UTC day is used.
func (h *FuelHandler) GetFuelStock(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["id"]

	target := h.now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
			return
		}
		target = parsed
	}

	result, err := h.calculator.CalculateFuelStock(r.Context(), vehicleID, target)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if result.Warning == fuelstock.WarningVehicleNotFound {
		writeError(w, http.StatusNotFound, result.Warning)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetMonthlyReport handles GET /api/vehicles/{id}/fuel-reports/{year}/{month}.
func (h *FuelHandler) GetMonthlyReport(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	year, yearErr := strconv.Atoi(vars["year"])
	month, monthErr := strconv.Atoi(vars["month"])
	if yearErr != nil || monthErr != nil {
		writeError(w, http.StatusBadRequest, "year and month must be numbers")
		return
	}

	report, err := h.calculator.CalculateMonthlyFuelStocks(r.Context(), vars["id"], year, month)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if report.Error != "" {
		writeJSON(w, http.StatusNotFound, report)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// CreateFuelInventory handles POST /api/vehicles/{id}/fuel-inventory.
func (h *FuelHandler) CreateFuelInventory(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	input := fuelstock.InventoryInput{
		VehicleID:    mux.Vars(r)["id"],
		FuelAmount:   req.FuelAmount,
		Source:       req.Source,
		FuelRecordID: req.FuelRecordID,
		CreatedBy:    req.CreatedBy,
		Notes:        req.Notes,
	}
	if req.Date != "" {
		date, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
			return
		}
		input.Date = date
	}

	inventory, err := h.writer.CreateFuelInventory(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inventory)
}

// RecordFullTank handles POST /api/vehicles/{id}/full-tank.
func (h *FuelHandler) RecordFullTank(w http.ResponseWriter, r *http.Request) {
	var req fullTankRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.FuelRecordID == "" {
		writeError(w, http.StatusBadRequest, "fuel_record_id is required")
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}

	inventory, err := h.writer.HandleFullTankRefuel(r.Context(), mux.Vars(r)["id"], req.FuelRecordID, date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inventory)
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fail maps domain errors to HTTP status codes.
func (h *FuelHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, fuelstock.ErrInvalidPeriod), errors.Is(err, fuelstock.ErrInvalidInventory):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, fuelstock.ErrVehicleNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, fuelstock.ErrTankCapacityUnknown):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.WithError(err).WithFields(log.Fields{
			"path":       r.URL.Path,
			"request_id": middleware.RequestIDFromContext(r.Context()),
		}).Error("Fuel request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read request body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid JSON")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
