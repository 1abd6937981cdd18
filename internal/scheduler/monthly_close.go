package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-fuel/internal/fuelstock"
	"github.com/ukydev/fleet-fuel/internal/models"
)

// VehicleLister lists the fleet.
type VehicleLister interface {
	ListVehicles(ctx context.Context) ([]models.Vehicle, error)
}

// MonthlyReporter produces one monthly fuel report.
type MonthlyReporter interface {
	CalculateMonthlyFuelStocks(ctx context.Context, vehicleID string, year, month int) (*models.FuelStockCalculation, error)
}

// ReportObserver receives the result of each closed report.
type ReportObserver interface {
	MonthlyCloseReport(result string)
}

// Report results passed to the ReportObserver.
const (
	ResultOK       = "ok"
	ResultWarnings = "warnings"
	ResultFailed   = "failed"
)

// MonthlyClose computes the previous month's fuel report for every vehicle
// on a cron schedule.
type MonthlyClose struct {
	cron     *cron.Cron
	vehicles VehicleLister
	reporter MonthlyReporter
	observer ReportObserver
	timeout  time.Duration
	now      func() time.Time
}

// NewMonthlyClose creates a monthly close job. observer may be nil.
func NewMonthlyClose(vehicles VehicleLister, reporter MonthlyReporter, observer ReportObserver) *MonthlyClose {
	return &MonthlyClose{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		vehicles: vehicles,
		reporter: reporter,
		observer: observer,
		timeout:  10 * time.Minute,
		now:      time.Now,
	}
}

// Start registers the job under a standard five-field cron schedule and
// starts the cron runner.
func (m *MonthlyClose) Start(schedule string) error {
	_, err := m.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		if _, err := m.Run(ctx); err != nil {
			log.WithError(err).Error("Monthly close finished with errors")
		}
	})
	if err != nil {
		return fmt.Errorf("register monthly close schedule %q: %w", schedule, err)
	}

	m.cron.Start()
	log.WithField("schedule", schedule).Info("Monthly close scheduler started")
	return nil
}

// Stop waits for a running job to finish.
func (m *MonthlyClose) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Info("Monthly close scheduler stopped")
}

// Run reports the month before the current one for every vehicle. A failing
// vehicle does not stop the others; all failures are joined into the error.
func (m *MonthlyClose) Run(ctx context.Context) ([]*models.FuelStockCalculation, error) {
	year, month := fuelstock.PreviousMonth(m.now())

	vehicles, err := m.vehicles.ListVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}

	logger := log.WithFields(log.Fields{"year": year, "month": month})
	logger.WithField("vehicles", len(vehicles)).Info("Running monthly close")

	var (
		reports []*models.FuelStockCalculation
		errs    []error
	)
	for _, vehicle := range vehicles {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		report, err := m.reporter.CalculateMonthlyFuelStocks(ctx, vehicle.ID, year, month)
		if err != nil {
			m.observe(ResultFailed)
			errs = append(errs, fmt.Errorf("vehicle %s: %w", vehicle.ID, err))
			continue
		}
		reports = append(reports, report)

		if len(report.Warnings) > 0 || report.Error != "" {
			m.observe(ResultWarnings)
			logger.WithFields(log.Fields{
				"vehicle_id":    vehicle.ID,
				"license_plate": vehicle.LicensePlate,
				"warnings":      report.Warnings,
			}).Warn("Monthly fuel report needs attention")
			continue
		}
		m.observe(ResultOK)
	}

	return reports, errors.Join(errs...)
}

func (m *MonthlyClose) observe(result string) {
	if m.observer != nil {
		m.observer.MonthlyCloseReport(result)
	}
}
