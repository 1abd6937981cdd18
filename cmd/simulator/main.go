package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-fuel/internal/config"
	"github.com/ukydev/fleet-fuel/internal/db"
	"github.com/ukydev/fleet-fuel/internal/events"
	"github.com/ukydev/fleet-fuel/internal/fuelstock"
)

// simOptions are the simulator-only settings.
type simOptions struct {
	FleetSize int
	Year      int
	Month     int
	Seed      int64
}

func loadSimOptions(now time.Time) (simOptions, error) {
	year, month := fuelstock.PreviousMonth(now)
	opts := simOptions{FleetSize: 10, Year: year, Month: month, Seed: now.UnixNano()}

	if v := os.Getenv("FLEET_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, fmt.Errorf("FLEET_SIZE must be a positive number, got %q", v)
		}
		opts.FleetSize = n
	}
	if v := os.Getenv("SIM_MONTH"); v != "" {
		t, err := time.Parse("2006-01", v)
		if err != nil {
			return opts, fmt.Errorf("SIM_MONTH must be formatted as YYYY-MM, got %q", v)
		}
		opts.Year, opts.Month = t.Year(), int(t.Month())
	}
	if v := os.Getenv("SIM_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return opts, fmt.Errorf("SIM_SEED must be a number, got %q", v)
		}
		opts.Seed = n
	}
	return opts, nil
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.WithError(err).Fatal("Failed to load .env")
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	if err := config.ConfigureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.WithError(err).Fatal("Invalid logging configuration")
	}

	simOpts, err := loadSimOptions(time.Now().UTC())
	if err != nil {
		log.WithError(err).Fatal("Invalid simulator configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, db.Options{
		Backend:    cfg.DataBackend,
		MongoURI:   cfg.MongoURI,
		MongoDB:    cfg.MongoDB,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to open fuel store")
	}
	defer store.Close(context.Background())

	var publisher FullTankPublisher
	if cfg.MQTTBrokerURL != "" {
		p, err := events.NewPublisher(ctx, events.Options{
			BrokerURL: cfg.MQTTBrokerURL,
			ClientID:  cfg.MQTTClientID,
			Topic:     cfg.MQTTTopic,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to connect MQTT publisher")
		}
		defer p.Close()
		publisher = p
	}

	period, err := fuelstock.MonthPeriod(simOpts.Year, simOpts.Month)
	if err != nil {
		log.WithError(err).Fatal("Invalid simulation month")
	}

	log.WithFields(log.Fields{
		"fleet_size": simOpts.FleetSize,
		"year":       simOpts.Year,
		"month":      simOpts.Month,
		"seed":       simOpts.Seed,
		"backend":    cfg.DataBackend,
		"mqtt":       publisher != nil,
	}).Info("Starting fleet simulation")

	sim := newSimulation(store, publisher, simOpts.Seed, cfg.HomeCountry)
	summary, err := sim.seedMonth(ctx, simOpts.FleetSize, period)
	if err != nil {
		log.WithError(err).Fatal("Simulation failed")
	}

	log.WithFields(log.Fields{
		"vehicles":   len(summary.VehicleIDs),
		"trips":      summary.Trips,
		"refuels":    summary.Refuels,
		"full_tanks": summary.FullTanks,
	}).Info("Simulation data written")

	if publisher != nil {
		// reports are left to the service, which owns the full-tank events
		return
	}

	calc, err := fuelstock.NewCalculator(store, fuelstock.WithHomeCountry(cfg.HomeCountry))
	if err != nil {
		log.WithError(err).Fatal("Failed to create calculator")
	}
	for _, id := range summary.VehicleIDs {
		report, err := calc.CalculateMonthlyFuelStocks(ctx, id, simOpts.Year, simOpts.Month)
		if err != nil {
			log.WithError(err).WithField("vehicle_id", id).Error("Monthly report failed")
			continue
		}
		log.WithFields(log.Fields{
			"vehicle_id":       id,
			"opening":          report.InitialFuelStock,
			"closing":          report.FinalFuelStock,
			"km":               report.TotalKm,
			"refueled":         report.TotalRefueled,
			"actual_l_per_100": report.ActualConsumptionPer100Km,
			"warnings":         len(report.Warnings),
		}).Info("Monthly fuel report")
	}
}
