package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-fuel/internal/db"
	"github.com/ukydev/fleet-fuel/internal/events"
	"github.com/ukydev/fleet-fuel/internal/fuelstock"
	"github.com/ukydev/fleet-fuel/internal/models"
)

// vehicleProfile is a make/model with its tank and rated consumption.
type vehicleProfile struct {
	Make             string
	Model            string
	FuelType         string
	TankCapacity     float64
	RatedConsumption float64 // l/100 km
}

var profiles = []vehicleProfile{
	{"Skoda", "Octavia Combi", "diesel", 45, 4.8},
	{"Skoda", "Superb", "diesel", 66, 5.3},
	{"Volkswagen", "Transporter", "diesel", 70, 8.2},
	{"Ford", "Transit Custom", "diesel", 70, 7.9},
	{"Toyota", "Corolla", "petrol", 50, 5.9},
	{"Hyundai", "i30 Kombi", "petrol", 50, 6.4},
}

// foreign filling stations used on business trips abroad
var foreignCountries = []string{"AT", "DE", "SK", "PL"}

// FullTankPublisher announces full-tank refuels.
type FullTankPublisher interface {
	PublishFuelRecord(ctx context.Context, event events.FuelRecordEvent) error
}

// simulation writes a synthetic month of fleet activity into a store.
type simulation struct {
	store       db.FuelStore
	writer      *fuelstock.Writer
	publisher   FullTankPublisher
	rng         *rand.Rand
	homeCountry string
}

// vehicleState tracks the true fuel level while generating activity.
type vehicleState struct {
	vehicle  models.Vehicle
	fuel     float64
	odometer float64
}

type seedSummary struct {
	VehicleIDs []string
	Trips      int
	Refuels    int
	FullTanks  int
}

func newSimulation(store db.FuelStore, publisher FullTankPublisher, seed int64, homeCountry string) *simulation {
	return &simulation{
		store:       store,
		writer:      fuelstock.NewWriter(store, nil),
		publisher:   publisher,
		rng:         rand.New(rand.NewSource(seed)),
		homeCountry: homeCountry,
	}
}

// seedMonth creates fleetSize vehicles with an initial stock on the day
// before the period and drives them through every day of it.
func (s *simulation) seedMonth(ctx context.Context, fleetSize int, period models.ReportPeriod) (*seedSummary, error) {
	summary := &seedSummary{}
	for i := 0; i < fleetSize; i++ {
		state, err := s.createVehicle(ctx, i, period.DayBeforeStart)
		if err != nil {
			return summary, err
		}
		summary.VehicleIDs = append(summary.VehicleIDs, state.vehicle.ID)

		for d := period.StartDate; !d.After(period.EndDate); d = d.AddDate(0, 0, 1) {
			trips, refuels, fullTanks, err := s.simulateDay(ctx, state, d)
			if err != nil {
				return summary, fmt.Errorf("simulate %s on %s: %w", state.vehicle.ID, d.Format("2006-01-02"), err)
			}
			summary.Trips += trips
			summary.Refuels += refuels
			summary.FullTanks += fullTanks
		}
	}
	return summary, nil
}

func (s *simulation) createVehicle(ctx context.Context, idx int, stockDate time.Time) (*vehicleState, error) {
	profile := profiles[s.rng.Intn(len(profiles))]
	tank := profile.TankCapacity
	rated := profile.RatedConsumption

	vehicle := models.Vehicle{
		LicensePlate:     fmt.Sprintf("%dA%d %04d", 1+idx%9, s.rng.Intn(10), s.rng.Intn(10000)),
		Make:             profile.Make,
		Model:            profile.Model,
		FuelType:         profile.FuelType,
		TankCapacity:     &tank,
		RatedConsumption: &rated,
		InitialOdometer:  float64(10000 + s.rng.Intn(90000)),
		Status:           "active",
	}
	id, err := s.store.InsertVehicle(ctx, vehicle)
	if err != nil {
		return nil, fmt.Errorf("create vehicle: %w", err)
	}
	vehicle.ID = id

	initial := math.Round(tank*(0.5+0.4*s.rng.Float64())*100) / 100
	if _, err := s.writer.CreateFuelInventory(ctx, fuelstock.InventoryInput{
		VehicleID:  id,
		Date:       stockDate,
		FuelAmount: initial,
		Source:     models.InventorySourceInitial,
		CreatedBy:  "simulator",
	}); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"vehicle_id":    id,
		"license_plate": vehicle.LicensePlate,
		"model":         profile.Make + " " + profile.Model,
		"initial_stock": initial,
	}).Info("Created vehicle")

	return &vehicleState{vehicle: vehicle, fuel: initial, odometer: vehicle.InitialOdometer}, nil
}

// simulateDay drives up to two trips and refuels when the tank drops below
// a quarter. Real consumption varies around the rated figure.
func (s *simulation) simulateDay(ctx context.Context, st *vehicleState, d time.Time) (trips, refuels, fullTanks int, err error) {
	if d.Weekday() == time.Sunday || s.rng.Float64() < 0.15 {
		return 0, 0, 0, nil
	}
	tank := *st.vehicle.TankCapacity
	rated := *st.vehicle.RatedConsumption

	for n := 1 + s.rng.Intn(2); n > 0; n-- {
		km := math.Round((20+s.rng.Float64()*180)*10) / 10
		// never run dry mid-trip
		maxKm := st.fuel / (rated * 1.1) * 100
		if km > maxKm {
			km = math.Floor(maxKm)
		}
		if km <= 0 {
			break
		}
		purpose := models.TripPurposeBusiness
		if s.rng.Float64() < 0.15 {
			purpose = models.TripPurposePrivate
		}
		distance := km
		trip := models.Trip{
			VehicleID:     st.vehicle.ID,
			Date:          d,
			StartLocation: "Brno",
			EndLocation:   "Brno",
			OdometerStart: st.odometer,
			OdometerEnd:   st.odometer + km,
			Distance:      &distance,
			Purpose:       purpose,
		}
		if _, err := s.store.InsertTrip(ctx, trip); err != nil {
			return trips, refuels, fullTanks, err
		}
		st.odometer += km
		st.fuel -= km * rated * (0.9 + 0.2*s.rng.Float64()) / 100
		if st.fuel < 0 {
			st.fuel = 0
		}
		trips++
	}

	if st.fuel >= tank/4 {
		return trips, refuels, fullTanks, nil
	}

	fullTank := s.rng.Float64() < 0.6
	liters := tank - st.fuel
	if !fullTank {
		liters = math.Round(liters*(0.5+0.3*s.rng.Float64())*100) / 100
	} else {
		liters = math.Round(liters*100) / 100
	}
	country := s.homeCountry
	if s.rng.Float64() < 0.2 {
		country = foreignCountries[s.rng.Intn(len(foreignCountries))]
	}

	record := models.FuelRecord{
		VehicleID:     st.vehicle.ID,
		Date:          d,
		Liters:        liters,
		Country:       country,
		PricePerLiter: 38 + s.rng.Float64()*4,
		Currency:      "CZK",
		Odometer:      st.odometer,
		FullTank:      fullTank,
	}
	record.TotalPrice = math.Round(record.PricePerLiter*liters*100) / 100
	recordID, err := s.store.InsertFuelRecord(ctx, record)
	if err != nil {
		return trips, refuels, fullTanks, err
	}
	st.fuel += liters
	refuels++

	if fullTank {
		if err := s.announceFullTank(ctx, recordID, record); err != nil {
			return trips, refuels, fullTanks, err
		}
		st.fuel = tank
		fullTanks++
	}
	return trips, refuels, fullTanks, nil
}

// announceFullTank publishes the refuel when a broker is configured and
// records the reference point directly otherwise.
func (s *simulation) announceFullTank(ctx context.Context, recordID string, record models.FuelRecord) error {
	if s.publisher != nil {
		event := events.NewFuelRecordEvent(recordID, record.VehicleID, record.Date, record.Liters, record.Country, true)
		return s.publisher.PublishFuelRecord(ctx, event)
	}
	_, err := s.writer.HandleFullTankRefuel(ctx, record.VehicleID, recordID, record.Date)
	return err
}
