package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-fuel/internal/config"
	"github.com/ukydev/fleet-fuel/internal/db"
	"github.com/ukydev/fleet-fuel/internal/events"
	"github.com/ukydev/fleet-fuel/internal/fuelstock"
	"github.com/ukydev/fleet-fuel/internal/handlers"
	"github.com/ukydev/fleet-fuel/internal/metrics"
	"github.com/ukydev/fleet-fuel/internal/middleware"
	"github.com/ukydev/fleet-fuel/internal/scheduler"
)

// app bundles the components shared by the HTTP server, the MQTT
// subscriber and the monthly close job.
type app struct {
	store      db.FuelStore
	metrics    *metrics.Metrics
	calculator *fuelstock.Calculator
	writer     *fuelstock.Writer
	limiter    *middleware.RateLimitMiddleware
	handler    http.Handler
}

func newApp(cfg *config.Config, store db.FuelStore) (*app, error) {
	m := metrics.New("fleet_fuel")

	calc, err := fuelstock.NewCalculator(store,
		fuelstock.WithHomeCountry(cfg.HomeCountry),
		fuelstock.WithRecorder(m),
	)
	if err != nil {
		return nil, err
	}
	writer := fuelstock.NewWriter(store, m)
	limiter := middleware.NewRateLimitMiddleware()

	router := handlers.NewRouter(handlers.NewFuelHandler(calc, writer), handlers.RouterOptions{
		Metrics:           m.Handler(),
		Observer:          m,
		RateLimiter:       limiter,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindowSeconds,
	})

	return &app{
		store:      store,
		metrics:    m,
		calculator: calc,
		writer:     writer,
		limiter:    limiter,
		handler:    router,
	}, nil
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

	a, err := newApp(cfg, store)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize service")
	}

	var subscriber *events.Subscriber
	if cfg.MQTTBrokerURL != "" {
		subscriber = events.NewSubscriber(events.Options{
			BrokerURL: cfg.MQTTBrokerURL,
			ClientID:  cfg.MQTTClientID,
			Topic:     cfg.MQTTTopic,
			QoS:       1,
		}, a.writer, a.metrics)
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := subscriber.Start(connectCtx)
		cancel()
		if err != nil {
			log.WithError(err).Fatal("Failed to start MQTT subscriber")
		}
	} else {
		log.Info("MQTT_BROKER_URL not set; full-tank events are accepted over HTTP only")
	}

	monthlyClose := scheduler.NewMonthlyClose(store, a.calculator, a.metrics)
	if err := monthlyClose.Start(cfg.MonthlyCloseSchedule); err != nil {
		log.WithError(err).Fatal("Failed to start monthly close")
	}

	go func() {
		ticker := time.NewTicker(time.Duration(cfg.RateLimitWindowSeconds) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.limiter.Cleanup(cfg.RateLimitWindowSeconds)
			}
		}
	}()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		log.WithFields(log.Fields{
			"port":    cfg.Port,
			"backend": cfg.DataBackend,
		}).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	monthlyClose.Stop()
	if subscriber != nil {
		subscriber.Stop()
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to close fuel store")
	}
}
