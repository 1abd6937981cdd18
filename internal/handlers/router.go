package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ukydev/fleet-fuel/internal/middleware"
)

// RouterOptions wires the optional parts of the router.
type RouterOptions struct {
	Metrics           http.Handler
	Observer          middleware.RequestObserver
	RateLimiter       *middleware.RateLimitMiddleware
	RateLimitRequests int
	RateLimitWindow   int
}

// NewRouter registers the fuel API, health and metrics routes.
func NewRouter(fuel *FuelHandler, opts RouterOptions) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging(opts.Observer))
	if opts.RateLimiter != nil {
		router.Use(opts.RateLimiter.RateLimit(opts.RateLimitRequests, opts.RateLimitWindow))
	}

	router.HandleFunc("/health", Health).Methods(http.MethodGet)
	if opts.Metrics != nil {
		router.Handle("/metrics", opts.Metrics).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api/vehicles/{id}").Subrouter()
	api.HandleFunc("/fuel-stock", fuel.GetFuelStock).Methods(http.MethodGet)
	api.HandleFunc("/fuel-reports/{year:[0-9]{4}}/{month:[0-9]{1,2}}", fuel.GetMonthlyReport).Methods(http.MethodGet)
	api.HandleFunc("/fuel-inventory", fuel.CreateFuelInventory).Methods(http.MethodPost)
	api.HandleFunc("/full-tank", fuel.RecordFullTank).Methods(http.MethodPost)

	return router
}
