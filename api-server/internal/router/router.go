package router

import (
	"net/http"

	"github.com/cx-tal-miterani/flight-surety-system/api-server/internal/handlers"
	"github.com/cx-tal-miterani/flight-surety-system/api-server/internal/metrics"
	"github.com/cx-tal-miterani/flight-surety-system/api-server/internal/middleware"
	"github.com/cx-tal-miterani/flight-surety-system/api-server/internal/websocket"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Options carries the collaborators the router wires in.
type Options struct {
	Handler *handlers.Handler
	Hub     *websocket.Hub
	Metrics *metrics.Collector
	// Limiter is optional.
	Limiter *middleware.RateLimiter
	Log     logrus.FieldLogger
}

// NewRouter creates and configures the HTTP router
func NewRouter(opts Options) *mux.Router {
	h := opts.Handler
	r := mux.NewRouter()

	r.Use(corsMiddleware)
	r.Use(middleware.RequestLogger(opts.Log))
	r.Use(opts.Metrics.InstrumentHandler)

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	if opts.Limiter != nil {
		api.Use(opts.Limiter.Handler)
	}

	// Administration
	api.HandleFunc("/status", h.GetStatus).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/status", h.SetOperational).Methods(http.MethodPut, http.MethodOptions)
	api.HandleFunc("/authorizations", h.Authorize).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/authorizations/{id}", h.Revoke).Methods(http.MethodDelete, http.MethodOptions)
	api.HandleFunc("/vault/deposits", h.Deposit).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/vault/transfers", h.GetVaultTransfers).Methods(http.MethodGet, http.MethodOptions)

	// Airlines
	api.HandleFunc("/airlines", h.GetAirlines).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/airlines", h.RegisterAirline).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/airlines/funding", h.FundAirline).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/airlines/{id}", h.GetAirline).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/airlines/{id}/application", h.GetAirlineApplication).Methods(http.MethodGet, http.MethodOptions)

	// Flights and insurance
	api.HandleFunc("/flights", h.GetFlights).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights", h.RegisterFlight).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/flights/{id}", h.GetFlight).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights/{id}/status-requests", h.FetchFlightStatus).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/flights/{id}/insurance", h.GetInsurance).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights/{id}/insurance", h.BuyInsurance).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/flights/{id}/insurance/withdrawals", h.Withdraw).Methods(http.MethodPost, http.MethodOptions)

	// Oracles
	api.HandleFunc("/oracles", h.RegisterOracle).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/oracles/responses", h.SubmitOracleResponse).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/oracles/{id}", h.GetOracle).Methods(http.MethodGet, http.MethodOptions)

	// Events
	api.HandleFunc("/events", h.GetEvents).Methods(http.MethodGet, http.MethodOptions)

	// WebSocket for real-time updates
	api.HandleFunc("/flights/{flightId}/ws", opts.Hub.HandleWebSocket).Methods(http.MethodGet)
	api.HandleFunc("/events/ws", opts.Hub.HandleWebSocket).Methods(http.MethodGet)

	// Health check and metrics
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.CallerHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
