package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cx-tal-miterani/flight-surety-system/api-server/internal/middleware"
	"github.com/cx-tal-miterani/flight-surety-system/api-server/internal/service"
	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/cx-tal-miterani/flight-surety-system/shared/surety"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// CallerHeader carries the identity of the account making the request.
const CallerHeader = middleware.CallerHeader

const defaultListLimit = 50

// Handler contains HTTP handlers for the API
type Handler struct {
	surety service.SuretyService
	log    logrus.FieldLogger
}

// NewHandler creates a new Handler instance
func NewHandler(suretyService service.SuretyService, log logrus.FieldLogger) *Handler {
	return &Handler{
		surety: suretyService,
		log:    log.WithField("component", "handlers"),
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondFailure maps an engine error onto its HTTP status.
func (h *Handler) respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, surety.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, surety.ErrNotOperational):
		return http.StatusServiceUnavailable
	case errors.Is(err, surety.ErrInvalidAmount), errors.Is(err, surety.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, surety.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, surety.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, surety.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// callerFrom returns the caller identity, writing 401 when it is missing.
func callerFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := r.Header.Get(CallerHeader)
	if caller == "" {
		respondError(w, http.StatusUnauthorized, CallerHeader+" header is required")
		return "", false
	}
	return caller, true
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func limitFrom(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return limit
}

// GetStatus handles GET /api/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.surety.Status(r.Context()))
}

// SetOperational handles PUT /api/status
func (h *Handler) SetOperational(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req models.SetOperationalRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.surety.SetOperational(r.Context(), caller, req.Operational); err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.surety.Status(r.Context()))
}

// Authorize handles POST /api/authorizations
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req models.AuthorizeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		respondError(w, http.StatusBadRequest, "ID is required")
		return
	}
	if err := h.surety.Authorize(r.Context(), caller, req.ID); err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, req)
}

// Revoke handles DELETE /api/authorizations/{id}
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	if err := h.surety.Revoke(r.Context(), caller, mux.Vars(r)["id"]); err != nil {
		h.respondFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Deposit handles POST /api/vault/deposits
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req models.ValueRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.surety.Deposit(r.Context(), caller, req.Value); err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.surety.Status(r.Context()))
}

// GetVaultTransfers handles GET /api/vault/transfers
func (h *Handler) GetVaultTransfers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.surety.VaultTransfers(r.Context(), limitFrom(r)))
}

// GetAirlines handles GET /api/airlines
func (h *Handler) GetAirlines(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.surety.ListAirlines(r.Context()))
}

// GetAirline handles GET /api/airlines/{id}
func (h *Handler) GetAirline(w http.ResponseWriter, r *http.Request) {
	airline, err := h.surety.GetAirline(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, airline)
}

// GetAirlineApplication handles GET /api/airlines/{id}/application
func (h *Handler) GetAirlineApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.surety.GetEnqueuedAirline(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, app)
}

// RegisterAirline handles POST /api/airlines
func (h *Handler) RegisterAirline(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req models.RegisterAirlineRequest
	if !decode(w, r, &req) {
		return
	}
	if req.AirlineID == "" {
		respondError(w, http.StatusBadRequest, "Airline ID is required")
		return
	}

	admission, err := h.surety.RegisterAirline(r.Context(), caller, &req)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	status := http.StatusAccepted
	if admission.Admitted {
		status = http.StatusCreated
	}
	respondJSON(w, status, admission)
}

// FundAirline handles POST /api/airlines/funding
func (h *Handler) FundAirline(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req models.ValueRequest
	if !decode(w, r, &req) {
		return
	}
	airline, err := h.surety.FundAirline(r.Context(), caller, req.Value)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, airline)
}

// GetFlights handles GET /api/flights
func (h *Handler) GetFlights(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.surety.ListFlights(r.Context()))
}

// GetFlight handles GET /api/flights/{id}
func (h *Handler) GetFlight(w http.ResponseWriter, r *http.Request) {
	flight, err := h.surety.GetFlight(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, flight)
}

// RegisterFlight handles POST /api/flights
func (h *Handler) RegisterFlight(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req models.RegisterFlightRequest
	if !decode(w, r, &req) {
		return
	}
	if req.FlightID == "" {
		respondError(w, http.StatusBadRequest, "Flight ID is required")
		return
	}

	flight, err := h.surety.RegisterFlight(r.Context(), caller, &req)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, flight)
}

// FetchFlightStatus handles POST /api/flights/{id}/status-requests
func (h *Handler) FetchFlightStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	// The body is optional; the flight's own airline and departure apply.
	var req models.FetchFlightStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.surety.FetchFlightStatus(r.Context(), caller, mux.Vars(r)["id"], &req)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, res)
}

// GetInsurance handles GET /api/flights/{id}/insurance
func (h *Handler) GetInsurance(w http.ResponseWriter, r *http.Request) {
	passenger := r.URL.Query().Get("passenger")
	if passenger == "" {
		passenger = r.Header.Get(CallerHeader)
	}
	if passenger == "" {
		respondError(w, http.StatusBadRequest, "Passenger is required")
		return
	}

	policy, err := h.surety.GetInsurance(r.Context(), mux.Vars(r)["id"], passenger)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, policy)
}

// BuyInsurance handles POST /api/flights/{id}/insurance
func (h *Handler) BuyInsurance(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req models.ValueRequest
	if !decode(w, r, &req) {
		return
	}

	policy, err := h.surety.BuyInsurance(r.Context(), caller, mux.Vars(r)["id"], req.Value)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, policy)
}

// Withdraw handles POST /api/flights/{id}/insurance/withdrawals
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	res, err := h.surety.Withdraw(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// RegisterOracle handles POST /api/oracles
func (h *Handler) RegisterOracle(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req models.RegisterOracleRequest
	if !decode(w, r, &req) {
		return
	}

	reg, err := h.surety.RegisterOracle(r.Context(), caller, req.Bond)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, reg)
}

// GetOracle handles GET /api/oracles/{id}
func (h *Handler) GetOracle(w http.ResponseWriter, r *http.Request) {
	reg, err := h.surety.GetOracle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reg)
}

// SubmitOracleResponse handles POST /api/oracles/responses
func (h *Handler) SubmitOracleResponse(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req models.OracleResponseRequest
	if !decode(w, r, &req) {
		return
	}

	outcome, err := h.surety.SubmitOracleResponse(r.Context(), caller, &req)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, outcome)
}

// GetEvents handles GET /api/events
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.surety.RecentEvents(r.Context(), limitFrom(r)))
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
