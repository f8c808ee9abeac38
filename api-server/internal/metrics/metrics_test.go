package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVault struct{}

func (fakeVault) VaultBalance() int64  { return 1_500_000_000 }
func (fakeVault) Liabilities() int64   { return 150_000_000 }
func (fakeVault) RegisteredCount() int { return 4 }

func TestCollector_ObserveEvent(t *testing.T) {
	c := NewCollector()

	c.ObserveEvent(models.Event{Type: models.EventInsureeCredited, Amount: 150_000_000})
	c.ObserveEvent(models.Event{Type: models.EventInsureeCredited, Amount: 75_000_000})
	c.ObserveEvent(models.Event{Type: models.EventPayoutWithdrawn, Amount: 150_000_000})
	c.ObserveEvent(models.Event{Type: models.EventFlightStatusInfo, StatusCode: models.StatusLateAirline})

	assert.Equal(t, float64(2), testutil.ToFloat64(c.events.WithLabelValues(string(models.EventInsureeCredited))))
	assert.Equal(t, float64(225_000_000), testutil.ToFloat64(c.credited))
	assert.Equal(t, float64(150_000_000), testutil.ToFloat64(c.withdrawn))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.statusInfos.WithLabelValues(models.StatusLateAirline.String())))
}

func TestCollector_RegisterVault(t *testing.T) {
	c := NewCollector()
	c.RegisterVault(fakeVault{})

	expected := `
# HELP flight_surety_vault_liabilities_minor_units Credited payouts not yet withdrawn.
# TYPE flight_surety_vault_liabilities_minor_units gauge
flight_surety_vault_liabilities_minor_units 1.5e+08
`
	err := testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "flight_surety_vault_liabilities_minor_units")
	require.NoError(t, err)
}

func TestCollector_InstrumentHandler(t *testing.T) {
	c := NewCollector()

	r := mux.NewRouter()
	r.Use(c.InstrumentHandler)
	r.HandleFunc("/api/flights/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)
	r.Handle("/metrics", c.Handler())

	for _, id := range []string{"ND1309", "ND1310"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/flights/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/api/flights/{id}", "404")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "flight_surety_http_requests_total")
}
