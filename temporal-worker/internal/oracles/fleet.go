// Package oracles tracks the oracle identities this worker answers for.
package oracles

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
)

// Fleet holds registered oracles and picks the statuses they report.
type Fleet struct {
	mu      sync.RWMutex
	oracles map[string]models.OracleRegistration
	rnd     *rand.Rand
}

// NewFleet creates an empty fleet. seed drives status selection.
func NewFleet(seed int64) *Fleet {
	return &Fleet{
		oracles: make(map[string]models.OracleRegistration),
		rnd:     rand.New(rand.NewSource(seed)),
	}
}

// IDs returns count identities of the form prefix-N, starting at 1.
func IDs(prefix string, count int) []string {
	ids := make([]string, count)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%d", prefix, i+1)
	}
	return ids
}

// Add records a registration, replacing any earlier one for the same id.
func (f *Fleet) Add(reg models.OracleRegistration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.oracles[reg.ID] = reg
}

// Size returns the number of registered oracles.
func (f *Fleet) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.oracles)
}

// Matching returns, sorted, the oracles holding index.
func (f *Fleet) Matching(index int) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var ids []string
	for id, reg := range f.oracles {
		if reg.HasIndex(index) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// RandomStatus picks one of the defined status codes uniformly.
func (f *Fleet) RandomStatus() models.StatusCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.StatusCodes[f.rnd.Intn(len(models.StatusCodes))]
}
