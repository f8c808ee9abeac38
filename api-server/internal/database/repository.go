package database

import (
	"context"
	"fmt"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles all database operations
type Repository struct {
	pool *pgxpool.Pool
}

// Connect opens a connection pool and verifies it with a ping
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the journal tables if they are missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveEvent appends an event to the journal. Saving the same event twice is
// a no-op.
func (r *Repository) SaveEvent(ctx context.Context, ev models.Event) error {
	rec, err := NewEventRecord(ev)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO surety_events (id, seq, type, flight_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, rec.ID, int64(rec.Seq), string(rec.Type), rec.FlightID, rec.Payload, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

// ListEvents returns up to limit events with seq greater than afterSeq, in
// commit order
func (r *Repository) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]models.Event, error) {
	return r.queryEvents(ctx, `
		SELECT id, seq, type, flight_id, payload, created_at
		FROM surety_events
		WHERE seq > $1
		ORDER BY seq ASC
		LIMIT $2
	`, int64(afterSeq), limit)
}

// ListFlightEvents returns every journaled event for a flight, in commit
// order
func (r *Repository) ListFlightEvents(ctx context.Context, flightID string) ([]models.Event, error) {
	return r.queryEvents(ctx, `
		SELECT id, seq, type, flight_id, payload, created_at
		FROM surety_events
		WHERE flight_id = $1
		ORDER BY seq ASC
	`, flightID)
}

func (r *Repository) queryEvents(ctx context.Context, query string, args ...interface{}) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var rec EventRecord
		var seq int64
		var typ string
		if err := rows.Scan(&rec.ID, &seq, &typ, &rec.FlightID, &rec.Payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		rec.Seq = uint64(seq)
		rec.Type = models.EventType(typ)

		ev, err := rec.Event()
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return events, nil
}
