// Package ledger is the durable record of forwarded sales. Rows are
// append-only: written once after a relay is accepted, never mutated or
// deleted by this service.
package ledger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saletrack/conversion-relay/internal/identity"
	"github.com/saletrack/conversion-relay/internal/models"
)

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

// ErrUnavailable wraps any storage-layer failure so the orchestrator can
// apply its configured ledger failure policy without inspecting pgx errors.
var ErrUnavailable = errors.New("ledger unavailable")

// Record is the persisted shape of an accepted sale. The email is stored as
// its digest only; the raw address never reaches the ledger.
type Record struct {
	Key           identity.Key
	AmountCents   int64
	CustomerName  string
	EmailDigest   string
	UTM           models.Attribution
	FBP           string
	FBC           string
	CorrelationID string
}

// PostgresLedger is the Postgres-backed ledger implementation.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a connection pool and fails fast if the DB is unreachable.
func NewPostgres(dbURL string) (*PostgresLedger, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresLedger{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresLedger) EnsureSchema() error {
	_, err := p.pool.Exec(context.Background(), schemaSQL)
	return err
}

// Ping is used by the readiness endpoint to validate DB connectivity.
func (p *PostgresLedger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresLedger) Close() {
	p.pool.Close()
}

// Exists reports whether a sale with the given key was already recorded.
// This is a read-only pre-check to avoid a wasted relay call; RecordIfAbsent
// remains the source of truth for uniqueness.
func (p *PostgresLedger) Exists(ctx context.Context, key identity.Key) (bool, error) {
	var one int
	err := p.pool.QueryRow(ctx,
		`SELECT 1 FROM forwarded_sales WHERE event_key = $1`, string(key),
	).Scan(&one)

	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("%w: exists check: %v", ErrUnavailable, err)
}

// RecordIfAbsent persists a record and returns inserted=false when the key is
// already present.
//
// Duplicate detection is enforced by the UNIQUE constraint on event_key,
// which is compatible with retries and concurrent same-sale submissions.
func (p *PostgresLedger) RecordIfAbsent(ctx context.Context, rec Record) (bool, error) {
	// RETURNING 1 only when inserted; duplicates return no rows.
	var one int
	err := p.pool.QueryRow(ctx, `
		INSERT INTO forwarded_sales(
			event_key, amount_cents, customer_name, email_digest,
			utm_source, utm_medium, utm_campaign, utm_content, utm_term,
			fbp, fbc, correlation_id
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (event_key) DO NOTHING
		RETURNING 1
	`,
		string(rec.Key), rec.AmountCents, rec.CustomerName, rec.EmailDigest,
		rec.UTM.Source, rec.UTM.Medium, rec.UTM.Campaign, rec.UTM.Content, rec.UTM.Term,
		rec.FBP, rec.FBC, rec.CorrelationID,
	).Scan(&one)

	if err == nil {
		return true, nil
	}
	// Conflict produces no rows because RETURNING returns nothing.
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("%w: insert sale: %v", ErrUnavailable, err)
}
