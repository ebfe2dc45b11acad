package historystore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/synergy-circle/internal/domain/discovery"
)

const createAnalysesTable = `
	CREATE TABLE IF NOT EXISTS analyses (
		id          UUID PRIMARY KEY,
		profile_url TEXT NOT NULL,
		result      JSONB NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS analyses_created_at_idx ON analyses (created_at DESC);
`

// querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists analyses in Postgres.
type PostgresStore struct {
	db   querier
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewPostgresStore creates a new store. Records older than ttl are hidden (0 keeps all).
func NewPostgresStore(pool *pgxpool.Pool, ttl time.Duration) *PostgresStore {
	return &PostgresStore{db: pool, pool: pool, ttl: ttl}
}

// EnsureSchema creates the analyses table when absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, createAnalysesTable)
	return err
}

// Save inserts one record.
func (s *PostgresStore) Save(ctx context.Context, rec discovery.Record) error {
	payload, err := json.Marshal(rec.Result)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO analyses (id, profile_url, result, created_at)
		VALUES ($1, $2, $3, $4)
	`, rec.ID, rec.ProfileURL, payload, rec.CreatedAt)
	return err
}

// Get fetches by primary key.
func (s *PostgresStore) Get(ctx context.Context, id string) (discovery.Record, bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return discovery.Record{}, false, nil
	}
	row := s.db.QueryRow(ctx, `
		SELECT id::text, profile_url, result, created_at
		FROM analyses
		WHERE id = $1 AND ($2::float8 = 0 OR created_at > now() - make_interval(secs => $2::float8))
	`, id, s.ttlSeconds())
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return discovery.Record{}, false, nil
		}
		return discovery.Record{}, false, err
	}
	return rec, true, nil
}

// Recent lists the newest records first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]discovery.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
		SELECT id::text, profile_url, result, created_at
		FROM analyses
		WHERE $2::float8 = 0 OR created_at > now() - make_interval(secs => $2::float8)
		ORDER BY created_at DESC
		LIMIT $1
	`, limit, s.ttlSeconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]discovery.Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ttlSeconds is 0 when records never expire.
func (s *PostgresStore) ttlSeconds() float64 {
	if s.ttl <= 0 {
		return 0
	}
	return s.ttl.Seconds()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (discovery.Record, error) {
	var (
		rec     discovery.Record
		payload []byte
		created time.Time
	)
	if err := row.Scan(&rec.ID, &rec.ProfileURL, &payload, &created); err != nil {
		return discovery.Record{}, err
	}
	if err := json.Unmarshal(payload, &rec.Result); err != nil {
		return discovery.Record{}, err
	}
	rec.CreatedAt = created.UTC()
	return rec, nil
}

var _ discovery.HistoryStore = (*PostgresStore)(nil)
