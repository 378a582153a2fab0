package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"trackgen/api/internal/track"
)

const schema = `
create table if not exists tracks (
  id         text primary key,
  doc        jsonb not null,
  created_at timestamptz not null default now()
);
create index if not exists tracks_created_at_idx on tracks (created_at);`

// PostgresRepo stores each track as a JSONB document keyed by id.
type PostgresRepo struct{ DB *sql.DB }

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{DB: db} }

// OpenPostgres opens a pgx-backed pool and verifies it.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresRepo(db), nil
}

// Migrate creates the tracks table if it is missing.
func (r *PostgresRepo) Migrate(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schema)
	return err
}

func (r *PostgresRepo) Insert(ctx context.Context, t track.Track) error {
	js, err := json.Marshal(t)
	if err != nil {
		return err
	}
	const q = `insert into tracks (id, doc, created_at) values ($1, $2, $3)`
	if _, err := r.DB.ExecContext(ctx, q, t.ID, js, t.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
		}
		return err
	}
	return nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]track.Track, error) {
	const q = `select doc from tracks order by created_at, id`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []track.Track{}
	for rows.Next() {
		var js []byte
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var t track.Track
		if err := json.Unmarshal(js, &t); err != nil {
			return nil, fmt.Errorf("decode track doc: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (track.Track, error) {
	const q = `select doc from tracks where id = $1`
	var js []byte
	if err := r.DB.QueryRowContext(ctx, q, id).Scan(&js); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return track.Track{}, ErrNotFound
		}
		return track.Track{}, err
	}
	var t track.Track
	if err := json.Unmarshal(js, &t); err != nil {
		return track.Track{}, fmt.Errorf("decode track doc %s: %w", id, err)
	}
	return t, nil
}

func (r *PostgresRepo) Ping(ctx context.Context) error { return r.DB.PingContext(ctx) }

func (r *PostgresRepo) Close(context.Context) error { return r.DB.Close() }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
