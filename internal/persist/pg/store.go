// Package pg persists read-filter and entry-to-msg-map state to
// Postgres, keyed by name, plus named config templates from the same
// table family.
//
// Grounded on discovery-service/cmd/api/main.go's pgxpool.ParseConfig
// + pgxpool.NewWithConfig bootstrap and its otelpgx tracer wiring; the
// single key/blob table here stands in for that app's generated
// querier since fetchd's persisted state has no relational shape of
// its own worth a schema.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a Postgres-backed key/blob table: one row per named
// read-filter, entry-to-msg-map, or template.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres at url with OTel tracing on the
// connection, then ensures the backing table exists.
func Open(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("pg store: parse config: %w", err)
	}
	cfg.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg store: connect: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS fetchd_state (
			category   text NOT NULL,
			name       text NOT NULL,
			data       bytea NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (category, name)
		)`)
	if err != nil {
		return fmt.Errorf("pg store: migrate: %w", err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, category, name string) ([]byte, bool, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM fetchd_state WHERE category = $1 AND name = $2`,
		category, name,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("pg store: load %s/%s: %w", category, name, err)
	}
	return data, true, nil
}

func (s *Store) save(ctx context.Context, category, name string, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO fetchd_state (category, name, data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (category, name) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		category, name, data,
	)
	if err != nil {
		return fmt.Errorf("pg store: save %s/%s: %w", category, name, err)
	}
	return nil
}

// LoadReadFilter and the methods below implement the config package's
// Store contract, persisting each named resource under its own
// category so read-filters, msg-maps, and templates never collide.
func (s *Store) LoadReadFilter(name string) ([]byte, bool, error) {
	return s.load(context.Background(), "readfilter", name)
}

func (s *Store) SaveReadFilter(name string, data []byte) error {
	return s.save(context.Background(), "readfilter", name, data)
}

func (s *Store) LoadMsgMap(name string) ([]byte, bool, error) {
	return s.load(context.Background(), "msgmap", name)
}

func (s *Store) SaveMsgMap(name string, data []byte) error {
	return s.save(context.Background(), "msgmap", name, data)
}

func (s *Store) LoadTemplate(name string) ([]byte, error) {
	data, found, err := s.load(context.Background(), "template", name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("pg store: template %q not found", name)
	}
	return data, nil
}
