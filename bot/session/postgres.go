package session

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

const backendPostgres = "postgres"

// loadOrCreate inserts the default record unless one exists and returns
// whichever row is now stored. Both branches see the same statement snapshot,
// so exactly one of them yields a row unless a concurrent insert commits
// in between; Load retries that case once.
const loadOrCreateQuery = `
WITH ins AS (
	INSERT INTO bot_sessions (key, data)
	VALUES ($1, $2)
	ON CONFLICT (key) DO NOTHING
	RETURNING data
)
SELECT data FROM ins
UNION ALL
SELECT data FROM bot_sessions WHERE key = $1
LIMIT 1`

const saveQuery = `
INSERT INTO bot_sessions (key, data, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`

// PostgresStore keeps sessions in the bot_sessions table as JSONB.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Load(ctx context.Context, key string) (Session, error) {
	def, err := encode(Default())
	if err != nil {
		return Session{}, storeErr(backendPostgres, "load", err)
	}
	var raw types.JSONText
	for attempt := 0; attempt < 2; attempt++ {
		err = p.db.GetContext(ctx, &raw, loadOrCreateQuery, key, types.JSONText(def))
		if !errors.Is(err, sql.ErrNoRows) {
			break
		}
	}
	if err != nil {
		return Session{}, storeErr(backendPostgres, "load", err)
	}
	s, err := decode(ctx, backendPostgres, raw)
	if err != nil {
		return Session{}, storeErr(backendPostgres, "load", err)
	}
	return s, nil
}

func (p *PostgresStore) Save(ctx context.Context, key string, s Session) error {
	data, err := encode(s)
	if err != nil {
		return storeErr(backendPostgres, "save", err)
	}
	if _, err := p.db.ExecContext(ctx, saveQuery, key, types.JSONText(data)); err != nil {
		return storeErr(backendPostgres, "save", err)
	}
	return nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return storeErr(backendPostgres, "ping", err)
	}
	return nil
}
