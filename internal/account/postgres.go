package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aatumaykin/subpurge/internal/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore reads accounts from a Postgres schema with the tables
// users(id, login, email, registered timestamptz, roles text[]) and comments(id, user_id).
type PostgresStore struct {
	pool     *pgxpool.Pool
	users    string
	comments string
	schema   string
	logger   *logger.Logger
}

// ConnectPostgres creates a pool and verifies connectivity.
func ConnectPostgres(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// NewPostgresStore wraps pool. schema defaults to "public".
func NewPostgresStore(pool *pgxpool.Pool, schema string, log *logger.Logger) *PostgresStore {
	if schema == "" {
		schema = "public"
	}
	return &PostgresStore{
		pool:     pool,
		schema:   schema,
		users:    pgx.Identifier{schema, "users"}.Sanitize(),
		comments: pgx.Identifier{schema, "comments"}.Sanitize(),
		logger:   log,
	}
}

// Migrate creates the schema and tables when they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS ` + pgx.Identifier{s.schema}.Sanitize(),
		`CREATE TABLE IF NOT EXISTS ` + s.users + ` (
			id BIGINT PRIMARY KEY,
			login TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			registered TIMESTAMPTZ,
			roles TEXT[] NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS ` + s.comments + ` (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// FindAccounts implements Finder. Rows with a NULL registered value surface with
// a zero Registered and are treated as older than any cutoff. Rejected rows do
// not use up the limit.
func (s *PostgresStore) FindAccounts(ctx context.Context, role string, registeredBefore time.Time, limit int) ([]Account, error) {
	var out []Account
	offset := 0
	for {
		pageSize := 0
		if limit > 0 {
			pageSize = limit - len(out)
		}
		page, scanned, err := s.findPage(ctx, role, registeredBefore, pageSize, offset)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if pageSize == 0 || scanned < pageSize || len(out) >= limit {
			return out, nil
		}
		offset += scanned
	}
}

func (s *PostgresStore) findPage(ctx context.Context, role string, registeredBefore time.Time, pageSize, offset int) (out []Account, scanned int, err error) {
	var lim *int
	if pageSize > 0 {
		lim = &pageSize
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, login, email, registered, roles
		FROM `+s.users+`
		WHERE lower($1) = ANY(roles)
		  AND (registered IS NULL OR registered <= $2)
		ORDER BY registered ASC NULLS FIRST, id ASC
		LIMIT $3 OFFSET $4
	`, role, registeredBefore.UTC(), lim, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a          Account
			registered *time.Time
		)
		if err := rows.Scan(&a.ID, &a.Login, &a.Email, &registered, &a.Roles); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		scanned++
		if registered != nil {
			a.Registered = registered.UTC()
			a.RegisteredRaw = FormatRegistered(*registered)
		}

		n, err := Normalize(a)
		if err != nil {
			s.logger.Warn("skipping invalid account record",
				logger.Field{Key: "account_id", Value: a.ID},
				logger.Field{Key: "error", Value: err.Error()})
			continue
		}
		out = append(out, n)
	}
	return out, scanned, rows.Err()
}

// CountEngagement implements EngagementCounter.
func (s *PostgresStore) CountEngagement(ctx context.Context, accountID int64) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+s.comments+` WHERE user_id = $1`, accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count comments of %d: %w", accountID, err)
	}
	return n, nil
}

// DeleteAccount implements Deleter.
func (s *PostgresStore) DeleteAccount(ctx context.Context, accountID int64) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM `+s.comments+` WHERE user_id = $1`, accountID); err != nil {
		return false, fmt.Errorf("delete comments of %d: %w", accountID, err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM `+s.users+` WHERE id = $1`, accountID)
	if err != nil {
		return false, fmt.Errorf("delete user %d: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// InsertAccount stores an account (seeding and tests).
func (s *PostgresStore) InsertAccount(ctx context.Context, a Account) error {
	var registered *time.Time
	if !a.Registered.IsZero() {
		r := a.Registered.UTC()
		registered = &r
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.users+` (id, login, email, registered, roles) VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Login, a.Email, registered, normalizeRoles(a.Roles))
	return err
}

// AddComment records one comment by accountID.
func (s *PostgresStore) AddComment(ctx context.Context, accountID int64, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.comments+` (user_id, created_at) VALUES ($1, $2)`, accountID, at.UTC())
	return err
}

// GetAccount loads one account by id.
func (s *PostgresStore) GetAccount(ctx context.Context, id int64) (Account, error) {
	var (
		a          Account
		registered *time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, login, email, registered, roles FROM `+s.users+` WHERE id = $1`, id).
		Scan(&a.ID, &a.Login, &a.Email, &registered, &a.Roles)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	if registered != nil {
		a.Registered = registered.UTC()
	}
	return Normalize(a)
}
