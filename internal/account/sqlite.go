package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aatumaykin/subpurge/internal/logger"
	_ "modernc.org/sqlite"
)

// SQLStore keeps accounts and comments in SQLite.
type SQLStore struct {
	db     *sql.DB
	logger *logger.Logger
}

// OpenSQLite opens (or creates) the SQLite database and runs migrations.
func OpenSQLite(path string, log *logger.Logger) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Один писатель: SQLite сериализует запись, а :memory: живёт в одном соединении.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &SQLStore{db: db, logger: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		login TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		registered TEXT NOT NULL,
		roles TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_users_registered ON users(registered);

	CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		created_at TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_comments_user ON comments(user_id);
	`)
	return err
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// FindAccounts implements Finder. Roles are matched against the
// comma-separated roles column; registered is compared as UTC text.
// Rejected rows do not use up the limit: further pages are read until limit
// usable accounts are found or the rows run out.
func (s *SQLStore) FindAccounts(ctx context.Context, role string, registeredBefore time.Time, limit int) ([]Account, error) {
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

// findPage reads one page of candidate rows. scanned counts every row read,
// including the ones Normalize rejected.
func (s *SQLStore) findPage(ctx context.Context, role string, registeredBefore time.Time, pageSize, offset int) (out []Account, scanned int, err error) {
	query := `
		SELECT id, login, email, registered, roles
		FROM users
		WHERE (',' || roles || ',') LIKE ('%,' || lower(?) || ',%')
		  AND registered <= ?
		ORDER BY registered ASC, id ASC`
	args := []any{role, FormatRegistered(registeredBefore)}
	if pageSize > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, pageSize, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a     Account
			roles string
		)
		if err := rows.Scan(&a.ID, &a.Login, &a.Email, &a.RegisteredRaw, &roles); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		scanned++
		a.Roles = splitRoles(roles)

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
func (s *SQLStore) CountEngagement(ctx context.Context, accountID int64) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE user_id = ?`, accountID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count comments of %d: %w", accountID, err)
	}
	return n, nil
}

// DeleteAccount implements Deleter. Comments are removed with the user.
func (s *SQLStore) DeleteAccount(ctx context.Context, accountID int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE user_id = ?`, accountID); err != nil {
		return false, fmt.Errorf("delete comments of %d: %w", accountID, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, accountID)
	if err != nil {
		return false, fmt.Errorf("delete user %d: %w", accountID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// InsertAccount stores an account. A zero Registered keeps RegisteredRaw as-is,
// so tests can seed unparsable values.
func (s *SQLStore) InsertAccount(ctx context.Context, a Account) error {
	registered := a.RegisteredRaw
	if !a.Registered.IsZero() {
		registered = FormatRegistered(a.Registered)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, login, email, registered, roles) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Login, a.Email, registered, joinRoles(a.Roles))
	if err != nil {
		return fmt.Errorf("insert user %d: %w", a.ID, err)
	}
	return nil
}

// AddComment records one comment by accountID.
func (s *SQLStore) AddComment(ctx context.Context, accountID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (user_id, created_at) VALUES (?, ?)`, accountID, FormatRegistered(at))
	return err
}

// GetAccount loads one account by id.
func (s *SQLStore) GetAccount(ctx context.Context, id int64) (Account, error) {
	var (
		a     Account
		roles string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, login, email, registered, roles FROM users WHERE id = ?`, id).
		Scan(&a.ID, &a.Login, &a.Email, &a.RegisteredRaw, &roles)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	a.Roles = splitRoles(roles)
	return Normalize(a)
}
