// Package sqlite implements identity.Store on an embedded SQLite database
// (modernc.org/sqlite, no cgo) with schema managed by golang-migrate.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/identity"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const selectColumns = `id, username, email, password_hash, created_at, is_superuser, is_totp_enabled, is_active`

// Store is a SQLite-backed identity store.
type Store struct {
	db *sql.DB
}

// Open opens dsn, enables foreign keys and applies pending migrations.
// In-memory databases are pinned to one connection so every query sees the
// same database.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := New(db)
	if err := s.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("identity sqlite migrations: %w", err)
	}
	return s, nil
}

// New wraps an already opened database. The schema must exist.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (identity.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM principals WHERE id = ?`, id)
	return scanRecord(row)
}

func (s *Store) FindByUsername(ctx context.Context, username string) (identity.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM principals WHERE username = ?`, username)
	return scanRecord(row)
}

func (s *Store) Create(ctx context.Context, rec identity.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO principals (`+selectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Username,
		rec.Email,
		rec.PasswordHash,
		rec.CreatedAt.Unix(),
		rec.IsSuperuser,
		rec.IsTotpEnabled,
		rec.IsActive,
	)
	return mapWriteErr(err)
}

func (s *Store) Update(ctx context.Context, id string, u identity.Update) (identity.Record, error) {
	if u.Empty() {
		return s.FindByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	if u.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *u.Username)
	}
	if u.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *u.Email)
	}
	if u.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *u.PasswordHash)
	}
	args = append(args, id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return identity.Record{}, unavailable(err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE principals SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return identity.Record{}, mapWriteErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return identity.Record{}, unavailable(err)
	}
	if n == 0 {
		return identity.Record{}, identity.ErrNotFound
	}

	rec, err := scanRecord(tx.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM principals WHERE id = ?`, id))
	if err != nil {
		return identity.Record{}, err
	}
	if err := tx.Commit(); err != nil {
		return identity.Record{}, unavailable(err)
	}
	return rec, nil
}

func scanRecord(row *sql.Row) (identity.Record, error) {
	var (
		rec       identity.Record
		createdAt int64
	)
	err := row.Scan(
		&rec.ID,
		&rec.Username,
		&rec.Email,
		&rec.PasswordHash,
		&createdAt,
		&rec.IsSuperuser,
		&rec.IsTotpEnabled,
		&rec.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return identity.Record{}, identity.ErrNotFound
		}
		return identity.Record{}, unavailable(err)
	}
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	return rec, nil
}

func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return identity.ErrConflict
	}
	return unavailable(err)
}

func isUniqueViolation(err error) bool {
	var se *sqlitedrv.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
}
