// Package postgres implements identity.Store on PostgreSQL through pgxpool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultSchema = "gosession"

const columns = `id, username, email, password_hash, created_at, is_superuser, is_totp_enabled, is_active`

// Store persists principals in PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	schema string
}

// Option configures Store.
type Option func(*Store) error

// WithSchema sets the schema holding the principals table (default: "gosession").
func WithSchema(schema string) Option {
	return func(s *Store) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return errors.New("postgres identity store: empty schema")
		}
		s.schema = schema
		return nil
	}
}

// NewStore constructs a Store over an existing pool.
func NewStore(pool *pgxpool.Pool, opts ...Option) (*Store, error) {
	s := &Store{pool: pool, schema: defaultSchema}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.pool == nil {
		return nil, errors.New("postgres identity store: nil pool")
	}
	return s, nil
}

// NewPool parses dsn, connects and verifies connectivity. maxConns <= 0 keeps
// the pgx default.
func NewPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := Ping(ctx, pool, 3*time.Second); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Ping checks that a connection can be acquired within timeout.
func Ping(parent context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	conn.Release()
	return nil
}

// Ping checks the pool is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := Ping(ctx, s.pool, 3*time.Second); err != nil {
		return unavailable(err)
	}
	return nil
}

// EnsureSchema creates the schema and principals table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS ` + pgx.Identifier{s.schema}.Sanitize(),
		`CREATE TABLE IF NOT EXISTS ` + s.table() + ` (
			id              TEXT PRIMARY KEY,
			username        TEXT NOT NULL UNIQUE,
			email           TEXT NOT NULL,
			password_hash   TEXT NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL,
			is_superuser    BOOLEAN NOT NULL DEFAULT FALSE,
			is_totp_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			is_active       BOOLEAN NOT NULL DEFAULT TRUE
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return unavailable(err)
		}
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (identity.Record, error) {
	return scanRecord(s.pool.QueryRow(ctx, `SELECT `+columns+` FROM `+s.table()+` WHERE id = $1`, id))
}

func (s *Store) FindByUsername(ctx context.Context, username string) (identity.Record, error) {
	return scanRecord(s.pool.QueryRow(ctx, `SELECT `+columns+` FROM `+s.table()+` WHERE username = $1`, username))
}

func (s *Store) Create(ctx context.Context, rec identity.Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.table()+` (`+columns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID,
		rec.Username,
		rec.Email,
		rec.PasswordHash,
		rec.CreatedAt.UTC(),
		rec.IsSuperuser,
		rec.IsTotpEnabled,
		rec.IsActive,
	)
	return mapWriteErr(err)
}

// Update applies u in a single statement and returns the updated row.
func (s *Store) Update(ctx context.Context, id string, u identity.Update) (identity.Record, error) {
	if u.Empty() {
		return s.FindByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	add := func(col, val string) {
		args = append(args, val)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if u.Username != nil {
		add("username", *u.Username)
	}
	if u.Email != nil {
		add("email", *u.Email)
	}
	if u.PasswordHash != nil {
		add("password_hash", *u.PasswordHash)
	}
	args = append(args, id)

	row := s.pool.QueryRow(ctx,
		`UPDATE `+s.table()+` SET `+strings.Join(sets, ", ")+
			` WHERE id = $`+strconv.Itoa(len(args))+` RETURNING `+columns,
		args...,
	)
	rec, err := scanRecord(row)
	if err != nil && isUniqueViolation(err) {
		return identity.Record{}, identity.ErrConflict
	}
	return rec, err
}

func (s *Store) table() string {
	return pgx.Identifier{s.schema, "principals"}.Sanitize()
}

func scanRecord(row pgx.Row) (identity.Record, error) {
	var rec identity.Record
	err := row.Scan(
		&rec.ID,
		&rec.Username,
		&rec.Email,
		&rec.PasswordHash,
		&rec.CreatedAt,
		&rec.IsSuperuser,
		&rec.IsTotpEnabled,
		&rec.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity.Record{}, identity.ErrNotFound
		}
		if isUniqueViolation(err) {
			return identity.Record{}, err
		}
		return identity.Record{}, unavailable(err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
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
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" // unique_violation
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
}
