// Package sqlstore implements backend.Actor on top of database/sql. SQLite is
// the default; PostgreSQL is selected by a postgres:// connection string.
package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/sutra/internal/backend"
	"github.com/julianstephens/sutra/internal/constants"
	apperrors "github.com/julianstephens/sutra/internal/errors"
	"github.com/julianstephens/sutra/internal/logger"
	"github.com/julianstephens/sutra/internal/migration"
	"github.com/julianstephens/sutra/internal/models"
	"github.com/julianstephens/sutra/migrations"
)

// Dialect selects the SQL driver and placeholder style
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Store owns the database handle shared by every Actor it creates
type Store struct {
	dialect Dialect
	dsn     string
	db      *sql.DB

	now   func() time.Time
	newID func() string
}

var timeNow = time.Now

// NewSQLite returns a store backed by the SQLite file at path.
func NewSQLite(path string) *Store {
	return &Store{
		dialect: DialectSQLite,
		dsn:     path,
		now:     timeNow,
		newID:   uuid.NewString,
	}
}

// Dialect reports which database the store talks to.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Location returns a non-sensitive description of the database.
func (s *Store) Location() string {
	if s.dialect == DialectPostgres {
		return "postgresql"
	}
	return s.dsn
}

// Init creates the database if needed and applies all pending migrations.
func (s *Store) Init(ctx context.Context, logFn func(string)) error {
	if s.dialect == DialectSQLite {
		if err := os.MkdirAll(filepath.Dir(s.dsn), 0700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := s.open(ctx); err != nil {
		return err
	}

	if s.dialect == DialectPostgres {
		if _, err := s.db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+schemaName); err != nil {
			return fmt.Errorf("failed to create schema: %w", wrapConnErr(err))
		}
	}

	if _, err := s.runner().ApplyMigrations(ctx, logFn); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Load opens an initialized database and checks that its schema matches.
func (s *Store) Load(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	if s.dialect == DialectSQLite {
		if _, err := os.Stat(s.dsn); os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'sutra init' first")
		}
	}

	if err := s.open(ctx); err != nil {
		return err
	}
	return s.runner().ValidateVersion(ctx)
}

// Migrate applies pending migrations to an already initialized database.
func (s *Store) Migrate(ctx context.Context, logFn func(string)) (int, error) {
	if s.db == nil {
		if err := s.open(ctx); err != nil {
			return 0, err
		}
	}
	return s.runner().ApplyMigrations(ctx, logFn)
}

// SchemaStatus reports the current and latest schema versions.
func (s *Store) SchemaStatus(ctx context.Context) (migration.Status, error) {
	if s.db == nil {
		return migration.Status{}, errors.New("database is not open")
	}
	return s.runner().Status(ctx)
}

// Ping opens an initialized database if needed and checks that it answers.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		if s.dialect == DialectSQLite {
			if _, err := os.Stat(s.dsn); err != nil {
				return fmt.Errorf("storage not initialized, run 'sutra init' first")
			}
		}
		if err := s.open(ctx); err != nil {
			return err
		}
	}
	return wrapConnErr(s.db.PingContext(ctx))
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Connect returns an actor bound to identity's principal.
func (s *Store) Connect(ctx context.Context, identity models.Identity) (backend.Actor, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%w: store is not open", apperrors.ErrClientNotReady)
	}
	if err := s.db.PingContext(ctx); err != nil {
		return nil, wrapConnErr(err)
	}
	principal := identity.Principal
	if identity.IsAnonymous() {
		principal = models.Anonymous().Principal
	}
	logger.Debug("Actor connected", "principal", principal, "dialect", s.dialect)
	return &Actor{store: s, principal: principal}, nil
}

func (s *Store) open(ctx context.Context) error {
	dsn := s.dsn
	if s.dialect == DialectSQLite {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open(string(s.dialect), dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	switch s.dialect {
	case DialectSQLite:
		// SQLite allows one writer at a time
		db.SetMaxOpenConns(1)
	case DialectPostgres:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return pingError(s.dsn, err)
		}
	}

	s.db = db
	return nil
}

func (s *Store) runner() *migration.Runner {
	sub, err := fs.Sub(migrations.FS, string(s.dialect))
	if err != nil {
		// the embedded tree is fixed at build time
		panic(fmt.Sprintf("missing embedded migrations for %s: %v", s.dialect, err))
	}
	var opts []migration.Option
	if s.dialect == DialectPostgres {
		opts = append(opts, migration.WithNumberedPlaceholders())
	}
	return migration.NewRunner(s.db, sub, opts...)
}

// rebind rewrites ? placeholders as $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, q execer, query string, args ...any) (sql.Result, error) {
	res, err := q.ExecContext(ctx, s.rebind(query), args...)
	return res, wrapConnErr(err)
}

func (s *Store) query(ctx context.Context, q execer, query string, args ...any) (*sql.Rows, error) {
	rows, err := q.QueryContext(ctx, s.rebind(query), args...)
	return rows, wrapConnErr(err)
}

func (s *Store) queryRow(ctx context.Context, q execer, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, s.rebind(query), args...)
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapConnErr(err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return wrapConnErr(tx.Commit())
}

// wrapConnErr tags transport failures with ErrConnectivity so callers can
// classify them without knowing the driver.
func wrapConnErr(err error) error {
	if err == nil || errors.Is(err, apperrors.ErrConnectivity) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", apperrors.ErrConnectivity, err)
	}
	return err
}

func (s *Store) today() string {
	return s.now().Format(constants.DateFormat)
}
