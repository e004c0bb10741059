package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	pingTimeout       = 5 * time.Second
	pgMaxOpenConns    = 25
	pgMaxIdleConns    = 25
	pgConnMaxLifetime = 30 * time.Minute
	pgConnMaxIdleTime = 5 * time.Minute
)

// dbtx is satisfied by both *sqlx.DB and *sqlx.Tx.
type dbtx interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Store is the relational record store for customers, products and sales.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Repos groups the repositories bound to one connection scope.
type Repos struct {
	Customers *CustomerRepo
	Products  *ProductRepo
	Inventory *InventoryRepo
	Sales     *SaleRepo
}

// Open connects to the database, checks it is reachable and creates the schema.
//
// SQLite runs on a single connection: write transactions are serialized and an
// in-memory database stays shared across calls. PostgreSQL takes row locks
// (SELECT ... FOR UPDATE) on every record read inside a transaction.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		db, err = sqlx.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	case DriverPostgres:
		db, err = sqlx.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(pgMaxOpenConns)
		db.SetMaxIdleConns(pgMaxIdleConns)
		db.SetConnMaxLifetime(pgConnMaxLifetime)
		db.SetConnMaxIdleTime(pgConnMaxIdleTime)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	s := &Store{db: db, driver: driver}
	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Driver() string { return s.driver }

// DB returns the underlying pool for low-level access.
func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Repos returns repositories bound to the pool. Use for reads outside a transaction.
func (s *Store) Repos() Repos { return s.bind(s.db, false) }

// InTx runs fn inside one transaction. Every read and write made through the
// Repos handed to fn commits or is discarded together.
func (s *Store) InTx(ctx context.Context, fn func(r Repos) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(s.bind(tx, true)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) bind(q dbtx, inTx bool) Repos {
	lock := ""
	if inTx && s.driver == DriverPostgres {
		lock = " FOR UPDATE"
	}
	return Repos{
		Customers: &CustomerRepo{q: q, lock: lock},
		Products:  &ProductRepo{q: q, lock: lock},
		Inventory: &InventoryRepo{q: q},
		Sales:     &SaleRepo{q: q, lock: lock},
	}
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := sqliteSchema
	if s.driver == DriverPostgres {
		stmts = postgresSchema
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

var sqliteSchema = []string{
	`PRAGMA foreign_keys = ON`,
	`CREATE TABLE IF NOT EXISTS customers(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE
)`,
	`CREATE TABLE IF NOT EXISTS products(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  price INTEGER NOT NULL CHECK (price >= 0),
  stock INTEGER NOT NULL CHECK (stock >= 0)
)`,
	`CREATE TABLE IF NOT EXISTS sales(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  customer_id INTEGER NOT NULL REFERENCES customers(id) ON DELETE RESTRICT,
  sold_at TEXT NOT NULL,
  total INTEGER NOT NULL CHECK (total >= 0)
)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_customer ON sales(customer_id)`,
	`CREATE TABLE IF NOT EXISTS sale_lines(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  sale_id INTEGER NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
  product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  unit_price INTEGER NOT NULL CHECK (unit_price >= 0)
)`,
	`CREATE INDEX IF NOT EXISTS idx_sale_lines_sale ON sale_lines(sale_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sale_lines_product ON sale_lines(product_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS customers(
  id BIGSERIAL PRIMARY KEY,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE
)`,
	`CREATE TABLE IF NOT EXISTS products(
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  price BIGINT NOT NULL CHECK (price >= 0),
  stock INTEGER NOT NULL CHECK (stock >= 0)
)`,
	`CREATE TABLE IF NOT EXISTS sales(
  id BIGSERIAL PRIMARY KEY,
  customer_id BIGINT NOT NULL REFERENCES customers(id) ON DELETE RESTRICT,
  sold_at TEXT NOT NULL,
  total BIGINT NOT NULL CHECK (total >= 0)
)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_customer ON sales(customer_id)`,
	`CREATE TABLE IF NOT EXISTS sale_lines(
  id BIGSERIAL PRIMARY KEY,
  sale_id BIGINT NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
  product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  unit_price BIGINT NOT NULL CHECK (unit_price >= 0)
)`,
	`CREATE INDEX IF NOT EXISTS idx_sale_lines_sale ON sale_lines(sale_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sale_lines_product ON sale_lines(product_id)`,
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE"))
	}
	return false
}
