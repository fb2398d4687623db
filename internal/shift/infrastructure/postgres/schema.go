package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	shift "shift-reconcile/internal/shift/domain"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	price NUMERIC NOT NULL CHECK (price >= 0),
	product_type TEXT NOT NULL CHECK (product_type IN ('fuel', 'lubricant'))
)`,
	`CREATE TABLE IF NOT EXISTS hoses (
	dispenser_no INTEGER NOT NULL,
	hose_no INTEGER NOT NULL,
	product_name TEXT NOT NULL REFERENCES products(name),
	previous_reading NUMERIC NOT NULL DEFAULT 0 CHECK (previous_reading >= 0),
	PRIMARY KEY (dispenser_no, hose_no)
)`,
	`CREATE TABLE IF NOT EXISTS payment_methods (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	category TEXT NOT NULL CHECK (category IN ('cash', 'card', 'other'))
)`,
	`CREATE TABLE IF NOT EXISTS attendants (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'forecourt',
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS shifts (
	id TEXT PRIMARY KEY,
	station_id TEXT NOT NULL,
	shift_date DATE NOT NULL,
	label TEXT NOT NULL,
	total_station_revenue NUMERIC NOT NULL,
	synced BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT shifts_station_date_label_key UNIQUE (station_id, shift_date, label)
)`,
	`CREATE TABLE IF NOT EXISTS attendant_snapshots (
	id TEXT PRIMARY KEY,
	shift_id TEXT NOT NULL REFERENCES shifts(id),
	attendant_id TEXT NOT NULL REFERENCES attendants(id),
	position INTEGER NOT NULL,
	attendant_name TEXT NOT NULL,
	role TEXT NOT NULL,
	fuel_allocation NUMERIC NOT NULL,
	lubricant_total NUMERIC NOT NULL,
	in_store_sales NUMERIC NOT NULL,
	payment_total NUMERIC NOT NULL,
	difference NUMERIC NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS attendant_snapshots_shift_idx ON attendant_snapshots (shift_id)`,
	`CREATE TABLE IF NOT EXISTS payment_details (
	id TEXT PRIMARY KEY,
	snapshot_id TEXT NOT NULL REFERENCES attendant_snapshots(id),
	category TEXT NOT NULL,
	method_name TEXT NOT NULL,
	amount NUMERIC NOT NULL CHECK (amount > 0)
)`,
	`CREATE INDEX IF NOT EXISTS payment_details_snapshot_idx ON payment_details (snapshot_id)`,
	`CREATE TABLE IF NOT EXISTS drafts (
	attendant_id TEXT PRIMARY KEY,
	lubricant_total NUMERIC NOT NULL DEFAULT 0,
	in_store_sales NUMERIC NOT NULL DEFAULT 0,
	payments JSONB NOT NULL DEFAULT '[]'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
}

// Migrate creates every table the shift repositories use.
func Migrate(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("migrate: nil db")
	}
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Seed provisions the catalog on first run. It does nothing when products
// already exist. It reports whether rows were written.
func Seed(ctx context.Context, db *sql.DB, catalog shift.Catalog) (bool, error) {
	if db == nil {
		return false, errors.New("seed: nil db")
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	var count int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("seed: count products: %w", err)
	}
	if count > 0 {
		_ = tx.Rollback()
		return false, nil
	}

	for _, f := range catalog.Fuels {
		if _, err := tx.ExecContext(ctx, `INSERT INTO products (name, price, product_type) VALUES ($1, $2, 'fuel')`, f.Name, f.Price); err != nil {
			_ = tx.Rollback()
			return false, fmt.Errorf("seed: fuel %s: %w", f.Name, err)
		}
	}
	for _, l := range catalog.Lubricants {
		if _, err := tx.ExecContext(ctx, `INSERT INTO products (name, price, product_type) VALUES ($1, $2, 'lubricant')`, l.Name, l.Price); err != nil {
			_ = tx.Rollback()
			return false, fmt.Errorf("seed: lubricant %s: %w", l.Name, err)
		}
	}
	for _, h := range catalog.Hoses {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO hoses (dispenser_no, hose_no, product_name, previous_reading)
VALUES ($1, $2, $3, $4)`, h.DispenserNo, h.HoseNo, h.ProductName, h.PreviousReading); err != nil {
			_ = tx.Rollback()
			return false, fmt.Errorf("seed: hose %d-%d: %w", h.DispenserNo, h.HoseNo, err)
		}
	}
	for _, m := range catalog.PaymentMethods {
		if _, err := tx.ExecContext(ctx, `INSERT INTO payment_methods (name, category) VALUES ($1, $2)`, m.Name, string(m.Category)); err != nil {
			_ = tx.Rollback()
			return false, fmt.Errorf("seed: payment method %s: %w", m.Name, err)
		}
	}
	for _, a := range catalog.Attendants {
		role := a.Role
		if role == "" {
			role = shift.RoleForecourt
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO attendants (id, name, role, active) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING`, a.ID, a.Name, string(role), a.Active); err != nil {
			_ = tx.Rollback()
			return false, fmt.Errorf("seed: attendant %s: %w", a.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
