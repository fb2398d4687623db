package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	shift "shift-reconcile/internal/shift/domain"
)

const pgUniqueViolation = "23505"

// ShiftRepository commits closed shifts.
type ShiftRepository struct {
	db  *sql.DB
	now func() time.Time
}

// ShiftOption configures the repository.
type ShiftOption func(*ShiftRepository)

// WithShiftClock overrides the created_at clock.
func WithShiftClock(now func() time.Time) ShiftOption {
	return func(r *ShiftRepository) {
		if now != nil {
			r.now = now
		}
	}
}

// NewShiftRepository constructs a repository.
func NewShiftRepository(db *sql.DB, opts ...ShiftOption) *ShiftRepository {
	repo := &ShiftRepository{db: db, now: time.Now}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ShiftExists reports whether station, date and label are already closed.
func (r *ShiftRepository) ShiftExists(ctx context.Context, stationID string, date time.Time, label string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("shift repo: nil db")
	}
	var exists bool
	err := r.db.QueryRowContext(ctx, `
SELECT EXISTS (
	SELECT 1 FROM shifts WHERE station_id = $1 AND shift_date = $2 AND label = $3
)`, stationID, dateOnly(date), label).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// CloseShift writes the header, attendant snapshots and payment details and
// rolls every hose baseline forward in one transaction. Closes for the same
// station are serialized by an advisory lock.
func (r *ShiftRepository) CloseShift(ctx context.Context, closed shift.ClosedShift) error {
	if r == nil || r.db == nil {
		return errors.New("shift repo: nil db")
	}
	if closed.ID == "" {
		return errors.New("shift repo: empty shift id")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, closed.StationID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("shift repo: station lock: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO shifts (id, station_id, shift_date, label, total_station_revenue, synced, created_at)
VALUES ($1, $2, $3, $4, $5, FALSE, $6)`,
		closed.ID, closed.StationID, dateOnly(closed.Date), closed.Label, closed.TotalStationRevenue, r.now().UTC())
	if err != nil {
		_ = tx.Rollback()
		if isUniqueViolation(err) {
			return shift.ErrDuplicateShift
		}
		return fmt.Errorf("shift repo: insert header: %w", err)
	}

	for i, a := range closed.Attendants {
		_, err := tx.ExecContext(ctx, `
INSERT INTO attendant_snapshots (
	id, shift_id, attendant_id, position, attendant_name, role,
	fuel_allocation, lubricant_total, in_store_sales, payment_total, difference
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			a.SnapshotID, closed.ID, a.AttendantID, i, a.Name, string(a.Role),
			a.FuelAllocation, a.LubricantTotal, a.InStoreSales, a.PaymentTotal, a.Difference)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("shift repo: insert snapshot %s: %w", a.AttendantID, err)
		}
		for j, p := range a.Payments {
			if !p.Amount.IsPositive() {
				continue
			}
			_, err := tx.ExecContext(ctx, `
INSERT INTO payment_details (id, snapshot_id, category, method_name, amount)
VALUES ($1, $2, $3, $4, $5)`,
				fmt.Sprintf("%s-%02d", a.SnapshotID, j), a.SnapshotID, string(p.Category), p.Name, p.Amount)
			if err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("shift repo: insert payment %s: %w", p.Name, err)
			}
		}
	}

	for _, reading := range closed.Readings {
		res, err := tx.ExecContext(ctx, `
UPDATE hoses SET previous_reading = $1 WHERE dispenser_no = $2 AND hose_no = $3`,
			reading.Reading, reading.Key.DispenserNo, reading.Key.HoseNo)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("shift repo: roll baseline %s: %w", reading.Key, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if affected != 1 {
			_ = tx.Rollback()
			return fmt.Errorf("shift repo: roll baseline %s matched %d rows", reading.Key, affected)
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return shift.ErrDuplicateShift
		}
		return err
	}
	return nil
}

// MarkSynced flags a shift as pushed to head office.
func (r *ShiftRepository) MarkSynced(ctx context.Context, shiftID string) error {
	if r == nil || r.db == nil {
		return errors.New("shift repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `UPDATE shifts SET synced = TRUE WHERE id = $1`, shiftID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

func expectOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return shift.ErrNotFound
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
