package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	shift "shift-reconcile/internal/shift/domain"
)

// HistoryRepository reads committed shifts.
type HistoryRepository struct {
	db DBTX
}

// NewHistoryRepository constructs a repository.
func NewHistoryRepository(db DBTX) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// ListShifts returns the most recent shifts, newest date first and label
// descending within a date.
func (r *HistoryRepository) ListShifts(ctx context.Context, stationID string, limit int) ([]shift.ShiftHeader, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("history repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, station_id, shift_date, label, total_station_revenue, synced, created_at
FROM shifts
WHERE station_id = $1
ORDER BY shift_date DESC, label DESC
LIMIT $2`, stationID, limit)
	if err != nil {
		return nil, err
	}
	return scanHeaders(rows)
}

// ListUnsynced returns shifts not yet synced, oldest first.
func (r *HistoryRepository) ListUnsynced(ctx context.Context, stationID string, limit int) ([]shift.ShiftHeader, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("history repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, station_id, shift_date, label, total_station_revenue, synced, created_at
FROM shifts
WHERE station_id = $1 AND synced = FALSE
ORDER BY shift_date ASC, label ASC
LIMIT $2`, stationID, limit)
	if err != nil {
		return nil, err
	}
	return scanHeaders(rows)
}

// GetShift returns nil when the shift does not exist.
func (r *HistoryRepository) GetShift(ctx context.Context, shiftID string) (*shift.ShiftHeader, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("history repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, station_id, shift_date, label, total_station_revenue, synced, created_at
FROM shifts
WHERE id = $1
LIMIT 1`, shiftID)
	h, err := scanHeader(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &h, nil
}

// ListAttendantSnapshots returns every snapshot of a shift in close order
// with payment details summed per category.
func (r *HistoryRepository) ListAttendantSnapshots(ctx context.Context, shiftID string) ([]shift.AttendantSnapshot, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("history repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, shift_id, attendant_id, attendant_name, role,
	fuel_allocation, lubricant_total, in_store_sales, payment_total, difference
FROM attendant_snapshots
WHERE shift_id = $1
ORDER BY position ASC`, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []shift.AttendantSnapshot{}
	index := make(map[string]int)
	for rows.Next() {
		var s shift.AttendantSnapshot
		var role string
		if err := rows.Scan(
			&s.ID, &s.ShiftID, &s.AttendantID, &s.Name, &role,
			&s.FuelAllocation, &s.LubricantTotal, &s.InStoreSales, &s.PaymentTotal, &s.Difference,
		); err != nil {
			return nil, err
		}
		s.Role = shift.Role(role)
		index[s.ID] = len(result)
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	totals, err := r.db.QueryContext(ctx, `
SELECT pd.snapshot_id, pd.category, SUM(pd.amount)
FROM payment_details pd
JOIN attendant_snapshots s ON s.id = pd.snapshot_id
WHERE s.shift_id = $1
GROUP BY pd.snapshot_id, pd.category`, shiftID)
	if err != nil {
		return nil, err
	}
	defer totals.Close()

	sums := make(map[string]map[shift.PaymentCategory]decimal.Decimal)
	for totals.Next() {
		var snapshotID, category string
		var amount decimal.Decimal
		if err := totals.Scan(&snapshotID, &category, &amount); err != nil {
			return nil, err
		}
		if sums[snapshotID] == nil {
			sums[snapshotID] = make(map[shift.PaymentCategory]decimal.Decimal)
		}
		sums[snapshotID][shift.PaymentCategory(category)] = amount
	}
	if err := totals.Err(); err != nil {
		return nil, err
	}
	for id, byCategory := range sums {
		i, ok := index[id]
		if !ok {
			continue
		}
		for _, c := range shift.PaymentCategories() {
			if amt, ok := byCategory[c]; ok {
				result[i].Payments = append(result[i].Payments, shift.CategoryTotal{Category: c, Amount: amt})
			}
		}
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHeader(row rowScanner) (shift.ShiftHeader, error) {
	var h shift.ShiftHeader
	if err := row.Scan(&h.ID, &h.StationID, &h.Date, &h.Label, &h.TotalStationRevenue, &h.Synced, &h.CreatedAt); err != nil {
		return h, err
	}
	h.Date = dateOnly(h.Date)
	h.CreatedAt = h.CreatedAt.UTC()
	return h, nil
}

func scanHeaders(rows *sql.Rows) ([]shift.ShiftHeader, error) {
	defer rows.Close()
	result := []shift.ShiftHeader{}
	for rows.Next() {
		h, err := scanHeader(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	return result, rows.Err()
}
