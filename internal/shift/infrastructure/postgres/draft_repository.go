package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	shift "shift-reconcile/internal/shift/domain"
)

// DraftRepository stores one draft row per attendant.
type DraftRepository struct {
	db *sql.DB
}

// NewDraftRepository constructs a repository.
func NewDraftRepository(db *sql.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

type draftPayment struct {
	Category string          `json:"category"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
}

// SaveDrafts replaces every stored draft in one transaction.
func (r *DraftRepository) SaveDrafts(ctx context.Context, drafts []shift.Draft) error {
	if r == nil || r.db == nil {
		return errors.New("draft repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM drafts`); err != nil {
		_ = tx.Rollback()
		return err
	}
	now := time.Now().UTC()
	for _, d := range drafts {
		payments := make([]draftPayment, 0, len(d.Payments))
		for _, p := range d.Payments {
			payments = append(payments, draftPayment{Category: string(p.Category), Name: p.Name, Amount: p.Amount})
		}
		blob, err := json.Marshal(payments)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("draft repo: encode payments: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO drafts (attendant_id, lubricant_total, in_store_sales, payments, updated_at)
VALUES ($1, $2, $3, $4, $5)`,
			d.AttendantID, d.LubricantTotal, d.InStoreSales, string(blob), now)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("draft repo: insert %s: %w", d.AttendantID, err)
		}
	}
	return tx.Commit()
}

// LoadDrafts returns every stored draft.
func (r *DraftRepository) LoadDrafts(ctx context.Context) ([]shift.Draft, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("draft repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT attendant_id, lubricant_total, in_store_sales, payments
FROM drafts
ORDER BY attendant_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []shift.Draft
	for rows.Next() {
		var d shift.Draft
		var blob []byte
		if err := rows.Scan(&d.AttendantID, &d.LubricantTotal, &d.InStoreSales, &blob); err != nil {
			return nil, err
		}
		var payments []draftPayment
		if len(blob) > 0 {
			if err := json.Unmarshal(blob, &payments); err != nil {
				return nil, fmt.Errorf("draft repo: decode payments for %s: %w", d.AttendantID, err)
			}
		}
		for _, p := range payments {
			d.Payments = append(d.Payments, shift.PaymentLine{
				Category: shift.PaymentCategory(p.Category),
				Name:     p.Name,
				Amount:   p.Amount,
			})
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// ClearDrafts deletes every draft.
func (r *DraftRepository) ClearDrafts(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errors.New("draft repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM drafts`)
	return err
}
