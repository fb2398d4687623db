package postgres

import (
	"context"
	"errors"

	shift "shift-reconcile/internal/shift/domain"
)

// CatalogRepository reads reference data and maintains the roster.
type CatalogRepository struct {
	db DBTX
}

// NewCatalogRepository constructs a repository.
func NewCatalogRepository(db DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// LoadHoseTopology returns every hose with its product price and baseline.
func (r *CatalogRepository) LoadHoseTopology(ctx context.Context) ([]shift.HoseConfig, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("catalog repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT h.dispenser_no, h.hose_no, h.product_name, COALESCE(p.price, 0), h.previous_reading
FROM hoses h
LEFT JOIN products p ON p.name = h.product_name
ORDER BY h.dispenser_no ASC, h.hose_no ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []shift.HoseConfig
	for rows.Next() {
		var h shift.HoseConfig
		if err := rows.Scan(&h.DispenserNo, &h.HoseNo, &h.ProductName, &h.Price, &h.PreviousReading); err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

func (r *CatalogRepository) LoadFuelPrices(ctx context.Context) ([]shift.FuelProduct, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("catalog repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT name, price FROM products WHERE product_type = 'fuel' ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []shift.FuelProduct
	for rows.Next() {
		var p shift.FuelProduct
		if err := rows.Scan(&p.Name, &p.Price); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *CatalogRepository) LoadLubricantCatalog(ctx context.Context) ([]shift.LubricantProduct, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("catalog repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT name, price FROM products WHERE product_type = 'lubricant' ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []shift.LubricantProduct
	for rows.Next() {
		var p shift.LubricantProduct
		if err := rows.Scan(&p.Name, &p.Price); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *CatalogRepository) LoadPaymentMethodCatalog(ctx context.Context) ([]shift.PaymentMethod, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("catalog repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `SELECT name, category FROM payment_methods ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []shift.PaymentMethod
	for rows.Next() {
		var m shift.PaymentMethod
		var category string
		if err := rows.Scan(&m.Name, &category); err != nil {
			return nil, err
		}
		m.Category = shift.PaymentCategory(category)
		result = append(result, m)
	}
	return result, rows.Err()
}

// LoadActiveAttendants returns active attendants ordered by name.
func (r *CatalogRepository) LoadActiveAttendants(ctx context.Context) ([]shift.Attendant, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("catalog repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, role, active FROM attendants WHERE active = TRUE ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []shift.Attendant
	for rows.Next() {
		var a shift.Attendant
		var role string
		if err := rows.Scan(&a.ID, &a.Name, &role, &a.Active); err != nil {
			return nil, err
		}
		a.Role = shift.Role(role)
		result = append(result, a)
	}
	return result, rows.Err()
}

// AddAttendant inserts an active attendant.
func (r *CatalogRepository) AddAttendant(ctx context.Context, attendant shift.Attendant) error {
	if r == nil || r.db == nil {
		return errors.New("catalog repo: nil db")
	}
	if attendant.ID == "" {
		return errors.New("catalog repo: empty attendant id")
	}
	role := attendant.Role
	if role == "" {
		role = shift.RoleForecourt
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO attendants (id, name, role, active) VALUES ($1, $2, $3, TRUE)`,
		attendant.ID, attendant.Name, string(role))
	return err
}

// UpdateAttendant changes an attendant's name and, when given, role.
func (r *CatalogRepository) UpdateAttendant(ctx context.Context, id, name string, role shift.Role) error {
	if r == nil || r.db == nil {
		return errors.New("catalog repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE attendants SET name = $2, role = COALESCE(NULLIF($3, ''), role) WHERE id = $1`,
		id, name, string(role))
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// RetireAttendant marks an attendant inactive.
func (r *CatalogRepository) RetireAttendant(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("catalog repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `UPDATE attendants SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}
