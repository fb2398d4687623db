package shift

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PaymentCategory groups payment methods on reports.
type PaymentCategory string

const (
	PaymentCategoryCash  PaymentCategory = "cash"
	PaymentCategoryCard  PaymentCategory = "card"
	PaymentCategoryOther PaymentCategory = "other"
)

// Valid reports whether the category is part of the fixed catalog.
func (c PaymentCategory) Valid() bool {
	switch c {
	case PaymentCategoryCash, PaymentCategoryCard, PaymentCategoryOther:
		return true
	}
	return false
}

// PaymentCategories returns the categories in report order.
func PaymentCategories() []PaymentCategory {
	return []PaymentCategory{PaymentCategoryCash, PaymentCategoryCard, PaymentCategoryOther}
}

// Role is the attendant's working position.
type Role string

const (
	RoleForecourt Role = "forecourt"
	RoleStore     Role = "store"
)

// ProductType distinguishes fuel from lubricant products.
type ProductType string

const (
	ProductTypeFuel      ProductType = "fuel"
	ProductTypeLubricant ProductType = "lubricant"
)

// FuelProduct is a fuel and its unit price.
type FuelProduct struct {
	Name  string
	Price decimal.Decimal
}

// LubricantProduct is a lubricant and its unit price.
type LubricantProduct struct {
	Name  string
	Price decimal.Decimal
}

// PaymentMethod is a payment instrument name and its category.
type PaymentMethod struct {
	Name     string
	Category PaymentCategory
}

// Attendant is a roster entry. Inactive attendants are logically deleted.
type Attendant struct {
	ID     string
	Name   string
	Role   Role
	Active bool
}

// HoseConfig is the persisted topology of one hose with its current baseline.
type HoseConfig struct {
	DispenserNo     int
	HoseNo          int
	ProductName     string
	Price           decimal.Decimal
	PreviousReading decimal.Decimal
}

// Catalog is the reference data a station is provisioned with. Hose prices
// are resolved from Fuels by product name.
type Catalog struct {
	Fuels          []FuelProduct
	Lubricants     []LubricantProduct
	PaymentMethods []PaymentMethod
	Hoses          []HoseConfig
	Attendants     []Attendant
}

// DefaultCatalog is the first-run catalog: three fuels, twenty lubricants,
// sixteen dispensers of six hoses and seven payment methods.
func DefaultCatalog() Catalog {
	c := Catalog{
		Fuels: []FuelProduct{
			{Name: "Regular", Price: decimal.RequireFromString("272.50")},
			{Name: "Premium", Price: decimal.RequireFromString("290.10")},
			{Name: "Gasoil", Price: decimal.RequireFromString("221.60")},
		},
		PaymentMethods: []PaymentMethod{
			{Name: "Cash", Category: PaymentCategoryCash},
			{Name: "Check", Category: PaymentCategoryCash},
			{Name: "Visa", Category: PaymentCategoryCard},
			{Name: "Mastercard", Category: PaymentCategoryCard},
			{Name: "Cardnet", Category: PaymentCategoryCard},
			{Name: "Vouchers", Category: PaymentCategoryOther},
			{Name: "Credit", Category: PaymentCategoryOther},
		},
	}
	for i := 1; i <= 20; i++ {
		c.Lubricants = append(c.Lubricants, LubricantProduct{
			Name:  fmt.Sprintf("Oil Type %d", i),
			Price: decimal.NewFromInt(int64(100*i + 50)),
		})
	}
	products := []string{"Regular", "Premium", "Gasoil", "Regular", "Premium", "Gasoil"}
	for disp := 1; disp <= 16; disp++ {
		for hose := 1; hose <= len(products); hose++ {
			c.Hoses = append(c.Hoses, HoseConfig{
				DispenserNo:     disp,
				HoseNo:          hose,
				ProductName:     products[hose-1],
				PreviousReading: decimal.NewFromInt(int64(1000 * disp)),
			})
		}
	}
	return c
}

// ResolvePrices fills each hose price from the fuel catalog. Hoses whose
// product is unknown keep a zero price.
func (c Catalog) ResolvePrices() []HoseConfig {
	prices := make(map[string]decimal.Decimal, len(c.Fuels))
	for _, f := range c.Fuels {
		prices[f.Name] = f.Price
	}
	out := make([]HoseConfig, len(c.Hoses))
	for i, h := range c.Hoses {
		h.Price = prices[h.ProductName]
		out[i] = h
	}
	return out
}
