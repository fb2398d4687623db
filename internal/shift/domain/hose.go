package shift

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// HoseKey identifies a hose by its physical position.
type HoseKey struct {
	DispenserNo int
	HoseNo      int
}

func (k HoseKey) String() string { return fmt.Sprintf("%02d-%d", k.DispenserNo, k.HoseNo) }

// Hose is a single nozzle meter. Current reading is the only mutable input;
// gallons and subtotal are derived.
type Hose struct {
	key      HoseKey
	product  string
	price    decimal.Decimal
	previous decimal.Decimal
	current  decimal.Decimal

	// attendantID is a weak reference; empty means unassigned.
	attendantID string

	gallons  decimal.Decimal
	subtotal decimal.Decimal
}

// NewHose builds a hose whose current reading starts at the baseline.
func NewHose(cfg HoseConfig) *Hose {
	h := &Hose{
		key:      HoseKey{DispenserNo: cfg.DispenserNo, HoseNo: cfg.HoseNo},
		product:  cfg.ProductName,
		price:    cfg.Price,
		previous: cfg.PreviousReading,
		current:  cfg.PreviousReading,
	}
	h.recalculate()
	return h
}

// Gallons returns the dispensed volume for a reading pair. A reading below
// the baseline yields zero; meter rollover is not detected.
func Gallons(previous, current decimal.Decimal) decimal.Decimal {
	if current.LessThanOrEqual(previous) {
		return decimal.Zero
	}
	return current.Sub(previous)
}

func (h *Hose) recalculate() {
	h.gallons = Gallons(h.previous, h.current)
	h.subtotal = h.gallons.Mul(h.price)
}

func (h *Hose) Key() HoseKey                     { return h.key }
func (h *Hose) Product() string                  { return h.product }
func (h *Hose) Price() decimal.Decimal           { return h.price }
func (h *Hose) PreviousReading() decimal.Decimal { return h.previous }
func (h *Hose) CurrentReading() decimal.Decimal  { return h.current }
func (h *Hose) AttendantID() string              { return h.attendantID }
func (h *Hose) Assigned() bool                   { return h.attendantID != "" }
func (h *Hose) Gallons() decimal.Decimal         { return h.gallons }
func (h *Hose) Subtotal() decimal.Decimal        { return h.subtotal }

// DispenserGroup is a pump with its hoses in physical order.
type DispenserGroup struct {
	number int
	name   string
	hoses  []*Hose

	totalRevenue decimal.Decimal
	totalGallons decimal.Decimal
}

func (g *DispenserGroup) recalculate() {
	revenue := decimal.Zero
	gallons := decimal.Zero
	for _, h := range g.hoses {
		revenue = revenue.Add(h.subtotal)
		gallons = gallons.Add(h.gallons)
	}
	g.totalRevenue = revenue
	g.totalGallons = gallons
}

func (g *DispenserGroup) Number() int                   { return g.number }
func (g *DispenserGroup) Name() string                  { return g.name }
func (g *DispenserGroup) TotalRevenue() decimal.Decimal { return g.totalRevenue }
func (g *DispenserGroup) TotalGallons() decimal.Decimal { return g.totalGallons }

// Hoses returns the hoses in pump-head order.
func (g *DispenserGroup) Hoses() []*Hose {
	out := make([]*Hose, len(g.hoses))
	copy(out, g.hoses)
	return out
}

// BuildDispenserGroups groups hose configs by dispenser. Groups are ordered
// by dispenser number; hoses keep their order within the input for each
// dispenser.
func BuildDispenserGroups(configs []HoseConfig) []*DispenserGroup {
	byNumber := make(map[int]*DispenserGroup)
	var numbers []int
	for _, cfg := range configs {
		g, ok := byNumber[cfg.DispenserNo]
		if !ok {
			g = &DispenserGroup{
				number: cfg.DispenserNo,
				name:   fmt.Sprintf("DISPENSER %02d", cfg.DispenserNo),
			}
			byNumber[cfg.DispenserNo] = g
			numbers = append(numbers, cfg.DispenserNo)
		}
		g.hoses = append(g.hoses, NewHose(cfg))
	}
	sort.Ints(numbers)

	groups := make([]*DispenserGroup, 0, len(numbers))
	for _, n := range numbers {
		g := byNumber[n]
		g.recalculate()
		groups = append(groups, g)
	}
	return groups
}
