package shift

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Recalculation lists everything made dirty by a single mutation.
type Recalculation struct {
	Hoses      []HoseKey
	Dispensers []int
	Attendants []string
	Shift      bool
}

// Session is the working state of one shift. It is owned by a single actor;
// every mutation recomputes the affected derived values before returning.
type Session struct {
	date  time.Time
	label string

	groups    []*DispenserGroup
	hoses     map[HoseKey]*Hose
	hoseGroup map[HoseKey]*DispenserGroup

	ledgers    []*AttendantLedger
	ledgerByID map[string]*AttendantLedger
	assigned   map[string]map[HoseKey]struct{}

	totalStationRevenue decimal.Decimal
	unassignedRevenue   decimal.Decimal
	netDifference       decimal.Decimal

	listeners []func(Recalculation)
}

// NewSession builds a session over the given dispenser groups.
func NewSession(date time.Time, label string, groups []*DispenserGroup) *Session {
	s := &Session{
		date:       truncateDay(date),
		label:      label,
		groups:     groups,
		hoses:      make(map[HoseKey]*Hose),
		hoseGroup:  make(map[HoseKey]*DispenserGroup),
		ledgerByID: make(map[string]*AttendantLedger),
		assigned:   make(map[string]map[HoseKey]struct{}),
	}
	for _, g := range groups {
		for _, h := range g.hoses {
			h.attendantID = ""
			s.hoses[h.key] = h
			s.hoseGroup[h.key] = g
		}
	}
	s.recalculateShift()
	return s
}

// OnRecalculate registers a listener invoked synchronously after every
// recompute pass.
func (s *Session) OnRecalculate(fn func(Recalculation)) {
	if fn != nil {
		s.listeners = append(s.listeners, fn)
	}
}

func (s *Session) Date() time.Time { return s.date }
func (s *Session) Label() string   { return s.label }

// SetDate changes the shift date. No derived value depends on it.
func (s *Session) SetDate(date time.Time) { s.date = truncateDay(date) }

// SetLabel changes the shift label. No derived value depends on it.
func (s *Session) SetLabel(label string) { s.label = label }

// Groups returns the dispenser groups in order.
func (s *Session) Groups() []*DispenserGroup {
	out := make([]*DispenserGroup, len(s.groups))
	copy(out, s.groups)
	return out
}

// Hose returns the hose for key, or nil.
func (s *Session) Hose(key HoseKey) *Hose { return s.hoses[key] }

// Ledgers returns the ledgers in roster order.
func (s *Session) Ledgers() []*AttendantLedger {
	out := make([]*AttendantLedger, len(s.ledgers))
	copy(out, s.ledgers)
	return out
}

// Ledger returns the ledger for an attendant id, or nil.
func (s *Session) Ledger(attendantID string) *AttendantLedger { return s.ledgerByID[attendantID] }

func (s *Session) TotalStationRevenue() decimal.Decimal { return s.totalStationRevenue }

// UnassignedRevenue is station revenue not allocated to any attendant.
func (s *Session) UnassignedRevenue() decimal.Decimal { return s.unassignedRevenue }

// NetDifference is the sum of all ledger differences.
func (s *Session) NetDifference() decimal.Decimal { return s.netDifference }

// AssignedHoses returns the hoses assigned to an attendant, sorted by key.
func (s *Session) AssignedHoses(attendantID string) []HoseKey {
	keys := make([]HoseKey, 0, len(s.assigned[attendantID]))
	for k := range s.assigned[attendantID] {
		keys = append(keys, k)
	}
	sortHoseKeys(keys)
	return keys
}

// SetCurrentReading records the closing meter value of a hose.
func (s *Session) SetCurrentReading(key HoseKey, reading decimal.Decimal) (Recalculation, error) {
	h := s.hoses[key]
	if h == nil {
		return Recalculation{}, ErrUnknownHose
	}
	if reading.IsNegative() {
		return Recalculation{}, ErrNegativeValue
	}
	h.current = reading
	return s.recalculate([]HoseKey{key}, nil), nil
}

// AssignHose points a hose at an attendant, replacing any prior assignment.
func (s *Session) AssignHose(key HoseKey, attendantID string) (Recalculation, error) {
	if attendantID == "" {
		return s.UnassignHose(key)
	}
	h := s.hoses[key]
	if h == nil {
		return Recalculation{}, ErrUnknownHose
	}
	if s.ledgerByID[attendantID] == nil {
		return Recalculation{}, ErrUnknownAttendant
	}
	dirty := s.detach(h)
	h.attendantID = attendantID
	if s.assigned[attendantID] == nil {
		s.assigned[attendantID] = make(map[HoseKey]struct{})
	}
	s.assigned[attendantID][key] = struct{}{}
	return s.recalculate([]HoseKey{key}, dirty), nil
}

// UnassignHose clears a hose assignment.
func (s *Session) UnassignHose(key HoseKey) (Recalculation, error) {
	h := s.hoses[key]
	if h == nil {
		return Recalculation{}, ErrUnknownHose
	}
	dirty := s.detach(h)
	return s.recalculate([]HoseKey{key}, dirty), nil
}

// SetInStoreSales records an attendant's in-store sales.
func (s *Session) SetInStoreSales(attendantID string, amount decimal.Decimal) (Recalculation, error) {
	l := s.ledgerByID[attendantID]
	if l == nil {
		return Recalculation{}, ErrUnknownAttendant
	}
	if amount.IsNegative() {
		return Recalculation{}, ErrNegativeValue
	}
	l.inStoreSales = amount
	return s.recalculate(nil, []string{attendantID}), nil
}

// SetPaymentAmount records the amount turned in for a payment method.
func (s *Session) SetPaymentAmount(attendantID, method string, amount decimal.Decimal) (Recalculation, error) {
	l := s.ledgerByID[attendantID]
	if l == nil {
		return Recalculation{}, ErrUnknownAttendant
	}
	if amount.IsNegative() {
		return Recalculation{}, ErrNegativeValue
	}
	idx := l.paymentIndex(method)
	if idx < 0 {
		return Recalculation{}, ErrUnknownPaymentMethod
	}
	l.payments[idx].Amount = amount
	return s.recalculate(nil, []string{attendantID}), nil
}

// SetLubricantQuantity records the units sold of a lubricant.
func (s *Session) SetLubricantQuantity(attendantID, lubricant string, quantity int) (Recalculation, error) {
	l := s.ledgerByID[attendantID]
	if l == nil {
		return Recalculation{}, ErrUnknownAttendant
	}
	if quantity < 0 {
		return Recalculation{}, ErrNegativeValue
	}
	idx := l.lubricantIndex(lubricant)
	if idx < 0 {
		return Recalculation{}, ErrUnknownLubricant
	}
	l.lubricants[idx].Quantity = quantity
	return s.recalculate(nil, []string{attendantID}), nil
}

// AddLedger adds an attendant to the shift.
func (s *Session) AddLedger(l *AttendantLedger) (Recalculation, error) {
	if l == nil || l.id == "" {
		return Recalculation{}, ErrUnknownAttendant
	}
	if s.ledgerByID[l.id] != nil {
		return Recalculation{}, ErrDuplicateAttendant
	}
	s.ledgers = append(s.ledgers, l)
	s.ledgerByID[l.id] = l
	return s.recalculate(nil, []string{l.id}), nil
}

// RemoveLedger drops an attendant from the shift. Hoses assigned to the
// attendant become unassigned.
func (s *Session) RemoveLedger(attendantID string) (Recalculation, error) {
	if s.ledgerByID[attendantID] == nil {
		return Recalculation{}, ErrUnknownAttendant
	}
	keys := s.AssignedHoses(attendantID)
	for _, k := range keys {
		s.hoses[k].attendantID = ""
	}
	delete(s.assigned, attendantID)
	delete(s.ledgerByID, attendantID)
	for i, l := range s.ledgers {
		if l.id == attendantID {
			s.ledgers = append(s.ledgers[:i], s.ledgers[i+1:]...)
			break
		}
	}
	recalc := s.recalculate(keys, nil)
	recalc.Attendants = appendUnique(recalc.Attendants, attendantID)
	return recalc, nil
}

// UpdateLedgerIdentity changes the name and role shown for an attendant.
// Inputs and derived values are left as they are.
func (s *Session) UpdateLedgerIdentity(attendantID, name string, role Role) error {
	l := s.ledgerByID[attendantID]
	if l == nil {
		return ErrUnknownAttendant
	}
	l.name = name
	if role != "" {
		l.role = role
	}
	return nil
}

// ResetReadings sets every current reading back to its baseline.
func (s *Session) ResetReadings() Recalculation {
	keys := make([]HoseKey, 0, len(s.hoses))
	for _, g := range s.groups {
		for _, h := range g.hoses {
			h.current = h.previous
			keys = append(keys, h.key)
		}
	}
	return s.recalculate(keys, nil)
}

// FuelSummary is one product's volume and revenue for an attendant against
// the whole shift.
type FuelSummary struct {
	Product          string
	AttendantGallons decimal.Decimal
	ShiftGallons     decimal.Decimal
	AttendantRevenue decimal.Decimal
	ShiftRevenue     decimal.Decimal
}

// FuelSummary returns per-product totals for an attendant, ordered by the
// first appearance of each product in the topology.
func (s *Session) FuelSummary(attendantID string) []FuelSummary {
	index := make(map[string]int)
	var out []FuelSummary
	for _, g := range s.groups {
		for _, h := range g.hoses {
			i, ok := index[h.product]
			if !ok {
				i = len(out)
				index[h.product] = i
				out = append(out, FuelSummary{
					Product:          h.product,
					AttendantGallons: decimal.Zero,
					ShiftGallons:     decimal.Zero,
					AttendantRevenue: decimal.Zero,
					ShiftRevenue:     decimal.Zero,
				})
			}
			row := &out[i]
			row.ShiftGallons = row.ShiftGallons.Add(h.gallons)
			row.ShiftRevenue = row.ShiftRevenue.Add(h.subtotal)
			if attendantID != "" && h.attendantID == attendantID {
				row.AttendantGallons = row.AttendantGallons.Add(h.gallons)
				row.AttendantRevenue = row.AttendantRevenue.Add(h.subtotal)
			}
		}
	}
	return out
}

// detach removes a hose from its attendant's index and returns the affected
// attendant ids.
func (s *Session) detach(h *Hose) []string {
	prev := h.attendantID
	if prev == "" {
		return nil
	}
	if set := s.assigned[prev]; set != nil {
		delete(set, h.key)
		if len(set) == 0 {
			delete(s.assigned, prev)
		}
	}
	h.attendantID = ""
	return []string{prev}
}

// recalculate runs one pass: hoses, their dispensers, affected ledgers, then
// shift totals.
func (s *Session) recalculate(hoses []HoseKey, attendants []string) Recalculation {
	var recalc Recalculation

	groups := make(map[int]*DispenserGroup)
	for _, k := range hoses {
		h := s.hoses[k]
		if h == nil {
			continue
		}
		h.recalculate()
		recalc.Hoses = append(recalc.Hoses, k)
		if g := s.hoseGroup[k]; g != nil {
			groups[g.number] = g
		}
		if h.attendantID != "" {
			attendants = append(attendants, h.attendantID)
		}
	}

	for n, g := range groups {
		g.recalculate()
		recalc.Dispensers = append(recalc.Dispensers, n)
	}
	sort.Ints(recalc.Dispensers)

	for _, id := range attendants {
		l := s.ledgerByID[id]
		if l == nil {
			continue
		}
		if containsString(recalc.Attendants, id) {
			continue
		}
		l.recalculate(s.allocation(id))
		recalc.Attendants = append(recalc.Attendants, id)
	}

	s.recalculateShift()
	recalc.Shift = true

	for _, fn := range s.listeners {
		fn(recalc)
	}
	return recalc
}

func (s *Session) allocation(attendantID string) decimal.Decimal {
	total := decimal.Zero
	for k := range s.assigned[attendantID] {
		total = total.Add(s.hoses[k].subtotal)
	}
	return total
}

func (s *Session) recalculateShift() {
	revenue := decimal.Zero
	for _, g := range s.groups {
		revenue = revenue.Add(g.totalRevenue)
	}
	allocated := decimal.Zero
	diff := decimal.Zero
	for _, l := range s.ledgers {
		allocated = allocated.Add(l.fuelAllocation)
		diff = diff.Add(l.difference)
	}
	s.totalStationRevenue = revenue
	s.unassignedRevenue = revenue.Sub(allocated)
	s.netDifference = diff
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sortHoseKeys(keys []HoseKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].DispenserNo != keys[j].DispenserNo {
			return keys[i].DispenserNo < keys[j].DispenserNo
		}
		return keys[i].HoseNo < keys[j].HoseNo
	})
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func appendUnique(list []string, v string) []string {
	if containsString(list, v) {
		return list
	}
	return append(list, v)
}
