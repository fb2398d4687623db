package shift

import "github.com/shopspring/decimal"

// LubricantLine is a lubricant sold by one attendant.
type LubricantLine struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
	Subtotal decimal.Decimal
}

// PaymentLine is an amount turned in for one payment method.
type PaymentLine struct {
	Category PaymentCategory
	Name     string
	Amount   decimal.Decimal
}

// AttendantLedger is one attendant's inputs and derived totals for a shift.
// The fuel allocation is fed by the owning Session from its hose index.
type AttendantLedger struct {
	id   string
	name string
	role Role

	inStoreSales decimal.Decimal
	lubricants   []LubricantLine
	payments     []PaymentLine

	fuelAllocation decimal.Decimal
	lubricantTotal decimal.Decimal
	paymentTotal   decimal.Decimal
	amountOwed     decimal.Decimal
	difference     decimal.Decimal
}

// NewAttendantLedger builds a ledger with one zeroed line per catalog entry.
func NewAttendantLedger(attendant Attendant, lubricants []LubricantProduct, methods []PaymentMethod) *AttendantLedger {
	l := &AttendantLedger{
		id:   attendant.ID,
		name: attendant.Name,
		role: attendant.Role,
	}
	if l.role == "" {
		l.role = RoleForecourt
	}
	for _, lub := range lubricants {
		l.lubricants = append(l.lubricants, LubricantLine{Name: lub.Name, Price: lub.Price})
	}
	for _, m := range methods {
		l.payments = append(l.payments, PaymentLine{Category: m.Category, Name: m.Name})
	}
	l.recalculate(decimal.Zero)
	return l
}

func (l *AttendantLedger) recalculate(fuelAllocation decimal.Decimal) {
	l.fuelAllocation = fuelAllocation

	lubTotal := decimal.Zero
	for i := range l.lubricants {
		line := &l.lubricants[i]
		line.Subtotal = line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		lubTotal = lubTotal.Add(line.Subtotal)
	}
	l.lubricantTotal = lubTotal

	payTotal := decimal.Zero
	for _, p := range l.payments {
		payTotal = payTotal.Add(p.Amount)
	}
	l.paymentTotal = payTotal

	l.amountOwed = l.fuelAllocation.Add(l.lubricantTotal).Add(l.inStoreSales)
	l.difference = l.paymentTotal.Sub(l.amountOwed)
}

func (l *AttendantLedger) ID() string                      { return l.id }
func (l *AttendantLedger) Name() string                    { return l.name }
func (l *AttendantLedger) Role() Role                      { return l.role }
func (l *AttendantLedger) InStoreSales() decimal.Decimal   { return l.inStoreSales }
func (l *AttendantLedger) FuelAllocation() decimal.Decimal { return l.fuelAllocation }
func (l *AttendantLedger) LubricantTotal() decimal.Decimal { return l.lubricantTotal }
func (l *AttendantLedger) PaymentTotal() decimal.Decimal   { return l.paymentTotal }

// AmountOwed is fuel allocation plus lubricant total plus in-store sales.
func (l *AttendantLedger) AmountOwed() decimal.Decimal { return l.amountOwed }

// Difference is payments turned in minus amount owed. Negative means short.
func (l *AttendantLedger) Difference() decimal.Decimal { return l.difference }

// Lubricants returns a copy of the lubricant lines.
func (l *AttendantLedger) Lubricants() []LubricantLine {
	out := make([]LubricantLine, len(l.lubricants))
	copy(out, l.lubricants)
	return out
}

// Payments returns a copy of the payment lines.
func (l *AttendantLedger) Payments() []PaymentLine {
	out := make([]PaymentLine, len(l.payments))
	copy(out, l.payments)
	return out
}

func (l *AttendantLedger) paymentIndex(name string) int {
	for i, p := range l.payments {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (l *AttendantLedger) lubricantIndex(name string) int {
	for i, lub := range l.lubricants {
		if lub.Name == name {
			return i
		}
	}
	return -1
}
