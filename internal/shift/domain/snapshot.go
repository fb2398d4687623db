package shift

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClosedShift is the flattened record written when a shift is closed.
type ClosedShift struct {
	ID                  string
	StationID           string
	Date                time.Time
	Label               string
	TotalStationRevenue decimal.Decimal
	Attendants          []AttendantClose
	Readings            []HoseReading
}

// AttendantClose is one attendant's final numbers. Payments only carries
// lines with a positive amount.
type AttendantClose struct {
	SnapshotID     string
	AttendantID    string
	Name           string
	Role           Role
	FuelAllocation decimal.Decimal
	LubricantTotal decimal.Decimal
	InStoreSales   decimal.Decimal
	PaymentTotal   decimal.Decimal
	Difference     decimal.Decimal
	Payments       []PaymentLine
}

// HoseReading is the reading that becomes a hose's next baseline.
type HoseReading struct {
	Key     HoseKey
	Reading decimal.Decimal
}

// NewClosedShift flattens the session. ids supplies the shift id first and
// then one snapshot id per ledger.
func NewClosedShift(stationID string, s *Session, ids func() string) ClosedShift {
	closed := ClosedShift{
		ID:                  ids(),
		StationID:           stationID,
		Date:                s.date,
		Label:               s.label,
		TotalStationRevenue: s.totalStationRevenue,
	}
	for _, l := range s.ledgers {
		att := AttendantClose{
			SnapshotID:     ids(),
			AttendantID:    l.id,
			Name:           l.name,
			Role:           l.role,
			FuelAllocation: l.fuelAllocation,
			LubricantTotal: l.lubricantTotal,
			InStoreSales:   l.inStoreSales,
			PaymentTotal:   l.paymentTotal,
			Difference:     l.difference,
		}
		for _, p := range l.payments {
			if p.Amount.IsPositive() {
				att.Payments = append(att.Payments, p)
			}
		}
		closed.Attendants = append(closed.Attendants, att)
	}
	for _, g := range s.groups {
		for _, h := range g.hoses {
			closed.Readings = append(closed.Readings, HoseReading{Key: h.key, Reading: h.current})
		}
	}
	return closed
}

// ShiftHeader is a committed shift as listed in history.
type ShiftHeader struct {
	ID                  string
	StationID           string
	Date                time.Time
	Label               string
	TotalStationRevenue decimal.Decimal
	Synced              bool
	CreatedAt           time.Time
}

// CategoryTotal is a summed payment category.
type CategoryTotal struct {
	Category PaymentCategory
	Amount   decimal.Decimal
}

// AttendantSnapshot is a committed attendant record with payments grouped
// by category.
type AttendantSnapshot struct {
	ID             string
	ShiftID        string
	AttendantID    string
	Name           string
	Role           Role
	FuelAllocation decimal.Decimal
	LubricantTotal decimal.Decimal
	InStoreSales   decimal.Decimal
	PaymentTotal   decimal.Decimal
	Difference     decimal.Decimal
	Payments       []CategoryTotal
}

// TotalSales is fuel allocation plus lubricants plus in-store sales.
func (a AttendantSnapshot) TotalSales() decimal.Decimal {
	return a.FuelAllocation.Add(a.LubricantTotal).Add(a.InStoreSales)
}

// ShiftReport is a closed shift with every attendant snapshot.
type ShiftReport struct {
	Header        ShiftHeader
	Attendants    []AttendantSnapshot
	NetDifference decimal.Decimal
	TotalSales    decimal.Decimal
}

// NewShiftReport sums the report totals.
func NewShiftReport(header ShiftHeader, attendants []AttendantSnapshot) ShiftReport {
	report := ShiftReport{
		Header:        header,
		Attendants:    attendants,
		NetDifference: decimal.Zero,
		TotalSales:    decimal.Zero,
	}
	if report.Attendants == nil {
		report.Attendants = []AttendantSnapshot{}
	}
	for _, a := range attendants {
		report.NetDifference = report.NetDifference.Add(a.Difference)
		report.TotalSales = report.TotalSales.Add(a.TotalSales())
	}
	return report
}

// Draft is an unsaved snapshot of one attendant's inputs.
type Draft struct {
	AttendantID    string
	LubricantTotal decimal.Decimal
	InStoreSales   decimal.Decimal
	Payments       []PaymentLine
}

// NewDrafts captures the current inputs of every ledger.
func NewDrafts(ledgers []*AttendantLedger) []Draft {
	drafts := make([]Draft, 0, len(ledgers))
	for _, l := range ledgers {
		d := Draft{
			AttendantID:    l.id,
			LubricantTotal: l.lubricantTotal,
			InStoreSales:   l.inStoreSales,
		}
		for _, p := range l.payments {
			if p.Amount.IsPositive() {
				d.Payments = append(d.Payments, p)
			}
		}
		drafts = append(drafts, d)
	}
	return drafts
}
