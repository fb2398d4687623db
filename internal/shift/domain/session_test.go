package shift

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var (
	testLubricants = []LubricantProduct{{Name: "Oil 1", Price: decimal.RequireFromString("60")}}
	testMethods    = []PaymentMethod{
		{Name: "Cash", Category: PaymentCategoryCash},
		{Name: "Visa", Category: PaymentCategoryCard},
		{Name: "Credit", Category: PaymentCategoryOther},
	}
	shiftDay = time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)
)

func newTestSession(t *testing.T, configs []HoseConfig, attendants ...string) *Session {
	t.Helper()
	s := NewSession(shiftDay, "Morning", BuildDispenserGroups(configs))
	for _, id := range attendants {
		if _, err := s.AddLedger(NewAttendantLedger(Attendant{ID: id, Name: id, Active: true}, testLubricants, testMethods)); err != nil {
			t.Fatalf("add ledger %s: %v", id, err)
		}
	}
	return s
}

func threeHoseTopology(t *testing.T) []HoseConfig {
	return []HoseConfig{
		{DispenserNo: 1, HoseNo: 1, ProductName: "Regular", Price: dec(t, "272.50"), PreviousReading: dec(t, "1000")},
		{DispenserNo: 1, HoseNo: 2, ProductName: "Premium", Price: dec(t, "290.10"), PreviousReading: dec(t, "2000")},
		{DispenserNo: 1, HoseNo: 3, ProductName: "Diesel", Price: dec(t, "221.60"), PreviousReading: dec(t, "3000")},
	}
}

func mustRecalc(t *testing.T) func(Recalculation, error) {
	return func(_ Recalculation, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("mutation: %v", err)
		}
	}
}

func TestSession_DispenserRevenueScenario(t *testing.T) {
	s := newTestSession(t, threeHoseTopology(t))

	must := mustRecalc(t)
	must(s.SetCurrentReading(HoseKey{1, 1}, dec(t, "1100")))
	must(s.SetCurrentReading(HoseKey{1, 2}, dec(t, "2050")))
	must(s.SetCurrentReading(HoseKey{1, 3}, dec(t, "3000")))

	group := s.Groups()[0]
	want := dec(t, "41755")
	if !group.TotalRevenue().Equal(want) {
		t.Fatalf("dispenser revenue: got=%s want=%s", group.TotalRevenue(), want)
	}
	if !group.TotalGallons().Equal(dec(t, "150")) {
		t.Fatalf("dispenser gallons: got=%s want=150", group.TotalGallons())
	}

	sum := decimal.Zero
	for _, h := range group.Hoses() {
		sum = sum.Add(h.Subtotal())
	}
	if !group.TotalRevenue().Equal(sum) {
		t.Fatalf("group revenue must equal sum of hose subtotals")
	}
	if !s.TotalStationRevenue().Equal(want) || !s.UnassignedRevenue().Equal(want) {
		t.Fatalf("shift totals mismatch: total=%s unassigned=%s", s.TotalStationRevenue(), s.UnassignedRevenue())
	}
}

func TestSession_LedgerScenario(t *testing.T) {
	must := mustRecalc(t)
	s := newTestSession(t, []HoseConfig{
		{DispenserNo: 1, HoseNo: 1, ProductName: "Regular", Price: dec(t, "5"), PreviousReading: dec(t, "0")},
	}, "att-1")

	must(s.AssignHose(HoseKey{1, 1}, "att-1"))
	must(s.SetCurrentReading(HoseKey{1, 1}, dec(t, "100")))
	must(s.SetLubricantQuantity("att-1", "Oil 1", 2))
	must(s.SetInStoreSales("att-1", dec(t, "80")))
	must(s.SetPaymentAmount("att-1", "Cash", dec(t, "750")))

	l := s.Ledger("att-1")
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"fuel allocation", l.FuelAllocation(), "500"},
		{"lubricant total", l.LubricantTotal(), "120"},
		{"in-store sales", l.InStoreSales(), "80"},
		{"payment total", l.PaymentTotal(), "750"},
		{"amount owed", l.AmountOwed(), "700"},
		{"difference", l.Difference(), "50"},
		{"net difference", s.NetDifference(), "50"},
		{"unassigned revenue", s.UnassignedRevenue(), "0"},
	}
	for _, c := range checks {
		if !c.got.Equal(dec(t, c.want)) {
			t.Fatalf("%s: got=%s want=%s", c.name, c.got, c.want)
		}
	}
}

func TestSession_RecalculatesAfterEverySingleMutation(t *testing.T) {
	must := mustRecalc(t)
	s := newTestSession(t, []HoseConfig{
		{DispenserNo: 1, HoseNo: 1, ProductName: "Regular", Price: dec(t, "10"), PreviousReading: dec(t, "0")},
		{DispenserNo: 2, HoseNo: 1, ProductName: "Diesel", Price: dec(t, "4"), PreviousReading: dec(t, "0")},
	}, "a", "b")

	must(s.SetCurrentReading(HoseKey{1, 1}, dec(t, "10")))
	must(s.SetCurrentReading(HoseKey{2, 1}, dec(t, "25")))
	must(s.AssignHose(HoseKey{1, 1}, "a"))
	must(s.AssignHose(HoseKey{2, 1}, "a"))

	assertLedger := func(id string, fuel, diff string) {
		t.Helper()
		l := s.Ledger(id)
		if !l.FuelAllocation().Equal(dec(t, fuel)) {
			t.Fatalf("%s fuel: got=%s want=%s", id, l.FuelAllocation(), fuel)
		}
		if !l.Difference().Equal(dec(t, diff)) {
			t.Fatalf("%s difference: got=%s want=%s", id, l.Difference(), diff)
		}
		if !l.AmountOwed().Equal(l.FuelAllocation().Add(l.LubricantTotal()).Add(l.InStoreSales())) {
			t.Fatalf("%s amount owed identity broken", id)
		}
		if !l.Difference().Equal(l.PaymentTotal().Sub(l.AmountOwed())) {
			t.Fatalf("%s difference identity broken", id)
		}
	}
	assertLedger("a", "200", "-200")
	assertLedger("b", "0", "0")

	// reassignment moves allocation
	must(s.AssignHose(HoseKey{2, 1}, "b"))
	assertLedger("a", "100", "-100")
	assertLedger("b", "100", "-100")

	must(s.SetCurrentReading(HoseKey{2, 1}, dec(t, "50")))
	assertLedger("b", "200", "-200")

	must(s.SetPaymentAmount("b", "Visa", dec(t, "150")))
	assertLedger("b", "200", "-50")

	must(s.SetLubricantQuantity("b", "Oil 1", 1))
	assertLedger("b", "200", "-110")

	must(s.SetInStoreSales("b", dec(t, "40")))
	assertLedger("b", "200", "-150")

	if !s.NetDifference().Equal(dec(t, "-250")) {
		t.Fatalf("net difference: got=%s want=-250", s.NetDifference())
	}

	must(s.UnassignHose(HoseKey{1, 1}))
	assertLedger("a", "0", "0")
	if !s.UnassignedRevenue().Equal(dec(t, "100")) {
		t.Fatalf("unassigned revenue: got=%s want=100", s.UnassignedRevenue())
	}
}

func TestSession_AssignmentIsSingleReference(t *testing.T) {
	must := mustRecalc(t)
	s := newTestSession(t, threeHoseTopology(t), "a", "b")
	must(s.AssignHose(HoseKey{1, 1}, "a"))
	must(s.AssignHose(HoseKey{1, 1}, "b"))

	if got := s.Hose(HoseKey{1, 1}).AttendantID(); got != "b" {
		t.Fatalf("assignment should be overwritten, got %q", got)
	}
	if len(s.AssignedHoses("a")) != 0 {
		t.Fatalf("previous attendant should lose the hose")
	}
	if len(s.AssignedHoses("b")) != 1 {
		t.Fatalf("new attendant should own exactly one hose")
	}
}

func TestSession_RemoveLedgerDetachesHoses(t *testing.T) {
	must := mustRecalc(t)
	s := newTestSession(t, threeHoseTopology(t), "a", "b")
	must(s.SetCurrentReading(HoseKey{1, 1}, dec(t, "1010")))
	must(s.AssignHose(HoseKey{1, 1}, "a"))
	must(s.AssignHose(HoseKey{1, 2}, "a"))

	recalc, err := s.RemoveLedger("a")
	if err != nil {
		t.Fatalf("remove ledger: %v", err)
	}
	if !containsString(recalc.Attendants, "a") || len(recalc.Hoses) != 2 {
		t.Fatalf("unexpected recalculation: %+v", recalc)
	}
	if s.Ledger("a") != nil || len(s.Ledgers()) != 1 {
		t.Fatalf("ledger should be removed")
	}
	for _, k := range []HoseKey{{1, 1}, {1, 2}} {
		h := s.Hose(k)
		if h == nil {
			t.Fatalf("hose %s must not be deleted", k)
		}
		if h.Assigned() {
			t.Fatalf("hose %s should be unassigned", k)
		}
	}
	if !s.UnassignedRevenue().Equal(s.TotalStationRevenue()) {
		t.Fatalf("all revenue should be unassigned after removal")
	}
}

func TestSession_RejectsInvalidInput(t *testing.T) {
	s := newTestSession(t, threeHoseTopology(t), "a")

	cases := []struct {
		name string
		err  error
		want error
	}{
		{"negative reading", second(s.SetCurrentReading(HoseKey{1, 1}, dec(t, "-1"))), ErrNegativeValue},
		{"unknown hose", second(s.SetCurrentReading(HoseKey{9, 9}, dec(t, "1"))), ErrUnknownHose},
		{"unknown attendant", second(s.AssignHose(HoseKey{1, 1}, "ghost")), ErrUnknownAttendant},
		{"negative payment", second(s.SetPaymentAmount("a", "Cash", dec(t, "-5"))), ErrNegativeValue},
		{"unknown method", second(s.SetPaymentAmount("a", "Bitcoin", dec(t, "5"))), ErrUnknownPaymentMethod},
		{"negative quantity", second(s.SetLubricantQuantity("a", "Oil 1", -1)), ErrNegativeValue},
		{"unknown lubricant", second(s.SetLubricantQuantity("a", "Oil 99", 1)), ErrUnknownLubricant},
		{"negative store sales", second(s.SetInStoreSales("a", dec(t, "-1"))), ErrNegativeValue},
		{"duplicate ledger", second(s.AddLedger(NewAttendantLedger(Attendant{ID: "a"}, nil, nil))), ErrDuplicateAttendant},
	}
	for _, c := range cases {
		if !errors.Is(c.err, c.want) {
			t.Fatalf("%s: got=%v want=%v", c.name, c.err, c.want)
		}
	}
}

func TestSession_ListenerSeesPropagationBeforeReturn(t *testing.T) {
	must := mustRecalc(t)
	s := newTestSession(t, threeHoseTopology(t), "a")
	must(s.AssignHose(HoseKey{1, 2}, "a"))

	var seen []Recalculation
	var allocationAtNotify decimal.Decimal
	s.OnRecalculate(func(r Recalculation) {
		seen = append(seen, r)
		allocationAtNotify = s.Ledger("a").FuelAllocation()
	})

	must(s.SetCurrentReading(HoseKey{1, 2}, dec(t, "2010")))
	if len(seen) != 1 {
		t.Fatalf("expected one notification, got %d", len(seen))
	}
	r := seen[0]
	if len(r.Hoses) != 1 || len(r.Dispensers) != 1 || len(r.Attendants) != 1 || !r.Shift {
		t.Fatalf("unexpected dirty set: %+v", r)
	}
	if !allocationAtNotify.Equal(dec(t, "2901")) {
		t.Fatalf("listener observed stale allocation %s", allocationAtNotify)
	}
}

func TestSession_FuelSummary(t *testing.T) {
	must := mustRecalc(t)
	s := newTestSession(t, []HoseConfig{
		{DispenserNo: 1, HoseNo: 1, ProductName: "Regular", Price: dec(t, "2"), PreviousReading: dec(t, "0")},
		{DispenserNo: 2, HoseNo: 1, ProductName: "Regular", Price: dec(t, "2"), PreviousReading: dec(t, "0")},
		{DispenserNo: 2, HoseNo: 2, ProductName: "Diesel", Price: dec(t, "3"), PreviousReading: dec(t, "0")},
	}, "a")
	must(s.SetCurrentReading(HoseKey{1, 1}, dec(t, "10")))
	must(s.SetCurrentReading(HoseKey{2, 1}, dec(t, "5")))
	must(s.SetCurrentReading(HoseKey{2, 2}, dec(t, "1")))
	must(s.AssignHose(HoseKey{2, 1}, "a"))

	summary := s.FuelSummary("a")
	if len(summary) != 2 || summary[0].Product != "Regular" || summary[1].Product != "Diesel" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if !summary[0].AttendantGallons.Equal(dec(t, "5")) || !summary[0].ShiftGallons.Equal(dec(t, "15")) {
		t.Fatalf("regular gallons mismatch: %+v", summary[0])
	}
	if !summary[0].AttendantRevenue.Equal(dec(t, "10")) || !summary[0].ShiftRevenue.Equal(dec(t, "30")) {
		t.Fatalf("regular revenue mismatch: %+v", summary[0])
	}
	if !summary[1].AttendantGallons.IsZero() {
		t.Fatalf("diesel should not be allocated")
	}
}

func TestNewClosedShift_KeepsOnlyPositivePayments(t *testing.T) {
	must := mustRecalc(t)
	s := newTestSession(t, threeHoseTopology(t), "a")
	must(s.SetCurrentReading(HoseKey{1, 1}, dec(t, "1001")))
	must(s.SetPaymentAmount("a", "Visa", dec(t, "100")))

	n := 0
	closed := NewClosedShift("station-1", s, func() string {
		n++
		return "id-" + string(rune('0'+n))
	})
	if closed.ID != "id-1" || closed.Attendants[0].SnapshotID != "id-2" {
		t.Fatalf("unexpected ids: %s %s", closed.ID, closed.Attendants[0].SnapshotID)
	}
	if len(closed.Attendants[0].Payments) != 1 || closed.Attendants[0].Payments[0].Name != "Visa" {
		t.Fatalf("only positive payments expected, got %+v", closed.Attendants[0].Payments)
	}
	if len(closed.Readings) != 3 || !closed.Readings[0].Reading.Equal(dec(t, "1001")) {
		t.Fatalf("unexpected readings: %+v", closed.Readings)
	}
	if !closed.Date.Equal(shiftDay) || closed.Label != "Morning" {
		t.Fatalf("unexpected key: %s %s", closed.Date, closed.Label)
	}
}

func second(_ Recalculation, err error) error { return err }

func TestSession_ResetReadingsZeroesVolume(t *testing.T) {
	must := mustRecalc(t)
	s := newTestSession(t, threeHoseTopology(t), "a")
	must(s.AssignHose(HoseKey{1, 3}, "a"))
	must(s.SetCurrentReading(HoseKey{1, 3}, dec(t, "3010")))

	recalc := s.ResetReadings()
	if len(recalc.Hoses) != 3 || !containsString(recalc.Attendants, "a") {
		t.Fatalf("unexpected recalculation: %+v", recalc)
	}
	if !s.TotalStationRevenue().IsZero() || !s.Ledger("a").FuelAllocation().IsZero() {
		t.Fatalf("reset should clear revenue and allocation")
	}
}
