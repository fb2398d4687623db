package integration_test

import (
	"context"
	"errors"
	"testing"
	"time"

	shift "shift-reconcile/internal/shift/domain"
	"shift-reconcile/internal/shift/infrastructure/memory"
)

func TestDrafts_SaveReplacesAndRestoresOnStart(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	s := h.start(t, shiftDay, morning)
	m := must(t)
	m(s.SetInStoreSales("att-ana", dec("35")))
	m(s.SetPaymentAmount("att-ana", "Visa", dec("200")))
	m(s.SetLubricantQuantity("att-ana", "Oil Type 1", 1))
	m(s.SetInStoreSales("att-luis", dec("12.5")))

	if !h.drafts.SaveSession(ctx, s) {
		t.Fatalf("draft save failed")
	}

	restored := h.start(t, shiftDay, morning)
	ana := restored.Ledger("att-ana")
	if !ana.InStoreSales().Equal(dec("35")) {
		t.Fatalf("in-store sales not restored: %s", ana.InStoreSales())
	}
	if !ana.PaymentTotal().Equal(dec("200")) {
		t.Fatalf("payments not restored: %s", ana.PaymentTotal())
	}
	if !ana.LubricantTotal().IsZero() {
		t.Fatalf("lubricant quantities are not part of the draft restore")
	}
	if !restored.Ledger("att-luis").InStoreSales().Equal(dec("12.5")) {
		t.Fatalf("second attendant not restored")
	}

	m(s.RemoveLedger("att-luis"))
	if !h.drafts.SaveSession(ctx, s) {
		t.Fatalf("second draft save failed")
	}
	drafts := h.drafts.Load(ctx)
	if len(drafts) != 1 || drafts[0].AttendantID != "att-ana" {
		t.Fatalf("save must replace the previous draft set, got %+v", drafts)
	}
	if !drafts[0].LubricantTotal.Equal(dec("150")) {
		t.Fatalf("draft lubricant total: got=%s want=150", drafts[0].LubricantTotal)
	}
}

func TestDrafts_FailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	s := h.start(t, shiftDay, morning)
	must(t)(s.SetInStoreSales("att-ana", dec("10")))
	if !h.drafts.SaveSession(ctx, s) {
		t.Fatalf("draft save failed")
	}

	h.store.InjectFault(memory.FaultSaveDrafts, errors.New("readonly"))
	if h.drafts.SaveSession(ctx, s) {
		t.Fatalf("save should report failure")
	}
	if h.store.DraftCount() != 2 {
		t.Fatalf("failed save must keep previous drafts")
	}

	h.store.InjectFault(memory.FaultLoadDrafts, errors.New("corrupt"))
	if drafts := h.drafts.Load(ctx); len(drafts) != 0 {
		t.Fatalf("load failure should yield no drafts, got %d", len(drafts))
	}
	fresh := h.start(t, shiftDay, morning)
	if !fresh.Ledger("att-ana").InStoreSales().IsZero() {
		t.Fatalf("session should start empty when drafts cannot be read")
	}
}

func TestHistory_OrdersByDateThenLabelAndLimits(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	closes := []struct {
		day   int
		label string
	}{
		{0, morning}, {0, evening}, {1, morning}, {2, evening}, {2, morning},
	}
	for _, c := range closes {
		s := h.start(t, shiftDay.AddDate(0, 0, c.day), c.label)
		if err := h.closer.CloseShift(ctx, s); err != nil {
			t.Fatalf("close day=%d label=%s: %v", c.day, c.label, err)
		}
	}

	headers, err := h.history.ListShifts(ctx, 0)
	if err != nil {
		t.Fatalf("list shifts: %v", err)
	}
	want := []struct {
		day   int
		label string
	}{
		{2, morning}, {2, evening}, {1, morning}, {0, morning}, {0, evening},
	}
	if len(headers) != len(want) {
		t.Fatalf("expected %d headers, got %d", len(want), len(headers))
	}
	for i, w := range want {
		if !headers[i].Date.Equal(shiftDay.AddDate(0, 0, w.day)) || headers[i].Label != w.label {
			t.Fatalf("row %d: got=%s/%s want=day+%d/%s", i, headers[i].Date.Format("2006-01-02"), headers[i].Label, w.day, w.label)
		}
	}

	limited, err := h.history.ListShifts(ctx, 2)
	if err != nil {
		t.Fatalf("list shifts limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limit not applied, got %d", len(limited))
	}

	unsynced, err := h.history.ListUnsynced(ctx, 0)
	if err != nil {
		t.Fatalf("list unsynced: %v", err)
	}
	if len(unsynced) != 5 {
		t.Fatalf("expected 5 unsynced shifts, got %d", len(unsynced))
	}
	if err := h.history.MarkSynced(ctx, unsynced[0].ID); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	unsynced, err = h.history.ListUnsynced(ctx, 0)
	if err != nil {
		t.Fatalf("list unsynced: %v", err)
	}
	if len(unsynced) != 4 {
		t.Fatalf("expected 4 unsynced shifts after mark, got %d", len(unsynced))
	}
	if err := h.history.MarkSynced(ctx, "missing"); !errors.Is(err, shift.ErrNotFound) {
		t.Fatalf("expected not found for unknown shift, got %v", err)
	}
}

func TestHistory_UnknownShiftAndStorageFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	report, err := h.history.ShiftDetail(ctx, "does-not-exist")
	if !errors.Is(err, shift.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(report.Attendants) != 0 || !report.NetDifference.IsZero() || !report.TotalSales.IsZero() {
		t.Fatalf("unknown shift should yield an empty report: %+v", report)
	}

	h.store.InjectFault(memory.FaultHistory, errors.New("timeout"))
	if _, err := h.history.ListShifts(ctx, 0); !errors.Is(err, shift.ErrStorage) {
		t.Fatalf("expected storage error from list, got %v", err)
	}
	if _, err := h.history.ShiftDetail(ctx, "any"); !errors.Is(err, shift.ErrStorage) {
		t.Fatalf("expected storage error from detail, got %v", err)
	}
}

func TestRoster_ChangesFlowIntoOpenSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	s := h.start(t, shiftDay, morning)
	m := must(t)
	m(s.SetCurrentReading(shift.HoseKey{DispenserNo: 1, HoseNo: 1}, dec("1010")))
	m(s.AssignHose(shift.HoseKey{DispenserNo: 1, HoseNo: 1}, "att-luis"))
	m(s.SetInStoreSales("att-ana", dec("44")))

	if err := h.sessions.RetireAttendant(ctx, s, "att-luis"); err != nil {
		t.Fatalf("retire attendant: %v", err)
	}
	if s.Ledger("att-luis") != nil {
		t.Fatalf("retired attendant should leave the session")
	}
	if s.Hose(shift.HoseKey{DispenserNo: 1, HoseNo: 1}).Assigned() {
		t.Fatalf("hose of retired attendant should be unassigned")
	}
	if !s.UnassignedRevenue().Equal(dec("2725")) {
		t.Fatalf("unassigned revenue: got=%s want=2725", s.UnassignedRevenue())
	}

	att, err := h.sessions.AddAttendant(ctx, s, "  Marta ", shift.RoleStore)
	if err != nil {
		t.Fatalf("add attendant: %v", err)
	}
	added := s.Ledger(att.ID)
	if added == nil || added.Name() != "Marta" || len(added.Payments()) != 4 || len(added.Lubricants()) != 1 {
		t.Fatalf("new attendant should get a zeroed ledger with catalog lines")
	}

	if err := h.sessions.UpdateAttendant(ctx, s, "att-ana", "Ana Maria", ""); err != nil {
		t.Fatalf("update attendant: %v", err)
	}
	ana := s.Ledger("att-ana")
	if ana.Name() != "Ana Maria" || !ana.InStoreSales().Equal(dec("44")) {
		t.Fatalf("rename must keep inputs: name=%s store=%s", ana.Name(), ana.InStoreSales())
	}

	if err := h.sessions.RetireAttendant(ctx, nil, "ghost"); !errors.Is(err, shift.ErrNotFound) {
		t.Fatalf("expected not found for unknown attendant, got %v", err)
	}

	next := h.start(t, shiftDay.Add(24*time.Hour), morning)
	if next.Ledger("att-luis") != nil || next.Ledger(att.ID) == nil {
		t.Fatalf("new sessions should reflect the roster")
	}
}
