package application

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	shift "shift-reconcile/internal/shift/domain"
	"shift-reconcile/internal/shift/infrastructure/memory"
)

func TestNewCloseService_RejectsMissingDependencies(t *testing.T) {
	store := memory.NewStore(shift.Catalog{})
	if _, err := NewCloseService(nil, store, "s1", nil, nil); err == nil {
		t.Fatalf("expected error for nil writer")
	}
	if _, err := NewCloseService(store, store, " ", nil, nil); err == nil {
		t.Fatalf("expected error for blank station")
	}
	if _, err := NewHistoryService(nil, store, "s1", 0); err == nil {
		t.Fatalf("expected error for nil reader")
	}
	if _, err := NewDraftService(nil, nil); err == nil {
		t.Fatalf("expected error for nil draft store")
	}
	if _, err := NewSessionService(nil, nil, nil, nil); err == nil {
		t.Fatalf("expected error for nil catalog")
	}
}

func TestCloseService_EmptyLabelSetAcceptsAnyLabel(t *testing.T) {
	store := memory.NewStore(shift.Catalog{
		Fuels: []shift.FuelProduct{{Name: "Regular", Price: decimal.RequireFromString("1")}},
		Hoses: []shift.HoseConfig{{DispenserNo: 1, HoseNo: 1, ProductName: "Regular"}},
		Attendants: []shift.Attendant{
			{ID: "a1", Name: "A", Active: true},
		},
	})
	logger := log.New(io.Discard, "", 0)

	n := 0
	ids := func() string {
		n++
		return "id-" + string(rune('a'+n))
	}
	svc, err := NewCloseService(store, nil, "s1", nil, logger, WithIDGenerator(ids), WithClock(fixedClock{}))
	if err != nil {
		t.Fatalf("new close service: %v", err)
	}
	sessions, err := NewSessionService(store, nil, nil, logger)
	if err != nil {
		t.Fatalf("new session service: %v", err)
	}
	s, err := sessions.StartSession(context.Background(), time.Date(2026, time.May, 1, 15, 30, 0, 0, time.UTC), "Special")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if err := svc.CloseShift(context.Background(), s); err != nil {
		t.Fatalf("close shift: %v", err)
	}
	headers, err := store.ListShifts(context.Background(), "s1", 10)
	if err != nil || len(headers) != 1 {
		t.Fatalf("expected one header: n=%d err=%v", len(headers), err)
	}
	if headers[0].ID != "id-b" || !headers[0].Date.Equal(time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected header: %+v", headers[0])
	}

	if _, err := sessions.AddAttendant(context.Background(), nil, "X", ""); err == nil {
		t.Fatalf("roster writes should fail without a roster writer")
	}
}

func TestCloseResult(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{shift.ErrDuplicateShift, "duplicate"},
		{errors.Join(shift.ErrValidation, errors.New("x")), "invalid"},
		{shift.NewStorageError("op", errors.New("boom")), "error"},
	}
	for _, c := range cases {
		if got := closeResult(c.err); got != c.want {
			t.Fatalf("closeResult(%v): got=%s want=%s", c.err, got, c.want)
		}
	}
}

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC) }
