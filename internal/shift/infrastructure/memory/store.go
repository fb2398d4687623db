package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"shift-reconcile/internal/shift/domain"
)

// Fault points that tests can arm with InjectFault.
const (
	FaultShiftExists   = "shift_exists"
	FaultCloseBaseline = "close_baseline"
	FaultSaveDrafts    = "save_drafts"
	FaultLoadDrafts    = "load_drafts"
	FaultClearDrafts   = "clear_drafts"
	FaultHistory       = "history"
	FaultCatalog       = "catalog"
)

type shiftRecord struct {
	header     shift.ShiftHeader
	attendants []shift.AttendantClose
}

// Store is an in-memory implementation of every shift repository. A close
// is staged completely before it is applied, so a failed close leaves no
// trace.
type Store struct {
	mu sync.RWMutex

	fuels      []shift.FuelProduct
	lubricants []shift.LubricantProduct
	methods    []shift.PaymentMethod
	hoses      []shift.HoseConfig
	attendants []shift.Attendant

	shifts []shiftRecord
	drafts []shift.Draft

	faults map[string]error
	now    func() time.Time
}

// NewStore constructs a store provisioned with catalog.
func NewStore(catalog shift.Catalog) *Store {
	s := &Store{
		fuels:      append([]shift.FuelProduct(nil), catalog.Fuels...),
		lubricants: append([]shift.LubricantProduct(nil), catalog.Lubricants...),
		methods:    append([]shift.PaymentMethod(nil), catalog.PaymentMethods...),
		hoses:      catalog.ResolvePrices(),
		attendants: append([]shift.Attendant(nil), catalog.Attendants...),
		faults:     make(map[string]error),
		now:        time.Now,
	}
	return s
}

// InjectFault makes the named operation fail with err until cleared with a
// nil err.
func (s *Store) InjectFault(point string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, point)
		return
	}
	s.faults[point] = err
}

func (s *Store) fault(point string) error {
	return s.faults[point]
}

// LoadHoseTopology returns hoses ordered by dispenser then hose number.
func (s *Store) LoadHoseTopology(ctx context.Context) ([]shift.HoseConfig, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fault(FaultCatalog); err != nil {
		return nil, err
	}
	out := append([]shift.HoseConfig(nil), s.hoses...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DispenserNo != out[j].DispenserNo {
			return out[i].DispenserNo < out[j].DispenserNo
		}
		return out[i].HoseNo < out[j].HoseNo
	})
	return out, nil
}

func (s *Store) LoadFuelPrices(ctx context.Context) ([]shift.FuelProduct, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fault(FaultCatalog); err != nil {
		return nil, err
	}
	return append([]shift.FuelProduct(nil), s.fuels...), nil
}

func (s *Store) LoadLubricantCatalog(ctx context.Context) ([]shift.LubricantProduct, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fault(FaultCatalog); err != nil {
		return nil, err
	}
	return append([]shift.LubricantProduct(nil), s.lubricants...), nil
}

func (s *Store) LoadPaymentMethodCatalog(ctx context.Context) ([]shift.PaymentMethod, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fault(FaultCatalog); err != nil {
		return nil, err
	}
	return append([]shift.PaymentMethod(nil), s.methods...), nil
}

// LoadActiveAttendants returns active attendants ordered by name.
func (s *Store) LoadActiveAttendants(ctx context.Context) ([]shift.Attendant, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fault(FaultCatalog); err != nil {
		return nil, err
	}
	var out []shift.Attendant
	for _, a := range s.attendants {
		if a.Active {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AddAttendant appends an active attendant.
func (s *Store) AddAttendant(ctx context.Context, attendant shift.Attendant) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attendants {
		if a.ID == attendant.ID {
			return fmt.Errorf("memory store: attendant %s exists", attendant.ID)
		}
	}
	attendant.Active = true
	s.attendants = append(s.attendants, attendant)
	return nil
}

func (s *Store) UpdateAttendant(ctx context.Context, id, name string, role shift.Role) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.attendants {
		if s.attendants[i].ID == id {
			s.attendants[i].Name = name
			if role != "" {
				s.attendants[i].Role = role
			}
			return nil
		}
	}
	return shift.ErrNotFound
}

// RetireAttendant marks an attendant inactive.
func (s *Store) RetireAttendant(ctx context.Context, id string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.attendants {
		if s.attendants[i].ID == id {
			s.attendants[i].Active = false
			return nil
		}
	}
	return shift.ErrNotFound
}

func (s *Store) ShiftExists(ctx context.Context, stationID string, date time.Time, label string) (bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fault(FaultShiftExists); err != nil {
		return false, err
	}
	return s.indexOf(stationID, date, label) >= 0, nil
}

func (s *Store) indexOf(stationID string, date time.Time, label string) int {
	for i, rec := range s.shifts {
		h := rec.header
		if h.StationID == stationID && sameDay(h.Date, date) && h.Label == label {
			return i
		}
	}
	return -1
}

// CloseShift stages the header, snapshots and baseline roll, then applies
// them together.
func (s *Store) CloseShift(ctx context.Context, closed shift.ClosedShift) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(closed.StationID, closed.Date, closed.Label) >= 0 {
		return shift.ErrDuplicateShift
	}

	rec := shiftRecord{
		header: shift.ShiftHeader{
			ID:                  closed.ID,
			StationID:           closed.StationID,
			Date:                closed.Date,
			Label:               closed.Label,
			TotalStationRevenue: closed.TotalStationRevenue,
			CreatedAt:           s.now().UTC(),
		},
	}
	for _, a := range closed.Attendants {
		a.Payments = append([]shift.PaymentLine(nil), a.Payments...)
		rec.attendants = append(rec.attendants, a)
	}

	hoses := append([]shift.HoseConfig(nil), s.hoses...)
	for _, r := range closed.Readings {
		matched := 0
		for i := range hoses {
			if hoses[i].DispenserNo == r.Key.DispenserNo && hoses[i].HoseNo == r.Key.HoseNo {
				hoses[i].PreviousReading = r.Reading
				matched++
			}
		}
		if matched != 1 {
			return fmt.Errorf("memory store: baseline update for hose %s matched %d rows", r.Key, matched)
		}
	}
	if err := s.fault(FaultCloseBaseline); err != nil {
		return err
	}

	s.shifts = append(s.shifts, rec)
	s.hoses = hoses
	return nil
}

func (s *Store) MarkSynced(ctx context.Context, shiftID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.shifts {
		if s.shifts[i].header.ID == shiftID {
			s.shifts[i].header.Synced = true
			return nil
		}
	}
	return shift.ErrNotFound
}

// SaveDrafts replaces every stored draft.
func (s *Store) SaveDrafts(ctx context.Context, drafts []shift.Draft) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(FaultSaveDrafts); err != nil {
		return err
	}
	out := make([]shift.Draft, 0, len(drafts))
	for _, d := range drafts {
		d.Payments = append([]shift.PaymentLine(nil), d.Payments...)
		out = append(out, d)
	}
	s.drafts = out
	return nil
}

func (s *Store) LoadDrafts(ctx context.Context) ([]shift.Draft, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fault(FaultLoadDrafts); err != nil {
		return nil, err
	}
	out := make([]shift.Draft, 0, len(s.drafts))
	for _, d := range s.drafts {
		d.Payments = append([]shift.PaymentLine(nil), d.Payments...)
		out = append(out, d)
	}
	return out, nil
}

func (s *Store) ClearDrafts(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(FaultClearDrafts); err != nil {
		return err
	}
	s.drafts = nil
	return nil
}

// ListShifts returns headers ordered by date then label, both descending.
func (s *Store) ListShifts(ctx context.Context, stationID string, limit int) ([]shift.ShiftHeader, error) {
	return s.listHeaders(ctx, stationID, limit, false)
}

// ListUnsynced returns unsynced headers, oldest first.
func (s *Store) ListUnsynced(ctx context.Context, stationID string, limit int) ([]shift.ShiftHeader, error) {
	headers, err := s.listHeaders(ctx, stationID, 0, true)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(headers)-1; i < j; i, j = i+1, j-1 {
		headers[i], headers[j] = headers[j], headers[i]
	}
	if limit > 0 && len(headers) > limit {
		headers = headers[:limit]
	}
	return headers, nil
}

func (s *Store) listHeaders(ctx context.Context, stationID string, limit int, unsyncedOnly bool) ([]shift.ShiftHeader, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fault(FaultHistory); err != nil {
		return nil, err
	}
	var out []shift.ShiftHeader
	for _, rec := range s.shifts {
		if rec.header.StationID != stationID {
			continue
		}
		if unsyncedOnly && rec.header.Synced {
			continue
		}
		out = append(out, rec.header)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].Label > out[j].Label
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetShift(ctx context.Context, shiftID string) (*shift.ShiftHeader, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fault(FaultHistory); err != nil {
		return nil, err
	}
	for _, rec := range s.shifts {
		if rec.header.ID == shiftID {
			h := rec.header
			return &h, nil
		}
	}
	return nil, nil
}

// ListAttendantSnapshots returns snapshots with payments summed per
// category in cash, card, other order.
func (s *Store) ListAttendantSnapshots(ctx context.Context, shiftID string) ([]shift.AttendantSnapshot, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fault(FaultHistory); err != nil {
		return nil, err
	}
	for _, rec := range s.shifts {
		if rec.header.ID != shiftID {
			continue
		}
		out := make([]shift.AttendantSnapshot, 0, len(rec.attendants))
		for _, a := range rec.attendants {
			out = append(out, shift.AttendantSnapshot{
				ID:             a.SnapshotID,
				ShiftID:        shiftID,
				AttendantID:    a.AttendantID,
				Name:           a.Name,
				Role:           a.Role,
				FuelAllocation: a.FuelAllocation,
				LubricantTotal: a.LubricantTotal,
				InStoreSales:   a.InStoreSales,
				PaymentTotal:   a.PaymentTotal,
				Difference:     a.Difference,
				Payments:       groupByCategory(a.Payments),
			})
		}
		return out, nil
	}
	return []shift.AttendantSnapshot{}, nil
}

// Hoses returns the current topology with baselines.
func (s *Store) Hoses() []shift.HoseConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]shift.HoseConfig(nil), s.hoses...)
}

// ShiftCount returns the number of committed shifts.
func (s *Store) ShiftCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.shifts)
}

// DraftCount returns the number of stored drafts.
func (s *Store) DraftCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}

// SetNow overrides the clock used for created_at.
func (s *Store) SetNow(now func() time.Time) {
	if now == nil {
		return
	}
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func groupByCategory(lines []shift.PaymentLine) []shift.CategoryTotal {
	sums := make(map[shift.PaymentCategory]decimal.Decimal)
	for _, p := range lines {
		if cur, ok := sums[p.Category]; ok {
			sums[p.Category] = cur.Add(p.Amount)
		} else {
			sums[p.Category] = p.Amount
		}
	}
	out := make([]shift.CategoryTotal, 0, len(sums))
	for _, c := range shift.PaymentCategories() {
		if amt, ok := sums[c]; ok {
			out = append(out, shift.CategoryTotal{Category: c, Amount: amt})
		}
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

var _ interface {
	shift.CatalogReader
	shift.RosterWriter
	shift.ShiftWriter
	shift.DraftStore
	shift.HistoryReader
} = (*Store)(nil)
