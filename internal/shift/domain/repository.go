package shift

import (
	"context"
	"time"
)

// CatalogReader loads reference data and the active roster.
type CatalogReader interface {
	LoadHoseTopology(ctx context.Context) ([]HoseConfig, error)
	LoadFuelPrices(ctx context.Context) ([]FuelProduct, error)
	LoadLubricantCatalog(ctx context.Context) ([]LubricantProduct, error)
	LoadPaymentMethodCatalog(ctx context.Context) ([]PaymentMethod, error)
	LoadActiveAttendants(ctx context.Context) ([]Attendant, error)
}

// RosterWriter maintains the attendant catalog.
type RosterWriter interface {
	AddAttendant(ctx context.Context, attendant Attendant) error
	UpdateAttendant(ctx context.Context, id, name string, role Role) error
	RetireAttendant(ctx context.Context, id string) error
}

// ShiftWriter commits closed shifts.
type ShiftWriter interface {
	ShiftExists(ctx context.Context, stationID string, date time.Time, label string) (bool, error)
	// CloseShift writes the header, snapshots, payment details and baseline
	// roll in one transaction.
	CloseShift(ctx context.Context, closed ClosedShift) error
	MarkSynced(ctx context.Context, shiftID string) error
}

// DraftStore persists in-progress attendant inputs.
type DraftStore interface {
	// SaveDrafts replaces every stored draft.
	SaveDrafts(ctx context.Context, drafts []Draft) error
	LoadDrafts(ctx context.Context) ([]Draft, error)
	ClearDrafts(ctx context.Context) error
}

// HistoryReader reads committed shifts.
type HistoryReader interface {
	ListShifts(ctx context.Context, stationID string, limit int) ([]ShiftHeader, error)
	// GetShift returns nil when the shift does not exist.
	GetShift(ctx context.Context, shiftID string) (*ShiftHeader, error)
	ListAttendantSnapshots(ctx context.Context, shiftID string) ([]AttendantSnapshot, error)
	ListUnsynced(ctx context.Context, stationID string, limit int) ([]ShiftHeader, error)
}
