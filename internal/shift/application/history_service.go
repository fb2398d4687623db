package application

import (
	"context"
	"errors"
	"time"

	"shift-reconcile/internal/observability/metrics"
	"shift-reconcile/internal/shift/domain"
)

// DefaultHistoryLimit is used when a non-positive limit is requested.
const DefaultHistoryLimit = 50

// HistoryService answers read-only queries over closed shifts.
type HistoryService struct {
	reader       shift.HistoryReader
	writer       shift.ShiftWriter
	stationID    string
	defaultLimit int
}

// NewHistoryService constructs the service. writer is only needed for
// MarkSynced. defaultLimit <= 0 falls back to DefaultHistoryLimit.
func NewHistoryService(reader shift.HistoryReader, writer shift.ShiftWriter, stationID string, defaultLimit int) (*HistoryService, error) {
	if reader == nil {
		return nil, errors.New("history service: nil history reader")
	}
	if stationID == "" {
		return nil, errors.New("history service: station id required")
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultHistoryLimit
	}
	return &HistoryService{
		reader:       reader,
		writer:       writer,
		stationID:    stationID,
		defaultLimit: defaultLimit,
	}, nil
}

// ListShifts returns the most recent closed shifts ordered by date then
// label, both descending.
func (s *HistoryService) ListShifts(ctx context.Context, limit int) ([]shift.ShiftHeader, error) {
	start := time.Now()
	if limit <= 0 {
		limit = s.defaultLimit
	}
	headers, err := s.reader.ListShifts(ctx, s.stationID, limit)
	observeHistory("list", err, start)
	if err != nil {
		return nil, shift.NewStorageError("list shifts", err)
	}
	if headers == nil {
		headers = []shift.ShiftHeader{}
	}
	return headers, nil
}

// ShiftDetail returns the header and every attendant snapshot of a shift.
// An unknown id yields an empty report and ErrNotFound.
func (s *HistoryService) ShiftDetail(ctx context.Context, shiftID string) (shift.ShiftReport, error) {
	start := time.Now()
	report, err := s.shiftDetail(ctx, shiftID)
	observeHistory("detail", err, start)
	return report, err
}

func (s *HistoryService) shiftDetail(ctx context.Context, shiftID string) (shift.ShiftReport, error) {
	empty := shift.NewShiftReport(shift.ShiftHeader{}, nil)
	if shiftID == "" {
		return empty, shift.ErrNotFound
	}
	header, err := s.reader.GetShift(ctx, shiftID)
	if err != nil {
		return empty, shift.NewStorageError("get shift", err)
	}
	if header == nil {
		return empty, shift.ErrNotFound
	}
	snapshots, err := s.reader.ListAttendantSnapshots(ctx, shiftID)
	if err != nil {
		return empty, shift.NewStorageError("list attendant snapshots", err)
	}
	return shift.NewShiftReport(*header, snapshots), nil
}

// ListUnsynced returns closed shifts not yet pushed to head office.
func (s *HistoryService) ListUnsynced(ctx context.Context, limit int) ([]shift.ShiftHeader, error) {
	start := time.Now()
	if limit <= 0 {
		limit = s.defaultLimit
	}
	headers, err := s.reader.ListUnsynced(ctx, s.stationID, limit)
	observeHistory("unsynced", err, start)
	if err != nil {
		return nil, shift.NewStorageError("list unsynced", err)
	}
	if headers == nil {
		headers = []shift.ShiftHeader{}
	}
	return headers, nil
}

// MarkSynced flags a closed shift as pushed to head office.
func (s *HistoryService) MarkSynced(ctx context.Context, shiftID string) error {
	if s.writer == nil {
		return errors.New("history service: shift writer not configured")
	}
	if shiftID == "" {
		return shift.ErrNotFound
	}
	if err := s.writer.MarkSynced(ctx, shiftID); err != nil {
		return shift.NewStorageError("mark synced", err)
	}
	return nil
}

func observeHistory(query string, err error, start time.Time) {
	result := metrics.ResultSuccess
	if err != nil && !errors.Is(err, shift.ErrNotFound) {
		result = metrics.ResultError
	}
	metrics.ObserveHistoryQuery(query, result, time.Since(start))
}
