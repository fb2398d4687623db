package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"shift-reconcile/internal/observability/metrics"
	"shift-reconcile/internal/shift/domain"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// IDGenerator supplies ids for shift headers and attendant snapshots.
type IDGenerator func() string

// CloseService commits the working session as a closed shift.
type CloseService struct {
	writer    shift.ShiftWriter
	drafts    shift.DraftStore
	stationID string
	labels    map[string]struct{}
	ids       IDGenerator
	clock     Clock
	logger    *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// CloseOption customizes a CloseService.
type CloseOption func(*CloseService)

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(ids IDGenerator) CloseOption {
	return func(s *CloseService) {
		if ids != nil {
			s.ids = ids
		}
	}
}

// WithClock overrides the wall clock used for latency metrics.
func WithClock(clock Clock) CloseOption {
	return func(s *CloseService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewCloseService constructs the service. labels is the configured set of
// shift labels; an empty set accepts any non-empty label.
func NewCloseService(
	writer shift.ShiftWriter,
	drafts shift.DraftStore,
	stationID string,
	labels []string,
	logger *log.Logger,
	opts ...CloseOption,
) (*CloseService, error) {
	if writer == nil {
		return nil, errors.New("close service: nil shift writer")
	}
	if strings.TrimSpace(stationID) == "" {
		return nil, errors.New("close service: station id required")
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &CloseService{
		writer:    writer,
		drafts:    drafts,
		stationID: stationID,
		labels:    make(map[string]struct{}, len(labels)),
		ids:       uuid.NewString,
		clock:     SystemClock{},
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			s.labels[l] = struct{}{}
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CloseShift validates the session and writes it as one closed shift. The
// session itself is left untouched; callers start the next shift with
// SessionService.NextSession.
func (s *CloseService) CloseShift(ctx context.Context, session *shift.Session) error {
	start := s.clock.Now()
	err := s.closeShift(ctx, session)
	metrics.ObserveShiftClose(closeResult(err), s.clock.Now().Sub(start))
	return err
}

func (s *CloseService) closeShift(ctx context.Context, session *shift.Session) error {
	if err := s.validate(session); err != nil {
		return err
	}

	lock := s.stationLock(s.stationID)
	lock.Lock()
	defer lock.Unlock()

	exists, err := s.writer.ShiftExists(ctx, s.stationID, session.Date(), session.Label())
	if err != nil {
		return shift.NewStorageError("check duplicate", err)
	}
	if exists {
		return shift.ErrDuplicateShift
	}

	closed := shift.NewClosedShift(s.stationID, session, s.ids)
	if err := s.writer.CloseShift(ctx, closed); err != nil {
		if errors.Is(err, shift.ErrDuplicateShift) {
			return shift.ErrDuplicateShift
		}
		s.logger.Printf("shift close failed: station=%s date=%s label=%s err=%v",
			s.stationID, session.Date().Format("2006-01-02"), session.Label(), err)
		return shift.NewStorageError("close shift", err)
	}
	s.logger.Printf("shift closed: station=%s id=%s date=%s label=%s attendants=%d revenue=%s",
		s.stationID, closed.ID, session.Date().Format("2006-01-02"), session.Label(),
		len(closed.Attendants), closed.TotalStationRevenue.StringFixed(2))

	s.clearDrafts(ctx)
	return nil
}

func (s *CloseService) validate(session *shift.Session) error {
	if session == nil {
		return fmt.Errorf("%w: nil session", shift.ErrValidation)
	}
	label := strings.TrimSpace(session.Label())
	if label == "" {
		return fmt.Errorf("%w: shift label required", shift.ErrValidation)
	}
	if len(s.labels) > 0 {
		if _, ok := s.labels[label]; !ok {
			return fmt.Errorf("%w: unknown shift label %q", shift.ErrValidation, label)
		}
	}
	if session.Date().IsZero() {
		return fmt.Errorf("%w: shift date required", shift.ErrValidation)
	}
	if len(session.Ledgers()) == 0 {
		return fmt.Errorf("%w: at least one attendant required", shift.ErrValidation)
	}
	return nil
}

func (s *CloseService) clearDrafts(ctx context.Context) {
	if s.drafts == nil {
		return
	}
	if err := s.drafts.ClearDrafts(ctx); err != nil {
		metrics.IncDraftOp(metrics.DraftOpClear, metrics.ResultError)
		s.logger.Printf("draft clear failed after close: station=%s err=%v", s.stationID, err)
		return
	}
	metrics.IncDraftOp(metrics.DraftOpClear, metrics.ResultSuccess)
}

func (s *CloseService) stationLock(stationID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[stationID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[stationID] = lock
	}
	return lock
}

func closeResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, shift.ErrDuplicateShift):
		return metrics.ResultDuplicate
	case errors.Is(err, shift.ErrValidation):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
