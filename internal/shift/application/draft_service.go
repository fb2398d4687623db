package application

import (
	"context"
	"errors"
	"log"

	"shift-reconcile/internal/observability/metrics"
	"shift-reconcile/internal/shift/domain"
)

// DraftService saves and restores in-progress attendant inputs. Every
// failure is logged and swallowed.
type DraftService struct {
	store  shift.DraftStore
	logger *log.Logger
}

// NewDraftService constructs the service.
func NewDraftService(store shift.DraftStore, logger *log.Logger) (*DraftService, error) {
	if store == nil {
		return nil, errors.New("draft service: nil draft store")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &DraftService{store: store, logger: logger}, nil
}

// Save replaces every stored draft with the current ledger inputs. It
// reports whether the write succeeded.
func (s *DraftService) Save(ctx context.Context, ledgers []*shift.AttendantLedger) bool {
	if err := s.store.SaveDrafts(ctx, shift.NewDrafts(ledgers)); err != nil {
		metrics.IncDraftOp(metrics.DraftOpSave, metrics.ResultError)
		s.logger.Printf("draft save failed: attendants=%d err=%v", len(ledgers), err)
		return false
	}
	metrics.IncDraftOp(metrics.DraftOpSave, metrics.ResultSuccess)
	return true
}

// SaveSession is Save over the session ledgers.
func (s *DraftService) SaveSession(ctx context.Context, session *shift.Session) bool {
	if session == nil {
		return false
	}
	return s.Save(ctx, session.Ledgers())
}

// Load returns the stored drafts, or none when the store fails.
func (s *DraftService) Load(ctx context.Context) []shift.Draft {
	drafts, err := s.store.LoadDrafts(ctx)
	if err != nil {
		metrics.IncDraftOp(metrics.DraftOpLoad, metrics.ResultError)
		s.logger.Printf("draft load failed: err=%v", err)
		return nil
	}
	metrics.IncDraftOp(metrics.DraftOpLoad, metrics.ResultSuccess)
	return drafts
}

// Apply restores drafts into the session. In-store sales are restored for
// every matching attendant; payment amounts are restored by method name
// and skipped with a log line when the method no longer exists. It returns the
// number of attendants restored.
func (s *DraftService) Apply(session *shift.Session, drafts []shift.Draft) int {
	if session == nil {
		return 0
	}
	restored := 0
	for _, d := range drafts {
		if session.Ledger(d.AttendantID) == nil {
			continue
		}
		if _, err := session.SetInStoreSales(d.AttendantID, d.InStoreSales); err != nil {
			s.logger.Printf("draft restore skipped: attendant=%s err=%v", d.AttendantID, err)
			continue
		}
		for _, p := range d.Payments {
			if _, err := session.SetPaymentAmount(d.AttendantID, p.Name, p.Amount); err != nil {
				s.logger.Printf("draft payment skipped: attendant=%s method=%s err=%v", d.AttendantID, p.Name, err)
			}
		}
		restored++
	}
	return restored
}
