package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"shift-reconcile/internal/shift/domain"
)

// SessionService builds working sessions from the catalog and keeps their
// roster current.
type SessionService struct {
	catalog shift.CatalogReader
	roster  shift.RosterWriter
	drafts  *DraftService
	logger  *log.Logger
}

// NewSessionService constructs the service. roster and drafts are optional.
func NewSessionService(catalog shift.CatalogReader, roster shift.RosterWriter, drafts *DraftService, logger *log.Logger) (*SessionService, error) {
	if catalog == nil {
		return nil, errors.New("session service: nil catalog reader")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SessionService{
		catalog: catalog,
		roster:  roster,
		drafts:  drafts,
		logger:  logger,
	}, nil
}

// catalogSnapshot is everything a session is built from.
type catalogSnapshot struct {
	topology   []shift.HoseConfig
	lubricants []shift.LubricantProduct
	methods    []shift.PaymentMethod
	attendants []shift.Attendant
}

func (s *SessionService) loadCatalog(ctx context.Context) (catalogSnapshot, error) {
	var snap catalogSnapshot
	var err error
	if snap.topology, err = s.catalog.LoadHoseTopology(ctx); err != nil {
		return snap, shift.NewStorageError("load hose topology", err)
	}
	if snap.lubricants, err = s.catalog.LoadLubricantCatalog(ctx); err != nil {
		return snap, shift.NewStorageError("load lubricant catalog", err)
	}
	if snap.methods, err = s.catalog.LoadPaymentMethodCatalog(ctx); err != nil {
		return snap, shift.NewStorageError("load payment methods", err)
	}
	if snap.attendants, err = s.catalog.LoadActiveAttendants(ctx); err != nil {
		return snap, shift.NewStorageError("load attendants", err)
	}
	return snap, nil
}

func (s *SessionService) build(ctx context.Context, date time.Time, label string) (*shift.Session, catalogSnapshot, error) {
	snap, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, snap, err
	}
	session := shift.NewSession(date, label, shift.BuildDispenserGroups(snap.topology))
	for _, att := range snap.attendants {
		if _, err := session.AddLedger(shift.NewAttendantLedger(att, snap.lubricants, snap.methods)); err != nil {
			return nil, snap, fmt.Errorf("session service: add attendant %s: %w", att.ID, err)
		}
	}
	return session, snap, nil
}

// StartSession builds a session from the catalog and restores any saved
// drafts.
func (s *SessionService) StartSession(ctx context.Context, date time.Time, label string) (*shift.Session, error) {
	session, snap, err := s.build(ctx, date, label)
	if err != nil {
		return nil, err
	}
	restored := 0
	if s.drafts != nil {
		restored = s.drafts.Apply(session, s.drafts.Load(ctx))
	}
	s.logger.Printf("session started: date=%s label=%s hoses=%d attendants=%d drafts=%d",
		session.Date().Format("2006-01-02"), label, len(snap.topology), len(snap.attendants), restored)
	return session, nil
}

// NextSession reloads the topology after a close so that every hose starts
// from its rolled baseline with zero volume. Drafts are not applied.
func (s *SessionService) NextSession(ctx context.Context, date time.Time, label string) (*shift.Session, error) {
	session, _, err := s.build(ctx, date, label)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// RefreshRoster aligns the session ledgers with the active roster. Retired
// attendants are removed and their hoses detached; new attendants get zeroed
// ledgers; existing ledgers keep their inputs.
func (s *SessionService) RefreshRoster(ctx context.Context, session *shift.Session) error {
	if session == nil {
		return errors.New("session service: nil session")
	}
	snap, err := s.loadCatalog(ctx)
	if err != nil {
		return err
	}

	active := make(map[string]shift.Attendant, len(snap.attendants))
	for _, att := range snap.attendants {
		active[att.ID] = att
	}
	for _, l := range session.Ledgers() {
		if _, ok := active[l.ID()]; ok {
			continue
		}
		if _, err := session.RemoveLedger(l.ID()); err != nil {
			return fmt.Errorf("session service: remove attendant %s: %w", l.ID(), err)
		}
	}
	for _, att := range snap.attendants {
		if session.Ledger(att.ID) != nil {
			if err := session.UpdateLedgerIdentity(att.ID, att.Name, att.Role); err != nil {
				return fmt.Errorf("session service: update attendant %s: %w", att.ID, err)
			}
			continue
		}
		if _, err := session.AddLedger(shift.NewAttendantLedger(att, snap.lubricants, snap.methods)); err != nil {
			return fmt.Errorf("session service: add attendant %s: %w", att.ID, err)
		}
	}
	return nil
}

// AddAttendant registers a new active attendant and refreshes the session
// roster when a session is given.
func (s *SessionService) AddAttendant(ctx context.Context, session *shift.Session, name string, role shift.Role) (shift.Attendant, error) {
	if s.roster == nil {
		return shift.Attendant{}, errors.New("session service: roster writes not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return shift.Attendant{}, fmt.Errorf("%w: attendant name required", shift.ErrValidation)
	}
	if role == "" {
		role = shift.RoleForecourt
	}
	att := shift.Attendant{ID: uuid.NewString(), Name: name, Role: role, Active: true}
	if err := s.roster.AddAttendant(ctx, att); err != nil {
		return shift.Attendant{}, shift.NewStorageError("add attendant", err)
	}
	s.logger.Printf("attendant added: id=%s name=%s role=%s", att.ID, att.Name, att.Role)
	return att, s.refreshIfOpen(ctx, session)
}

// UpdateAttendant renames an attendant or changes the role.
func (s *SessionService) UpdateAttendant(ctx context.Context, session *shift.Session, id, name string, role shift.Role) error {
	if s.roster == nil {
		return errors.New("session service: roster writes not configured")
	}
	if strings.TrimSpace(id) == "" || strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: attendant id and name required", shift.ErrValidation)
	}
	if err := s.roster.UpdateAttendant(ctx, id, strings.TrimSpace(name), role); err != nil {
		return shift.NewStorageError("update attendant", err)
	}
	return s.refreshIfOpen(ctx, session)
}

// RetireAttendant marks an attendant inactive. Historical snapshots keep
// referencing the row.
func (s *SessionService) RetireAttendant(ctx context.Context, session *shift.Session, id string) error {
	if s.roster == nil {
		return errors.New("session service: roster writes not configured")
	}
	if err := s.roster.RetireAttendant(ctx, id); err != nil {
		return shift.NewStorageError("retire attendant", err)
	}
	s.logger.Printf("attendant retired: id=%s", id)
	return s.refreshIfOpen(ctx, session)
}

func (s *SessionService) refreshIfOpen(ctx context.Context, session *shift.Session) error {
	if session == nil {
		return nil
	}
	return s.RefreshRoster(ctx, session)
}
