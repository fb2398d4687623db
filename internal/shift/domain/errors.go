package shift

import "errors"

var (
	// ErrValidation is returned when a close request is incomplete.
	ErrValidation = errors.New("shift: validation failed")
	// ErrDuplicateShift is returned when a shift already exists for station, date and label.
	ErrDuplicateShift = errors.New("shift: duplicate shift")
	// ErrStorage is the class of all storage failures surfaced by the shift services.
	ErrStorage = errors.New("shift: storage failure")
	// ErrNotFound is returned when a closed shift is not found.
	ErrNotFound = errors.New("shift: not found")
	// ErrNegativeValue is returned when a negative input is provided.
	ErrNegativeValue = errors.New("shift: negative value")
	// ErrUnknownHose is returned when a hose key is not part of the session.
	ErrUnknownHose = errors.New("shift: unknown hose")
	// ErrUnknownAttendant is returned when an attendant id is not part of the session.
	ErrUnknownAttendant = errors.New("shift: unknown attendant")
	// ErrUnknownPaymentMethod is returned when a payment line name does not exist.
	ErrUnknownPaymentMethod = errors.New("shift: unknown payment method")
	// ErrUnknownLubricant is returned when a lubricant line name does not exist.
	ErrUnknownLubricant = errors.New("shift: unknown lubricant")
	// ErrDuplicateAttendant is returned when a ledger is added twice.
	ErrDuplicateAttendant = errors.New("shift: duplicate attendant")
)

// StorageError wraps a low-level storage failure so that callers only ever
// match on ErrStorage.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return "shift: storage failure: " + e.Op
	}
	return "shift: storage failure: " + e.Op + ": " + e.Err.Error()
}

// Unwrap exposes the driver error for logging.
func (e *StorageError) Unwrap() error { return e.Err }

// Is reports ErrStorage membership.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// NewStorageError wraps err unless it already belongs to a shift error class.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) || errors.Is(err, ErrDuplicateShift) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
