package update

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when an operation is attempted while another update
// operation holds the guard.
var ErrBusy = errors.New("another update operation is in progress")

// IntegrityError reports a downloaded file whose digest does not match the
// descriptor's expected hash. It is fatal for the enclosing operation and is
// never retried automatically.
type IntegrityError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity failure for %s: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

// ContractMismatchError reports a server response that deviates from the
// negotiated shape, e.g. a delta whose fromVersion is not the version the
// client asked to patch from.
type ContractMismatchError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *ContractMismatchError) Error() string {
	return fmt.Sprintf("server contract mismatch on %s: expected %q, got %q", e.Field, e.Expected, e.Actual)
}
