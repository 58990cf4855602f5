package notifications

import (
	"errors"
	"fmt"

	pkgerrors "github.com/NeatNerdPrime/bluedoc/pkg/errors"
)

// ErrTargetNotFound is returned by TargetLoader implementations for missing entities.
var ErrTargetNotFound = errors.New("target not found")

// TargetResolutionError reports a target that could not be loaded or is of an unsupported kind.
type TargetResolutionError struct {
	Ref TargetRef
	Err error
}

func (e *TargetResolutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("resolve target %s", e.Ref)
	}
	return fmt.Sprintf("resolve target %s: %v", e.Ref, e.Err)
}

func (e *TargetResolutionError) Unwrap() error {
	return e.Err
}

func newResolutionError(ref TargetRef, err error) *TargetResolutionError {
	var coded *pkgerrors.Error
	switch {
	case errors.As(err, &coded):
	case errors.Is(err, ErrTargetNotFound):
		err = pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "notification target not found")
	default:
		err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification target")
	}
	return &TargetResolutionError{Ref: ref, Err: err}
}
