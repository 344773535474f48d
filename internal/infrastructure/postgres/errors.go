package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"bankdash/internal/shared/apperror"
)

// Postgres SQLSTATE codes the driver translates.
const (
	codeLockNotAvailable = "55P03"
	codeDeadlock         = "40P01"
	codeQueryCanceled    = "57014"
	codeUniqueViolation  = "23505"
	codeCheckViolation   = "23514"
)

// translate maps driver errors onto the shared error kinds. Errors that
// already carry a kind are returned unchanged.
func translate(err error) error {
	if err == nil || apperror.IsBusiness(err) {
		return err
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeLockNotAvailable, codeDeadlock, codeQueryCanceled:
		return fmt.Errorf("%w: %v", apperror.ErrUnitTimeout, err)
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", apperror.ErrValidation, pqErr.Detail)
	case codeCheckViolation:
		return fmt.Errorf("%w: %s", apperror.ErrValidation, pqErr.Constraint)
	}
	return err
}
