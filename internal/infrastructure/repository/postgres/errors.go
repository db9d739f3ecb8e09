package postgres

import (
	stderrors "errors"

	crerr "github.com/cockroachdb/errors"
	"github.com/lib/pq"
)

// Sentinels marking the failure classes the load pipeline distinguishes: a
// transient coordination failure is worth the single row-granularity retry,
// an unavailable or mis-schemaed store is not.
var (
	ErrTransient   = crerr.New("transient postgres failure")
	ErrUnavailable = crerr.New("postgres unavailable")
)

const (
	pqClassConnection      = "08"
	pqClassOperator        = "57"
	pqCodeDeadlock         = "40P01"
	pqCodeSerialization    = "40001"
	pqCodeUndefinedTable   = "42P01"
	pqCodeUndefinedColumn  = "42703"
	pqCodeTooManyClients   = "53300"
	pqCodeInsufficientRsrc = "53000"
)

// storageErr marks driver failures with the matching sentinel so callers can
// separate retry-worthy rows from a dead store. Errors outside the known
// codes pass through unmarked; those are row-attributable (constraint
// violations and the like).
func storageErr(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		code := string(pqErr.Code)
		class := string(pqErr.Code.Class())
		switch {
		case code == pqCodeDeadlock || code == pqCodeSerialization:
			return crerr.Mark(err, ErrTransient)
		case class == pqClassConnection || class == pqClassOperator:
			return crerr.Mark(err, ErrUnavailable)
		case code == pqCodeUndefinedTable || code == pqCodeUndefinedColumn:
			return crerr.Mark(err, ErrUnavailable)
		case code == pqCodeTooManyClients || code == pqCodeInsufficientRsrc:
			return crerr.Mark(err, ErrTransient)
		}
		return err
	}

	return err
}

// IsTransient reports whether the error was a momentary coordination
// failure, such as a deadlock or serialization conflict.
func IsTransient(err error) bool {
	return stderrors.Is(err, ErrTransient)
}

// IsUnavailable reports whether the error means the store cannot serve the
// run at all: connection-level failures and missing schema objects.
func IsUnavailable(err error) bool {
	return stderrors.Is(err, ErrUnavailable)
}
