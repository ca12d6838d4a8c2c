package db

import "github.com/cjkunselman18/pycalphad/lang"

// Predefined errors (sentinel values). All share the lang error type,
// so position, attribute, and wrapping behavior is uniform across the
// module.
var (
	ErrFrozen           = lang.NewError("database is frozen")
	ErrDuplicateName    = lang.NewError("duplicate name")
	ErrEmptyName        = lang.NewError("empty name")
	ErrInvalidFormula   = lang.NewError("invalid formula")
	ErrUnknownPhase     = lang.NewError("unknown phase")
	ErrPhaseMismatch    = lang.NewError("parameter phase does not match")
	ErrConstituentArity = lang.NewError("constituent array does not match sublattice count")
	ErrNoExpression     = lang.NewError("parameter has no expression")
)
