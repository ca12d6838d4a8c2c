package db

import (
	"context"
	"log/slog"
	"slices"

	"github.com/cjkunselman18/pycalphad/lang"
)

// Parameter is one model term: a typed, phase-scoped expression that
// applies when a sublattice occupation satisfies its constituent array.
// Every key field is fixed at construction, so the derived phase key
// can never drift apart from the indexes built over it.
type Parameter struct {
	phase        string
	suffix       string
	ptype        string
	phaseName    string // derived once: phase, or phase "_" suffix
	constituents [][]string
	expr         *lang.Function
	degree       int
}

// NewParameter creates a parameter. The phase, suffix, type tag, and
// constituent names are normalized to upper case. The constituent array
// holds one set of species names per sublattice, and degree is the
// Redlich-Kister term order, meaningful for interaction parameters.
func NewParameter(
	phase, suffix, ptype string,
	constituents [][]string,
	degree int,
	expr *lang.Function,
) (*Parameter, error) {
	phase = lang.NormalizeName(phase)
	if phase == "" {
		return nil, ErrEmptyName.With(slog.String("field", "phase"))
	}

	ptype = lang.NormalizeName(ptype)
	if ptype == "" {
		return nil, ErrEmptyName.With(slog.String("field", "type"))
	}

	if expr == nil {
		return nil, ErrNoExpression.With(slog.String("phase", phase))
	}

	suffix = lang.NormalizeName(suffix)

	sets := make([][]string, len(constituents))
	for i, set := range constituents {
		sets[i] = make([]string, len(set))
		for j, name := range set {
			sets[i][j] = lang.NormalizeName(name)
		}
	}

	name := phase
	if suffix != "" {
		name = phase + "_" + suffix
	}

	return &Parameter{
		phase:        phase,
		suffix:       suffix,
		ptype:        ptype,
		constituents: sets,
		degree:       degree,
		expr:         expr,
		phaseName:    name,
	}, nil
}

// Phase returns the owning phase name.
func (p *Parameter) Phase() string { return p.phase }

// Suffix returns the parameter-set suffix, or "" when the parameter
// belongs to the phase's base set.
func (p *Parameter) Suffix() string { return p.suffix }

// Type returns the parameter type tag, e.g. "G", "L", "TC", "BMAGN".
func (p *Parameter) Type() string { return p.ptype }

// Degree returns the Redlich-Kister term order.
func (p *Parameter) Degree() int { return p.degree }

// PhaseName returns the derived index key: the phase name, joined with
// the suffix by an underscore when a suffix is present.
func (p *Parameter) PhaseName() string { return p.phaseName }

// ConstituentArray returns a copy of the per-sublattice constituent
// sets.
func (p *Parameter) ConstituentArray() [][]string {
	sets := make([][]string, len(p.constituents))
	for i, set := range p.constituents {
		sets[i] = slices.Clone(set)
	}

	return sets
}

// Expression returns the parsed expression. The tree is shared, not
// copied; callers must treat it as read-only.
func (p *Parameter) Expression() *lang.Function { return p.expr }

// Matches reports whether the parameter applies to the given
// per-sublattice occupation: every species the constituent array names
// must be present in the corresponding occupation set.
func (p *Parameter) Matches(occupation [][]string) bool {
	if len(occupation) != len(p.constituents) {
		return false
	}

	for i, set := range p.constituents {
		for _, want := range set {
			found := false

			for _, have := range occupation[i] {
				if lang.NormalizeName(have) == want {
					found = true

					break
				}
			}

			if !found {
				return false
			}
		}
	}

	return true
}

// Evaluate computes the parameter's expression under the given
// conditions, expanding named-function references through table.
func (p *Parameter) Evaluate(ctx context.Context, table *lang.MacroTable, conds lang.Conditions) (float64, error) {
	return p.expr.Evaluate(ctx, table, conds)
}
