package db

import (
	"iter"
	"log/slog"
	"slices"

	"github.com/cjkunselman18/pycalphad/lang"
)

// Sublattice is one site of a phase's crystal structure: a site
// stoichiometric coefficient and the ordered species names that may
// occupy the site.
type Sublattice struct {
	constituents []string
	coefficient  float64
}

// NewSublattice creates a sublattice. Constituent names are normalized
// to upper case, keep their given order, and must be unique within the
// sublattice.
func NewSublattice(coefficient float64, constituents ...string) (Sublattice, error) {
	names := make([]string, 0, len(constituents))

	for _, c := range constituents {
		name := lang.NormalizeName(c)
		if name == "" {
			return Sublattice{}, ErrEmptyName
		}

		if slices.Contains(names, name) {
			return Sublattice{}, ErrDuplicateName.
				With(slog.String("constituent", name))
		}

		names = append(names, name)
	}

	return Sublattice{coefficient: coefficient, constituents: names}, nil
}

// Coefficient returns the site stoichiometric coefficient.
func (s Sublattice) Coefficient() float64 { return s.coefficient }

// Constituents returns a copy of the ordered constituent names.
func (s Sublattice) Constituents() []string {
	return slices.Clone(s.constituents)
}

// Len returns the number of constituents.
func (s Sublattice) Len() int { return len(s.constituents) }

// Contains reports whether name occupies the sublattice.
func (s Sublattice) Contains(name string) bool {
	return slices.Contains(s.constituents, lang.NormalizeName(name))
}

// Phase is a named crystal structure: an ordered sequence of
// sublattices plus the model parameters scoped to the phase. Sublattice
// order is significant; it defines the index that parameter constituent
// arrays are matched against.
type Phase struct {
	name        string
	sublattices []Sublattice
	params      []*Parameter
}

// NewPhase creates a phase with its sublattice sequence. The name is
// normalized to upper case.
func NewPhase(name string, sublattices ...Sublattice) (*Phase, error) {
	name = lang.NormalizeName(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	return &Phase{
		name:        name,
		sublattices: slices.Clone(sublattices),
	}, nil
}

// Name returns the phase name.
func (p *Phase) Name() string { return p.name }

// Sublattices returns a copy of the ordered sublattice sequence.
func (p *Phase) Sublattices() []Sublattice {
	return slices.Clone(p.sublattices)
}

// SublatticeCount returns the number of sublattices.
func (p *Phase) SublatticeCount() int { return len(p.sublattices) }

// AddParameter attaches a parameter to the phase. The parameter's phase
// name must match, and its constituent array must provide one
// constituent set per sublattice.
func (p *Phase) AddParameter(param *Parameter) error {
	if param.Phase() != p.name {
		return ErrPhaseMismatch.
			With(slog.String("phase", p.name)).
			With(slog.String("parameter_phase", param.Phase()))
	}

	if n := len(param.constituents); n != len(p.sublattices) {
		return ErrConstituentArity.
			With(slog.String("phase", p.name)).
			With(slog.Int("sublattices", len(p.sublattices))).
			With(slog.Int("constituent_sets", n))
	}

	p.params = append(p.params, param)

	return nil
}

// Parameters returns an iterator over the phase's parameters in
// insertion order.
func (p *Phase) Parameters() iter.Seq[*Parameter] {
	return func(yield func(*Parameter) bool) {
		for _, param := range p.params {
			if !yield(param) {
				return
			}
		}
	}
}

// ParameterCount returns the number of parameters attached to the
// phase.
func (p *Phase) ParameterCount() int { return len(p.params) }
