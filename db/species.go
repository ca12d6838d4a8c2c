package db

import (
	"log/slog"
	"maps"

	"github.com/cjkunselman18/pycalphad/lang"
)

// Species is a named chemical formula. The name is the identity: two
// species are equal exactly when their names match, whatever their
// formulas say.
type Species struct {
	name    string
	formula map[string]float64 // element symbol -> stoichiometric count
}

// NewSpecies creates a species. The name and the formula's element
// symbols are normalized to upper case; counts must be non-negative.
func NewSpecies(name string, formula map[string]float64) (Species, error) {
	name = lang.NormalizeName(name)
	if name == "" {
		return Species{}, ErrEmptyName
	}

	norm := make(map[string]float64, len(formula))

	for element, count := range formula {
		if count < 0 {
			return Species{}, ErrInvalidFormula.
				With(slog.String("species", name)).
				With(slog.String("element", element)).
				With(slog.Float64("count", count))
		}

		norm[lang.NormalizeName(element)] = count
	}

	return Species{name: name, formula: norm}, nil
}

// NewSpeciesFromElement creates the pure-element species for el: the
// element's own symbol with a single unit of itself.
func NewSpeciesFromElement(el Element) Species {
	return Species{
		name:    el.Name(),
		formula: map[string]float64{el.Name(): 1},
	}
}

// Name returns the species name.
func (s Species) Name() string { return s.name }

// Formula returns a copy of the element -> count mapping.
func (s Species) Formula() map[string]float64 {
	return maps.Clone(s.formula)
}

// Count returns the stoichiometric count of element in the formula, or
// zero when the element does not appear.
func (s Species) Count(element string) float64 {
	return s.formula[lang.NormalizeName(element)]
}

// Equal reports whether two species are the same by name. Formula
// content never participates: two differently defined species sharing
// a name are indistinguishable to the model.
func (s Species) Equal(other Species) bool {
	return s.name == other.name
}
