package db

import "github.com/cjkunselman18/pycalphad/lang"

// Element is a chemical element with its reference-state data. Elements
// are immutable once constructed.
type Element struct {
	name     string
	refPhase string
	mass     float64
	h298     float64
	s298     float64
	number   int
}

// NewElement creates an element. The symbol and reference phase name
// are normalized to upper case. Mass is the molar mass in g/mol; h298
// and s298 are the enthalpy (J/mol) and entropy (J/(mol K)) offsets of
// the reference state at 298.15 K.
func NewElement(name string, number int, refPhase string, mass, h298, s298 float64) (Element, error) {
	name = lang.NormalizeName(name)
	if name == "" {
		return Element{}, ErrEmptyName
	}

	return Element{
		name:     name,
		number:   number,
		refPhase: lang.NormalizeName(refPhase),
		mass:     mass,
		h298:     h298,
		s298:     s298,
	}, nil
}

// Name returns the chemical symbol.
func (e Element) Name() string { return e.name }

// Number returns the atomic number.
func (e Element) Number() int { return e.number }

// Mass returns the molar mass in g/mol.
func (e Element) Mass() float64 { return e.mass }

// ReferencePhase returns the name of the element's reference-state
// phase, e.g. "BCC_A2" for chromium.
func (e Element) ReferencePhase() string { return e.refPhase }

// H298 returns the enthalpy offset of the reference state at 298.15 K
// in J/mol.
func (e Element) H298() float64 { return e.h298 }

// S298 returns the entropy offset of the reference state at 298.15 K
// in J/(mol K).
func (e Element) S298() float64 { return e.s298 }
