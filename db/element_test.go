package db

import (
	"errors"
	"testing"
)

func TestNewElement(t *testing.T) {
	el, err := NewElement("cr", 24, "bcc_a2", 51.996, 4050.0, 23.5429)
	if err != nil {
		t.Fatalf("new element error: %v", err)
	}

	if el.Name() != "CR" {
		t.Errorf("expected normalized name CR, got %q", el.Name())
	}

	if el.ReferencePhase() != "BCC_A2" {
		t.Errorf("expected normalized reference phase BCC_A2, got %q", el.ReferencePhase())
	}

	if el.Number() != 24 || el.Mass() != 51.996 {
		t.Errorf("unexpected atomic data: number %d, mass %v", el.Number(), el.Mass())
	}

	if el.H298() != 4050.0 || el.S298() != 23.5429 {
		t.Errorf("unexpected reference-state data: H298 %v, S298 %v", el.H298(), el.S298())
	}
}

func TestNewElement_EmptyName(t *testing.T) {
	_, err := NewElement("  ", 0, "", 0, 0, 0)
	if !errors.Is(err, ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
}

func TestNewElement_Vacancy(t *testing.T) {
	// The vacancy pseudo-element carries no mass and no atomic number.
	va, err := NewElement("VA", 0, "", 0, 0, 0)
	if err != nil {
		t.Fatalf("new element error: %v", err)
	}

	if va.Name() != "VA" || va.Mass() != 0 {
		t.Errorf("unexpected vacancy element %q mass %v", va.Name(), va.Mass())
	}
}
