package db

import (
	"errors"
	"testing"

	"github.com/cjkunselman18/pycalphad/lang"
)

func TestNewParameter(t *testing.T) {
	p := mustParameter(t, "bcc_a2", "", "g", [][]string{{"cr"}, {"va"}}, 0, "GHSERCR;!")

	if p.Phase() != "BCC_A2" {
		t.Errorf("expected phase BCC_A2, got %q", p.Phase())
	}

	if p.Type() != "G" {
		t.Errorf("expected type G, got %q", p.Type())
	}

	if p.Suffix() != "" {
		t.Errorf("expected empty suffix, got %q", p.Suffix())
	}

	if p.Degree() != 0 {
		t.Errorf("expected degree 0, got %d", p.Degree())
	}

	sets := p.ConstituentArray()
	if len(sets) != 2 || sets[0][0] != "CR" || sets[1][0] != "VA" {
		t.Errorf("expected normalized constituent array [[CR] [VA]], got %v", sets)
	}
}

func TestNewParameter_Validation(t *testing.T) {
	expr := mustExpr(t, "T;!")

	tests := []struct {
		name  string
		phase string
		ptype string
		expr  *lang.Function
		want  error
	}{
		{name: "empty phase", phase: " ", ptype: "G", expr: expr, want: ErrEmptyName},
		{name: "empty type", phase: "BCC_A2", ptype: "", expr: expr, want: ErrEmptyName},
		{name: "nil expression", phase: "BCC_A2", ptype: "G", expr: nil, want: ErrNoExpression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParameter(tt.phase, "", tt.ptype, [][]string{{"CR"}}, 0, tt.expr)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParameter_PhaseName(t *testing.T) {
	base := mustParameter(t, "BCC_A2", "", "G", [][]string{{"CR"}}, 0, "T;!")
	if base.PhaseName() != "BCC_A2" {
		t.Errorf("expected PhaseName BCC_A2, got %q", base.PhaseName())
	}

	ordered := mustParameter(t, "gamma", "prime", "G", [][]string{{"CR"}}, 0, "T;!")
	if ordered.PhaseName() != "GAMMA_PRIME" {
		t.Errorf("expected PhaseName GAMMA_PRIME, got %q", ordered.PhaseName())
	}

	if ordered.Suffix() != "PRIME" {
		t.Errorf("expected suffix PRIME, got %q", ordered.Suffix())
	}
}

func TestParameter_ConstituentArrayIsolated(t *testing.T) {
	p := mustParameter(t, "BCC_A2", "", "G", [][]string{{"CR"}, {"VA"}}, 0, "T;!")

	sets := p.ConstituentArray()
	sets[0][0] = "NI"

	if got := p.ConstituentArray(); got[0][0] != "CR" {
		t.Error("expected mutating the returned array to leave the parameter unchanged")
	}
}

func TestParameter_Matches(t *testing.T) {
	endmember := mustParameter(t, "BCC_A2", "", "G", [][]string{{"CR"}, {"VA"}}, 0, "T;!")
	interaction := mustParameter(t, "BCC_A2", "", "L", [][]string{{"CR", "FE"}, {"VA"}}, 0, "T;!")

	tests := []struct {
		name       string
		param      *Parameter
		occupation [][]string
		want       bool
	}{
		{
			name:       "exact occupation",
			param:      endmember,
			occupation: [][]string{{"CR"}, {"VA"}},
			want:       true,
		},
		{
			name:       "wider occupation still applies",
			param:      endmember,
			occupation: [][]string{{"CR", "FE"}, {"VA"}},
			want:       true,
		},
		{
			name:       "lower-case occupation",
			param:      endmember,
			occupation: [][]string{{"cr"}, {"va"}},
			want:       true,
		},
		{
			name:       "missing species",
			param:      endmember,
			occupation: [][]string{{"FE"}, {"VA"}},
			want:       false,
		},
		{
			name:       "arity mismatch",
			param:      endmember,
			occupation: [][]string{{"CR"}},
			want:       false,
		},
		{
			name:       "interaction needs both species",
			param:      interaction,
			occupation: [][]string{{"CR"}, {"VA"}},
			want:       false,
		},
		{
			name:       "interaction on mixed sublattice",
			param:      interaction,
			occupation: [][]string{{"CR", "FE"}, {"VA"}},
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.param.Matches(tt.occupation); got != tt.want {
				t.Errorf("Matches(%v) = %v, expected %v", tt.occupation, got, tt.want)
			}
		})
	}
}

func TestParameter_Evaluate(t *testing.T) {
	p := mustParameter(t, "BCC_A2", "", "L", [][]string{{"CR", "FE"}, {"VA"}}, 0, "20500-9.68*T;!")

	got, err := p.Evaluate(t.Context(), lang.NewMacroTable(), lang.StateVariables{"T": 1000.0})
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if want := 20500 - 9.68*1000.0; got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParameter_EvaluateWithReferences(t *testing.T) {
	table := lang.NewMacroTable()
	if err := table.DefineString(t.Context(), "GHSERCR", "10*T;!"); err != nil {
		t.Fatalf("define error: %v", err)
	}

	p := mustParameter(t, "BCC_A2", "", "G", [][]string{{"CR"}, {"VA"}}, 0, "GHSERCR+5;!")

	got, err := p.Evaluate(t.Context(), table, lang.StateVariables{"T": 300.0})
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if want := 10*300.0 + 5; got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}
