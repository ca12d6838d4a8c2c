package lang

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
)

// crBCCSource is the SGTE Gibbs energy of BCC chromium, a four-segment
// production function exercising every operator the language has.
const crBCCSource = `298.15  -7285.889+119.139857*T-23.7592624*T*LN(T)
  -.002623033*T**2+1.70109E-07*T**3-3293*T**(-1);  1.30000E+03  Y
  -22389.955+243.88676*T-41.137088*T*LN(T)+.006167572*T**2
  -6.55136E-07*T**3+2429586*T**(-1);  2.50000E+03  Y
  +229382.886-722.59722*T+78.5244752*T*LN(T)-.017983376*T**2
  +1.95033E-07*T**3-93813648*T**(-1);  3.29000E+03  Y
  -1042384.01+2985.49125*T-362.159132*T*LN(T)+.043117795*T**2
  -1.055148E-06*T**3+5.54714342E+08*T**(-1);,,N REF: 91Din !`

// closeFraction fails the test unless got is within rel of want,
// relatively.
func closeFraction(t *testing.T, got, want, rel float64) {
	t.Helper()

	if math.Abs(got-want) > rel*math.Abs(want) {
		t.Errorf("expected %v, got %v (relative error %g)",
			want, got, math.Abs(got-want)/math.Abs(want))
	}
}

func TestEvaluate_LoneSymbol(t *testing.T) {
	fn, err := ParseString(t.Context(), "298.15 1; 1000 Y T;,,N REF: 0 !")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	got, err := fn.Evaluate(t.Context(), nil, StateVariables{"T": 1400})
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if got != 1400 {
		t.Errorf("expected 1400, got %v", got)
	}
}

func TestEvaluate_PiecewiseGibbsEnergy(t *testing.T) {
	fn, err := ParseString(t.Context(), crBCCSource)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if len(fn.Segments) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(fn.Segments))
	}

	if fn.Citation != "91Din" {
		t.Errorf("expected citation 91Din, got %q", fn.Citation)
	}

	tests := []struct {
		name string
		temp float64
		want float64
	}{
		{"first segment", 300, -12441.687940030079},
		{"second segment", 1400, -86131.319214526331},
		{"third segment", 3000, -240177.04847589199},
		{"fourth segment", 3500, -295643.02286814956},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fn.Evaluate(t.Context(), nil, StateVariables{"T": tt.temp})
			if err != nil {
				t.Fatalf("evaluate error: %v", err)
			}

			closeFraction(t, got, tt.want, 1e-12)
		})
	}
}

func TestEvaluate_SegmentBoundaries(t *testing.T) {
	fn, err := ParseString(t.Context(), "298.15 1; 1000 Y 2; 2000 N !")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	tests := []struct {
		name    string
		temp    float64
		want    float64
		outside bool
	}{
		{"at lower limit", 298.15, 1, false},
		{"below shared bound", 999.999, 1, false},
		{"at shared bound", 1000, 2, false}, // bound belongs to the upper segment
		{"above shared bound", 1500, 2, false},
		{"at upper limit", 2000, 0, true}, // upper bound is exclusive
		{"below lower limit", 298, 0, true},
		{"above upper limit", 5000, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fn.Evaluate(t.Context(), nil, StateVariables{"T": tt.temp})

			if tt.outside {
				if !errors.Is(err, ErrOutOfRange) {
					t.Fatalf("expected ErrOutOfRange, got %v", err)
				}

				return
			}

			if err != nil {
				t.Fatalf("evaluate error: %v", err)
			}

			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEvaluate_InvalidTemperature(t *testing.T) {
	fn, err := ParseString(t.Context(), "T;!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	tests := []struct {
		name string
		temp float64
	}{
		{"NaN", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
		{"zero", 0},
		{"negative", -300},
		{"subnormal", 1e-310},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fn.Evaluate(t.Context(), nil, StateVariables{"T": tt.temp})
			if !errors.Is(err, ErrInvalidStateVariable) {
				t.Errorf("expected ErrInvalidStateVariable, got %v", err)
			}

			// The value check precedes segment selection.
			if errors.Is(err, ErrOutOfRange) {
				t.Error("invalid value must not report as out of range")
			}
		})
	}
}

func TestEvaluate_MissingConditions(t *testing.T) {
	fn, err := ParseString(t.Context(), "T;!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	t.Run("nil conditions", func(t *testing.T) {
		_, err := fn.Evaluate(t.Context(), nil, nil)
		if !errors.Is(err, ErrInvalidStateVariable) {
			t.Errorf("expected ErrInvalidStateVariable, got %v", err)
		}
	})

	t.Run("variable not set", func(t *testing.T) {
		_, err := fn.Evaluate(t.Context(), nil, StateVariables{"P": 1e5})
		if !errors.Is(err, ErrInvalidStateVariable) {
			t.Errorf("expected ErrInvalidStateVariable, got %v", err)
		}
	})
}

func TestEvaluate_PressureUnrestricted(t *testing.T) {
	// Only temperature carries the positive-and-normal requirement;
	// other state variables need only be finite.
	fn, err := ParseString(t.Context(), "P+1;!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	got, err := fn.Evaluate(t.Context(), nil, StateVariables{"T": 500, "P": 0})
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if got != 1 {
		t.Errorf("expected 1, got %v", got)
	}

	_, err = fn.Evaluate(t.Context(), nil, StateVariables{"T": 500, "P": math.NaN()})
	if !errors.Is(err, ErrInvalidStateVariable) {
		t.Errorf("expected ErrInvalidStateVariable for NaN pressure, got %v", err)
	}
}

func TestEvaluate_RangeVariableOverride(t *testing.T) {
	fn, err := ParseString(t.Context(), "0 P; 800 N !", WithRangeVariable("P"))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	// Segment selection follows P; T is never consulted, and P has no
	// positivity requirement.
	got, err := fn.Evaluate(t.Context(), nil, StateVariables{"P": 0})
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestEvaluate_Logarithm(t *testing.T) {
	fn, err := ParseString(t.Context(), "LN(T-400);!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	tests := []struct {
		name   string
		temp   float64
		want   float64
		domain bool
	}{
		{"positive argument", 500, math.Log(100), false},
		{"zero argument", 400, 0, true},
		{"negative argument", 300, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fn.Evaluate(t.Context(), nil, StateVariables{"T": tt.temp})

			if tt.domain {
				if !errors.Is(err, ErrDomain) {
					t.Fatalf("expected ErrDomain, got %v", err)
				}

				return
			}

			if err != nil {
				t.Fatalf("evaluate error: %v", err)
			}

			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEvaluate_LogAliasesLn(t *testing.T) {
	ln, err := ParseString(t.Context(), "LN(T);!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	lg, err := ParseString(t.Context(), "LOG(T);!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	conds := StateVariables{"T": 1234.5}

	a, err := ln.Evaluate(t.Context(), nil, conds)
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	b, err := lg.Evaluate(t.Context(), nil, conds)
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	// LOG is the natural logarithm, not base 10.
	if a != b || a != math.Log(1234.5) {
		t.Errorf("expected both forms to equal %v, got %v and %v", math.Log(1234.5), a, b)
	}
}

func TestEvaluate_Exponential(t *testing.T) {
	fn, err := ParseString(t.Context(), "EXP(-1000/T);!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	got, err := fn.Evaluate(t.Context(), nil, StateVariables{"T": 500})
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if want := math.Exp(-2); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestEvaluate_DivisionByZero(t *testing.T) {
	t.Run("infinity", func(t *testing.T) {
		fn, err := ParseString(t.Context(), "1/(T-500);!")
		if err != nil {
			t.Fatalf("parse error: %v", err)
		}

		got, err := fn.Evaluate(t.Context(), nil, StateVariables{"T": 500})
		if err != nil {
			t.Fatalf("expected IEEE semantics, got error: %v", err)
		}

		if !math.IsInf(got, 1) {
			t.Errorf("expected +Inf, got %v", got)
		}
	})

	t.Run("indeterminate", func(t *testing.T) {
		fn, err := ParseString(t.Context(), "(T-500)/(T-500);!")
		if err != nil {
			t.Fatalf("parse error: %v", err)
		}

		got, err := fn.Evaluate(t.Context(), nil, StateVariables{"T": 500})
		if err != nil {
			t.Fatalf("expected IEEE semantics, got error: %v", err)
		}

		if !math.IsNaN(got) {
			t.Errorf("expected NaN, got %v", got)
		}
	})
}

func TestEvaluate_UnaryChains(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"--T;!", 500},
		{"+-+T;!", -500},
		{"2*-T;!", -1000},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			fn, err := ParseString(t.Context(), tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			got, err := fn.Evaluate(t.Context(), nil, StateVariables{"T": 500})
			if err != nil {
				t.Fatalf("evaluate error: %v", err)
			}

			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEvaluate_GasConstant(t *testing.T) {
	fn, err := ParseString(t.Context(), "R*T;!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	got, err := fn.Evaluate(t.Context(), nil, StateVariables{"T": 1000})
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if want := 8.31451 * 1000.0; got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestEvaluate_ConstantsReplaced(t *testing.T) {
	boltzmann := map[string]float64{"KB": 8.617333262e-5}

	fn, err := ParseString(t.Context(), "KB*T;!", WithConstants(boltzmann))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	got, err := fn.Evaluate(t.Context(), nil, StateVariables{"T": 1000})
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if want := 8.617333262e-5 * 1000.0; got != want {
		t.Errorf("expected %v, got %v", want, got)
	}

	// WithConstants replaces the default set, so R is gone.
	fn, err = ParseString(t.Context(), "R*T;!", WithConstants(boltzmann))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	_, err = fn.Evaluate(t.Context(), nil, StateVariables{"T": 1000})
	if !errors.Is(err, ErrUnknownMacro) {
		t.Errorf("expected ErrUnknownMacro, got %v", err)
	}
}

func TestEvaluate_TableShadowsConstant(t *testing.T) {
	table := NewMacroTable()
	if err := table.DefineString(t.Context(), "R", "8.314;!"); err != nil {
		t.Fatalf("define error: %v", err)
	}

	fn, err := ParseString(t.Context(), "R;!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	got, err := fn.Evaluate(t.Context(), table, StateVariables{"T": 500})
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if got != 8.314 {
		t.Errorf("expected table definition to shadow the constant, got %v", got)
	}
}

func TestEvaluate_MacroExpansion(t *testing.T) {
	table := NewMacroTable()
	if err := table.DefineString(t.Context(), "GHSERCR", crBCCSource); err != nil {
		t.Fatalf("define error: %v", err)
	}

	fn, err := ParseString(t.Context(), "GHSERCR+10;!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	got, err := fn.Evaluate(t.Context(), table, StateVariables{"T": 300})
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	closeFraction(t, got, -12441.687940030079+10, 1e-12)
}

func TestEvaluate_MacroSegmentSelection(t *testing.T) {
	// The referenced function's own ranges select against the current
	// conditions.
	table := NewMacroTable()
	if err := table.DefineString(t.Context(), "STEP", "298.15 1; 1000 Y 2; 2000 N !"); err != nil {
		t.Fatalf("define error: %v", err)
	}

	fn, err := ParseString(t.Context(), "STEP*100;!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	got, err := fn.Evaluate(t.Context(), table, StateVariables{"T": 1500})
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if got != 200 {
		t.Errorf("expected 200, got %v", got)
	}

	// Out of range inside the expansion propagates out.
	_, err = fn.Evaluate(t.Context(), table, StateVariables{"T": 2500})
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestEvaluate_DiamondReferences(t *testing.T) {
	table := NewMacroTable()

	defs := map[string]string{
		"BASE":  "T;!",
		"LEFT":  "BASE+1;!",
		"RIGHT": "BASE+2;!",
		"TOP":   "LEFT+RIGHT;!",
	}

	for name, source := range defs {
		if err := table.DefineString(t.Context(), name, source); err != nil {
			t.Fatalf("define %s error: %v", name, err)
		}
	}

	fn, err := ParseString(t.Context(), "TOP;!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	// A shared ancestor is not a cycle.
	got, err := fn.Evaluate(t.Context(), table, StateVariables{"T": 500})
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if got != 1003 {
		t.Errorf("expected 1003, got %v", got)
	}
}

func TestEvaluate_CyclicReference(t *testing.T) {
	t.Run("mutual", func(t *testing.T) {
		table := NewMacroTable()
		if err := table.DefineString(t.Context(), "ALPHA", "BETA+1;!"); err != nil {
			t.Fatalf("define error: %v", err)
		}

		if err := table.DefineString(t.Context(), "BETA", "ALPHA+1;!"); err != nil {
			t.Fatalf("define error: %v", err)
		}

		fn, err := ParseString(t.Context(), "ALPHA;!")
		if err != nil {
			t.Fatalf("parse error: %v", err)
		}

		_, err = fn.Evaluate(t.Context(), table, StateVariables{"T": 500})
		if !errors.Is(err, ErrCyclicMacro) {
			t.Errorf("expected ErrCyclicMacro, got %v", err)
		}
	})

	t.Run("self", func(t *testing.T) {
		table := NewMacroTable()
		if err := table.DefineString(t.Context(), "SELF", "SELF+1;!"); err != nil {
			t.Fatalf("define error: %v", err)
		}

		fn, err := ParseString(t.Context(), "SELF;!")
		if err != nil {
			t.Fatalf("parse error: %v", err)
		}

		_, err = fn.Evaluate(t.Context(), table, StateVariables{"T": 500})
		if !errors.Is(err, ErrCyclicMacro) {
			t.Errorf("expected ErrCyclicMacro, got %v", err)
		}
	})
}

func TestEvaluate_UnknownReference(t *testing.T) {
	fn, err := ParseString(t.Context(), "MISSING+1;!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	t.Run("nil table", func(t *testing.T) {
		_, err := fn.Evaluate(t.Context(), nil, StateVariables{"T": 500})
		if !errors.Is(err, ErrUnknownMacro) {
			t.Errorf("expected ErrUnknownMacro, got %v", err)
		}
	})

	t.Run("empty table", func(t *testing.T) {
		_, err := fn.Evaluate(t.Context(), NewMacroTable(), StateVariables{"T": 500})
		if !errors.Is(err, ErrUnknownMacro) {
			t.Errorf("expected ErrUnknownMacro, got %v", err)
		}
	})
}

func TestEvaluate_Deterministic(t *testing.T) {
	table := NewMacroTable()
	if err := table.DefineString(t.Context(), "GHSERCR", crBCCSource); err != nil {
		t.Fatalf("define error: %v", err)
	}

	fn, err := ParseString(t.Context(), "GHSERCR-R*T*LN(T);!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	conds := StateVariables{"T": 1400}

	first, err := fn.Evaluate(t.Context(), table, conds)
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	for i := 0; i < 50; i++ {
		got, err := fn.Evaluate(t.Context(), table, conds)
		if err != nil {
			t.Fatalf("evaluate error on repeat %d: %v", i, err)
		}

		// Bit-identical across repeats.
		if got != first {
			t.Fatalf("repeat %d: expected %v, got %v", i, first, got)
		}
	}
}

func TestEvaluate_Concurrent(t *testing.T) {
	table := NewMacroTable()
	if err := table.DefineString(t.Context(), "GHSERCR", crBCCSource); err != nil {
		t.Fatalf("define error: %v", err)
	}

	fn, err := ParseString(t.Context(), "GHSERCR+R*T;!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	temps := []float64{300, 600, 1400, 2000, 3000, 3500}
	want := make([]float64, len(temps))

	for i, temp := range temps {
		want[i], err = fn.Evaluate(t.Context(), table, StateVariables{"T": temp})
		if err != nil {
			t.Fatalf("evaluate error: %v", err)
		}
	}

	ctx := context.Background()

	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := 0; i < 100; i++ {
				idx := i % len(temps)

				got, err := fn.Evaluate(ctx, table, StateVariables{"T": temps[idx]})
				if err != nil {
					t.Errorf("concurrent evaluate error: %v", err)

					return
				}

				if got != want[idx] {
					t.Errorf("T=%v: expected %v, got %v", temps[idx], want[idx], got)

					return
				}
			}
		}()
	}

	wg.Wait()
}

func TestEvaluate_NilExpression(t *testing.T) {
	fn := NewBuilder().Function(Segment{Lower: 298.15, Upper: 6000})

	_, err := fn.Evaluate(t.Context(), nil, StateVariables{"T": 500})
	if !errors.Is(err, ErrInvalidNode) {
		t.Errorf("expected ErrInvalidNode, got %v", err)
	}
}

func TestConditions_CaseInsensitive(t *testing.T) {
	fn, err := ParseString(t.Context(), "T;!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	got, err := fn.Evaluate(t.Context(), nil, StateVariables{"t": 500})
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if got != 500 {
		t.Errorf("expected 500, got %v", got)
	}
}
