package lang

import (
	"context"
	"errors"
	"testing"
)

// fuzzSeeds mixes well-formed production bodies with structurally
// broken ones so the fuzzer starts from both sides of the grammar.
var fuzzSeeds = []string{
	"298.15 1; 1000 Y T;,,N REF: 0 !",
	crBCCSource,
	"T;!",
	"-.5*T**(-1);!",
	"298.15 LN(T)*EXP(-1000/T); 2000 N REF: trailing citation !",
	"1E;!",
	"1 2 3;!",
	"REF: orphan !",
	"T**;!",
	"((((T))));!",
	",;!",
	"!",
	"",
	"298.15 T; 100 N !",
	"ghserCr-GHSERAL;!",
}

func FuzzScan(f *testing.F) {
	for _, seed := range fuzzSeeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		toks, err := scan(input)
		if err != nil {
			if !errors.Is(err, ErrParse) {
				t.Errorf("scan failure must be ErrParse, got %v", err)
			}

			return
		}

		if len(toks) == 0 || toks[len(toks)-1].kind != tokenEOF {
			t.Error("successful scan must end with EOF token")
		}

		for _, tok := range toks {
			if tok.pos.Line < 1 || tok.pos.Column < 1 {
				t.Errorf("token %v carries invalid position %v", tok.kind, tok.pos)
			}
		}
	})
}

func FuzzParseString(f *testing.F) {
	for _, seed := range fuzzSeeds {
		f.Add(seed)
	}

	ctx := context.Background()

	f.Fuzz(func(t *testing.T, input string) {
		fn, err := ParseString(ctx, input)
		if err != nil {
			if !errors.Is(err, ErrParse) {
				t.Errorf("parse failure must be ErrParse, got %v", err)
			}

			return
		}

		if len(fn.Segments) == 0 {
			t.Fatal("successful parse must produce at least one segment")
		}

		for i, seg := range fn.Segments {
			if !(seg.Upper > seg.Lower) {
				t.Errorf("segment %d bounds not increasing: [%v, %v)", i, seg.Lower, seg.Upper)
			}

			if i > 0 && fn.Segments[i-1].Upper != seg.Lower {
				t.Errorf("segment %d not contiguous with its predecessor", i)
			}
		}

		// Canonical output reparses to an equal function.
		text := fn.String()

		again, err := ParseString(ctx, text)
		if err != nil {
			t.Fatalf("canonical form %q failed to reparse: %v", text, err)
		}

		if !fn.Equal(again) {
			t.Errorf("canonical form %q reparsed differently", text)
		}
	})
}

func FuzzEvaluate(f *testing.F) {
	for _, seed := range fuzzSeeds {
		f.Add(seed)
	}

	ctx := context.Background()
	conds := StateVariables{"T": 500, "P": 101325}

	f.Fuzz(func(t *testing.T, input string) {
		fn, err := ParseString(ctx, input)
		if err != nil {
			return
		}

		// Any outcome is allowed except a panic; references to undefined
		// names and domain violations surface as errors.
		_, _ = fn.Evaluate(ctx, nil, conds)
	})
}
