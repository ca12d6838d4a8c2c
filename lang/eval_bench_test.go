package lang

import (
	"context"
	"testing"
)

func BenchmarkEvaluate(b *testing.B) {
	ctx := context.Background()
	conds := StateVariables{"T": 1400}

	bench := []struct {
		name   string
		source string
	}{
		{"literal", "42;!"},
		{"symbol", "T;!"},
		{"polynomial", crBCCSource},
	}

	for _, bb := range bench {
		fn, err := ParseString(ctx, bb.source)
		if err != nil {
			b.Fatalf("parse error: %v", err)
		}

		b.Run(bb.name, func(b *testing.B) {
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, err := fn.Evaluate(ctx, nil, conds); err != nil {
					b.Fatalf("evaluate error: %v", err)
				}
			}
		})
	}
}

func BenchmarkEvaluate_MacroExpansion(b *testing.B) {
	ctx := context.Background()

	table := NewMacroTable()
	if err := table.DefineString(ctx, "GHSERCR", crBCCSource); err != nil {
		b.Fatalf("define error: %v", err)
	}

	fn, err := ParseString(ctx, "GHSERCR+R*T;!")
	if err != nil {
		b.Fatalf("parse error: %v", err)
	}

	conds := StateVariables{"T": 1400}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := fn.Evaluate(ctx, table, conds); err != nil {
			b.Fatalf("evaluate error: %v", err)
		}
	}
}

func BenchmarkEvaluate_Parallel(b *testing.B) {
	ctx := context.Background()

	table := NewMacroTable()
	if err := table.DefineString(ctx, "GHSERCR", crBCCSource); err != nil {
		b.Fatalf("define error: %v", err)
	}

	fn, err := ParseString(ctx, "GHSERCR-R*T;!")
	if err != nil {
		b.Fatalf("parse error: %v", err)
	}

	conds := StateVariables{"T": 3000}

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := fn.Evaluate(ctx, table, conds); err != nil {
				b.Errorf("evaluate error: %v", err)

				return
			}
		}
	})
}

func BenchmarkResolve(b *testing.B) {
	ctx := context.Background()

	table := NewMacroTable()

	defs := map[string]string{
		"BASE":  "T;!",
		"LEFT":  "BASE+1;!",
		"RIGHT": "BASE+2;!",
		"TOP":   "LEFT+RIGHT;!",
	}

	for name, source := range defs {
		if err := table.DefineString(ctx, name, source); err != nil {
			b.Fatalf("define error: %v", err)
		}
	}

	// Warm the memo so the loop measures the validated fast path.
	if _, err := table.Resolve(ctx, "TOP"); err != nil {
		b.Fatalf("resolve error: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := table.Resolve(ctx, "TOP"); err != nil {
			b.Fatalf("resolve error: %v", err)
		}
	}
}
