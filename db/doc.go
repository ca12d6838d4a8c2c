// Package db models the contents of a thermodynamic database: the
// elements, species, phases, and model parameters a phase-equilibrium
// calculation queries, together with the registries built over them.
//
// # Lifecycle
//
// A [Database] is built single-threaded and then frozen:
//
//	d := db.NewDatabase()
//	_ = d.AddElement(cr)
//	_ = d.AddPhase(bcc)
//	_ = d.DefineFunction(ctx, "GHSERCR", src)
//	_ = d.AddParameter(param)
//
//	if err := d.Freeze(ctx); err != nil { ... }
//
// Freeze validates every registered function and parameter expression,
// pre-warms the resolver, and seals the database against mutation.
// After a successful Freeze, all reads, including parameter evaluation,
// are safe for concurrent use.
//
// # Parameter queries
//
// Parameters live in a [ParameterStore] ordered two ways at once: by
// derived phase key and by type tag. Either ordering answers a range
// query without scanning the other. A [ParameterView] is a filtered,
// non-owning subset of a store with the same dual ordering; it shares
// the store's parameters rather than copying them, so it is valid only
// as long as the backing store is not mutated. The freeze step makes
// that guarantee structural.
package db
