package lang

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/cjkunselman18/pycalphad/log"
)

// maxSuggestions caps the number of fuzzy matches reported for an
// unknown name.
const maxSuggestions = 3

// MacroTable maps upper-cased function names to their unexpanded parse
// products. Definitions are added while a database loads; lookups during
// evaluation are read-only and safe for concurrent use.
type MacroTable struct {
	entries map[string]*macroEntry
	logger  log.Logger
	mu      sync.RWMutex
}

// macroEntry pairs a definition with its validation state.
type macroEntry struct {
	fn        *Function
	validated bool // every transitive reference exists and is acyclic
}

// TableOption is a functional option for configuring a MacroTable.
type TableOption func(*MacroTable)

// WithTableLogger sets the structured logger for trace-level debugging.
func WithTableLogger(logger log.Logger) TableOption {
	return func(t *MacroTable) {
		t.logger = logger
	}
}

// NewMacroTable creates an empty table.
func NewMacroTable(opts ...TableOption) *MacroTable {
	t := &MacroTable{entries: make(map[string]*macroEntry)}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Define registers or replaces a named function. Replacing a definition
// discards all memoized validation state, since any other function may
// reference the replaced name.
func (t *MacroTable) Define(name string, fn *Function) {
	if fn == nil {
		return
	}

	name = NormalizeName(name)

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, entry := range t.entries {
		entry.validated = false
	}

	t.entries[name] = &macroEntry{fn: fn}

	t.logger.Trace("macro defined",
		slog.String("name", name),
		slog.Int("segment_count", len(fn.Segments)))
}

// DefineString parses source and registers the result under name.
func (t *MacroTable) DefineString(ctx context.Context, name, source string, opts ...Option) error {
	fn, err := ParseString(ctx, source, opts...)
	if err != nil {
		return err
	}

	t.Define(name, fn)

	return nil
}

// Lookup returns the definition registered under name without
// validating its references.
func (t *MacroTable) Lookup(name string) (*Function, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.entries[NormalizeName(name)]
	if !ok {
		return nil, false
	}

	return entry.fn, true
}

// Len returns the number of registered definitions.
func (t *MacroTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.entries)
}

// Names returns all registered names, sorted.
func (t *MacroTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return sortedKeys(t.entries)
}

// Resolve returns the definition registered under name after checking
// that every function it references, directly or transitively, exists
// and that no reference chain revisits a name. Successful validations
// are memoized until any definition is replaced.
func (t *MacroTable) Resolve(ctx context.Context, name string) (*Function, error) {
	key := NormalizeName(name)

	t.mu.RLock()
	entry, ok := t.entries[key]
	if ok && entry.validated {
		fn := entry.fn
		t.mu.RUnlock()

		return fn, nil
	}
	t.mu.RUnlock()

	if !ok {
		return nil, t.unknown(key)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Re-check under the write lock; a concurrent Resolve may have
	// validated or replaced the entry.
	entry, ok = t.entries[key]
	if !ok {
		return nil, t.unknownLocked(key)
	}

	if entry.validated {
		return entry.fn, nil
	}

	rc := &resolveContext{
		table:    t,
		visiting: make(map[string]bool),
		visited:  make(map[string]bool),
	}

	if err := rc.validate(ctx, key); err != nil {
		return nil, err
	}

	// Every name reached on a successful walk is itself valid.
	for reached := range rc.visited {
		if e, ok := t.entries[reached]; ok {
			e.validated = true
		}
	}

	t.logger.TraceContext(ctx, "macro resolved",
		slog.String("name", key),
		slog.Int("validated_count", len(rc.visited)))

	return entry.fn, nil
}

// unknown builds an ErrUnknownMacro carrying fuzzy-ranked name
// suggestions.
func (t *MacroTable) unknown(name string) *Error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.unknownLocked(name)
}

// unknownLocked is unknown for callers already holding a table lock.
func (t *MacroTable) unknownLocked(name string) *Error {
	err := ErrUnknownMacro.With(slog.String("name", name))

	matches := fuzzy.Find(name, sortedKeys(t.entries))
	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}

	if len(matches) > 0 {
		suggest := make([]string, len(matches))
		for i, m := range matches {
			suggest[i] = m.Str
		}

		err = err.With(slog.String("did_you_mean", strings.Join(suggest, ", ")))
	}

	return err
}

// resolveContext threads the visiting set through recursive validation,
// so concurrent resolutions never share mutable state.
type resolveContext struct {
	table    *MacroTable
	visiting map[string]bool
	visited  map[string]bool
	chain    []string
}

// validate walks the reference graph from name, failing on a missing
// definition or a reference cycle. Callers hold the table's write lock.
func (rc *resolveContext) validate(ctx context.Context, name string) error {
	if rc.visiting[name] {
		return ErrCyclicMacro.
			With(slog.String("name", name)).
			With(slog.String("chain", strings.Join(append(rc.chain, name), " -> ")))
	}

	if rc.visited[name] {
		return nil
	}

	entry, ok := rc.table.entries[name]
	if !ok {
		return rc.table.unknownLocked(name).
			With(slog.String("chain", strings.Join(rc.chain, " -> ")))
	}

	rc.table.logger.TraceContext(ctx, "validate macro",
		slog.String("name", name),
		slog.Int("depth", len(rc.chain)))

	rc.visiting[name] = true
	rc.chain = append(rc.chain, name)

	for _, ref := range entry.fn.References() {
		// A table definition shadows a predefined constant of the
		// same name.
		if _, ok := rc.table.entries[ref]; ok {
			if err := rc.validate(ctx, ref); err != nil {
				return err
			}

			continue
		}

		if _, ok := entry.fn.opts.constants[ref]; ok {
			continue
		}

		return rc.table.unknownLocked(ref).
			With(slog.String("chain", strings.Join(rc.chain, " -> ")))
	}

	delete(rc.visiting, name)
	rc.chain = rc.chain[:len(rc.chain)-1]
	rc.visited[name] = true

	return nil
}

// Validate checks that every function reference in f resolves through
// table or through f's own predefined constants. A nil table resolves
// constants only.
func (f *Function) Validate(ctx context.Context, table *MacroTable) error {
	for _, ref := range f.References() {
		if table != nil {
			if _, ok := table.Lookup(ref); ok {
				if _, err := table.Resolve(ctx, ref); err != nil {
					return err
				}

				continue
			}
		}

		if _, ok := f.opts.constants[ref]; ok {
			continue
		}

		if table != nil {
			return table.unknown(ref)
		}

		return ErrUnknownMacro.With(slog.String("name", ref))
	}

	return nil
}
