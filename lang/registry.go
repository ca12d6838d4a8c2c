package lang

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cjkunselman18/pycalphad/log"
)

// Registry collects raw function-language definitions by name before
// they are parsed. A database reader deposits FUNCTION bodies here as
// it discovers them; each body is parsed at most once, on first access,
// and the outcome, success or failure, is remembered. Databases define
// far more functions than any one calculation touches, so deferring the
// parse keeps load cost proportional to use.
//
// Load parses every definition and registers the results in a
// [MacroTable] for evaluation.
type Registry struct {
	entries map[string]*definition
	parse   []Option
	logger  log.Logger
	mu      sync.RWMutex
}

// definition defers parsing of one body until first use.
type definition struct {
	source string
	fn     *Function
	err    error
	once   sync.Once
}

// RegistryOption is a functional option for configuring a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the structured logger for trace-level
// debugging.
func WithRegistryLogger(logger log.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithRegistryParseOptions sets the lang options applied whenever the
// registry parses a definition.
func WithRegistryParseOptions(opts ...Option) RegistryOption {
	return func(r *Registry) {
		r.parse = opts
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{entries: make(map[string]*definition)}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Add registers or replaces the raw body of a named definition. The
// name is normalized to upper case. Replacing a definition discards the
// parse result recorded for the previous body.
func (r *Registry) Add(name, source string) {
	name = NormalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[name] = &definition{source: source}

	r.logger.Trace("definition added",
		slog.String("name", name),
		slog.Int("source_length", len(source)))
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sortedKeys(r.entries)
}

// Source returns the raw body registered under name.
func (r *Registry) Source(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[NormalizeName(name)]
	if !ok {
		return "", false
	}

	return entry.source, true
}

// Function returns the parse product of the definition registered under
// name, parsing the body on first access. A failed parse is reported on
// this and every later access; the body is never reparsed.
func (r *Registry) Function(ctx context.Context, name string) (*Function, error) {
	key := NormalizeName(name)

	r.mu.RLock()
	entry, ok := r.entries[key]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrUnknownMacro.With(slog.String("name", key))
	}

	entry.once.Do(func() {
		entry.fn, entry.err = ParseString(ctx, entry.source, r.parse...)

		r.logger.TraceContext(ctx, "definition parsed",
			slog.String("name", key),
			slog.Bool("ok", entry.err == nil))
	})

	if entry.err != nil {
		return nil, WrapError(entry.err).With(slog.String("definition", key))
	}

	return entry.fn, nil
}

// Load parses every registered definition, in name order, and registers
// the results in table. The first parse failure stops the load and is
// returned; definitions registered before the failure stay in the
// table.
func (r *Registry) Load(ctx context.Context, table *MacroTable) error {
	for _, name := range r.Names() {
		fn, err := r.Function(ctx, name)
		if err != nil {
			return err
		}

		table.Define(name, fn)
	}

	r.logger.TraceContext(ctx, "registry loaded",
		slog.Int("definition_count", r.Len()))

	return nil
}
