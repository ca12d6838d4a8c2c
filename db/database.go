package db

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/cjkunselman18/pycalphad/lang"
	"github.com/cjkunselman18/pycalphad/log"
)

// Database aggregates the entities of one thermodynamic database and
// the registries built over them. It follows a build-then-freeze
// lifecycle: all mutation happens single-threaded during load, Freeze
// validates and seals the result, and everything afterward is a
// concurrency-safe read.
type Database struct {
	elements map[string]Element
	species  map[string]Species
	phases   map[string]*Phase
	macros   *lang.MacroTable
	registry *lang.Registry
	store    *ParameterStore
	parse    []lang.Option
	logger   log.Logger
	frozen   bool
}

// Option is a functional option for configuring a Database.
type Option func(*Database)

// WithLogger sets the structured logger for trace-level debugging.
func WithLogger(logger log.Logger) Option {
	return func(d *Database) {
		d.logger = logger
	}
}

// WithParseOptions sets the lang options applied whenever the database
// parses a function definition or parameter expression.
func WithParseOptions(opts ...lang.Option) Option {
	return func(d *Database) {
		d.parse = opts
	}
}

// NewDatabase creates an empty database.
func NewDatabase(opts ...Option) *Database {
	d := &Database{
		elements: make(map[string]Element),
		species:  make(map[string]Species),
		phases:   make(map[string]*Phase),
	}

	for _, opt := range opts {
		opt(d)
	}

	d.macros = lang.NewMacroTable(lang.WithTableLogger(d.logger))
	d.registry = lang.NewRegistry(
		lang.WithRegistryLogger(d.logger),
		lang.WithRegistryParseOptions(d.parse...))
	d.store = NewParameterStore(WithStoreLogger(d.logger))

	return d
}

// AddElement registers an element and, when absent, its pure-element
// species.
func (d *Database) AddElement(el Element) error {
	if d.frozen {
		return ErrFrozen
	}

	if _, ok := d.elements[el.Name()]; ok {
		return ErrDuplicateName.With(slog.String("element", el.Name()))
	}

	d.elements[el.Name()] = el

	if _, ok := d.species[el.Name()]; !ok {
		d.species[el.Name()] = NewSpeciesFromElement(el)
	}

	d.logger.Trace("element added", slog.String("name", el.Name()))

	return nil
}

// AddSpecies registers a species. A name collision is rejected,
// including collision with an auto-registered pure-element species.
func (d *Database) AddSpecies(sp Species) error {
	if d.frozen {
		return ErrFrozen
	}

	if _, ok := d.species[sp.Name()]; ok {
		return ErrDuplicateName.With(slog.String("species", sp.Name()))
	}

	d.species[sp.Name()] = sp

	d.logger.Trace("species added", slog.String("name", sp.Name()))

	return nil
}

// AddPhase registers a phase.
func (d *Database) AddPhase(ph *Phase) error {
	if d.frozen {
		return ErrFrozen
	}

	if _, ok := d.phases[ph.Name()]; ok {
		return ErrDuplicateName.With(slog.String("phase", ph.Name()))
	}

	d.phases[ph.Name()] = ph

	d.logger.Trace("phase added",
		slog.String("name", ph.Name()),
		slog.Int("sublattices", ph.SublatticeCount()))

	return nil
}

// DefineFunction parses source with the database's parse options and
// registers it as a named function available to every expression.
func (d *Database) DefineFunction(ctx context.Context, name, source string) error {
	if d.frozen {
		return ErrFrozen
	}

	return d.macros.DefineString(ctx, name, source, d.parse...)
}

// DeferFunction registers a named function's raw source without
// parsing it. Deferred bodies are parsed and made available to
// evaluation when the database freezes; until then the name is not
// visible. A deferred body replaces an eager definition of the same
// name at freeze time.
func (d *Database) DeferFunction(name, source string) error {
	if d.frozen {
		return ErrFrozen
	}

	d.registry.Add(name, source)

	return nil
}

// ParseFunction parses source with the database's parse options without
// registering it. Parameter expressions fed to NewParameter should come
// through here so they share the database's configuration.
func (d *Database) ParseFunction(ctx context.Context, source string) (*lang.Function, error) {
	return lang.ParseString(ctx, source, d.parse...)
}

// AddParameter attaches a parameter to its owning phase and inserts it
// into the global store. The phase must already be registered.
func (d *Database) AddParameter(p *Parameter) error {
	if d.frozen {
		return ErrFrozen
	}

	ph, ok := d.phases[p.Phase()]
	if !ok {
		return ErrUnknownPhase.With(slog.String("phase", p.Phase()))
	}

	if err := ph.AddParameter(p); err != nil {
		return err
	}

	d.store.Insert(p)

	return nil
}

// Element returns the element registered under name.
func (d *Database) Element(name string) (Element, bool) {
	el, ok := d.elements[lang.NormalizeName(name)]

	return el, ok
}

// Species returns the species registered under name.
func (d *Database) Species(name string) (Species, bool) {
	sp, ok := d.species[lang.NormalizeName(name)]

	return sp, ok
}

// Phase returns the phase registered under name.
func (d *Database) Phase(name string) (*Phase, bool) {
	ph, ok := d.phases[lang.NormalizeName(name)]

	return ph, ok
}

// Elements returns an iterator over elements in name order.
func (d *Database) Elements() iter.Seq[Element] {
	return func(yield func(Element) bool) {
		for _, name := range sortedKeys(d.elements) {
			if !yield(d.elements[name]) {
				return
			}
		}
	}
}

// AllSpecies returns an iterator over species in name order.
func (d *Database) AllSpecies() iter.Seq[Species] {
	return func(yield func(Species) bool) {
		for _, name := range sortedKeys(d.species) {
			if !yield(d.species[name]) {
				return
			}
		}
	}
}

// Phases returns an iterator over phases in name order.
func (d *Database) Phases() iter.Seq[*Phase] {
	return func(yield func(*Phase) bool) {
		for _, name := range sortedKeys(d.phases) {
			if !yield(d.phases[name]) {
				return
			}
		}
	}
}

// Macros returns the named-function table.
func (d *Database) Macros() *lang.MacroTable { return d.macros }

// Store returns the global parameter store.
func (d *Database) Store() *ParameterStore { return d.store }

// Frozen reports whether the database has been sealed.
func (d *Database) Frozen() bool { return d.frozen }

// EvaluateFunction resolves a registered function by name and evaluates
// it under the given conditions.
func (d *Database) EvaluateFunction(ctx context.Context, name string, conds lang.Conditions) (float64, error) {
	fn, err := d.macros.Resolve(ctx, name)
	if err != nil {
		return 0, err
	}

	return fn.Evaluate(ctx, d.macros, conds)
}

// Freeze parses any deferred function sources, validates every
// registered function and parameter expression, pre-warms the
// resolver's memoization, and seals the database against further
// mutation. After Freeze returns nil, all reads, including evaluation,
// are safe for concurrent use.
//
// Freezing an already frozen database is a no-op.
func (d *Database) Freeze(ctx context.Context) error {
	if d.frozen {
		return nil
	}

	if err := d.registry.Load(ctx, d.macros); err != nil {
		return err
	}

	for _, name := range d.macros.Names() {
		if _, err := d.macros.Resolve(ctx, name); err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(d.phases) {
		for p := range d.phases[name].Parameters() {
			if err := p.Expression().Validate(ctx, d.macros); err != nil {
				return lang.WrapError(err).
					With(slog.String("phase", p.PhaseName())).
					With(slog.String("type", p.Type()))
			}
		}
	}

	d.frozen = true

	d.logger.InfoContext(ctx, "database frozen",
		slog.Int("elements", len(d.elements)),
		slog.Int("species", len(d.species)),
		slog.Int("phases", len(d.phases)),
		slog.Int("functions", d.macros.Len()),
		slog.Int("parameters", d.store.Len()))

	return nil
}

// Summary returns a map describing the database contents, suitable for
// diagnostic output.
func (d *Database) Summary() map[string]any {
	phases := make(map[string]any, len(d.phases))

	for _, name := range sortedKeys(d.phases) {
		ph := d.phases[name]

		phases[name] = map[string]any{
			"sublattices": ph.SublatticeCount(),
			"parameters":  ph.ParameterCount(),
		}
	}

	return map[string]any{
		"elements":   sortedKeys(d.elements),
		"species":    sortedKeys(d.species),
		"phases":     phases,
		"functions":  d.macros.Names(),
		"parameters": d.store.Len(),
		"frozen":     d.frozen,
	}
}

// FormatJSON writes the database summary as JSON to the writer.
func (d *Database) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(d.Summary(), "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(d.Summary())
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the database summary as YAML to the writer.
func (d *Database) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption

	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		// Compact flow style when no indent requested
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, d.Summary(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

func sortedKeys[T any](m map[string]T) []string {
	if len(m) == 0 {
		return nil
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
