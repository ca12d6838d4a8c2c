package lang

import (
	"bytes"
	"context"
	"encoding/gob"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// globalCache tracks parse results by (source, options) hash.
var globalCache sync.Map

// state tracks the one-time parse result for a source.
type state struct {
	fn   *Function
	err  error
	once sync.Once
}

// hashOptions encodes options using gob and hashes with xxh3.
// Returns a hash that uniquely identifies the options configuration.
func hashOptions(opts optionsKey) uint64 {
	var buf bytes.Buffer

	enc := gob.NewEncoder(&buf)

	// Encode relevant options fields. Constants are encoded in sorted
	// key order so equal configurations always hash equally.
	_ = enc.Encode(opts.rangeVariable)
	_ = enc.Encode(opts.stateVariables)
	_ = enc.Encode(opts.lowerLimit)
	_ = enc.Encode(opts.upperLimit)

	for _, name := range sortedKeys(opts.constants) {
		_ = enc.Encode(name)
		_ = enc.Encode(opts.constants[name])
	}

	return xxh3.Hash(buf.Bytes())
}

// ParseReader parses a function-language body from an io.Reader.
// The result is cached after first parse for efficiency.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Function, error) {
	// Wrap reader with async read-ahead for concurrent I/O.
	// This allows data to be pre-fetched while previous chunks are
	// still being processed.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err)
	}

	return parseStringCached(ctx, string(data), opts...)
}

// parseStringCached parses a string with caching.
func parseStringCached(ctx context.Context, source string, opts ...Option) (*Function, error) {
	var probe Function

	applyDefaults(&probe)
	applyOptions(&probe, opts...)

	// Combine source hash with options hash for cache key uniqueness.
	sourceHash := xxh3.Hash([]byte(source))
	optsHash := hashOptions(probe.opts)
	sourceKey := strconv.FormatUint(sourceHash^optsHash, 36)

	entry := new(state)
	value, cacheHit := globalCache.LoadOrStore(sourceKey, entry)

	metadata, ok := value.(*state)
	if !ok {
		return nil, ErrInvalidNode.
			With(slog.String("issue", "invalid metadata type in cache"))
	}

	probe.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(sourceHash, 16)),
		slog.String("opts_hash", strconv.FormatUint(optsHash, 16)),
		slog.Bool("cache_hit", cacheHit))

	metadata.once.Do(func() {
		fn, parseErr := parse(ctx, source, opts...)
		if parseErr != nil {
			metadata.err = parseErr

			return
		}

		metadata.fn = fn
	})

	if metadata.err != nil {
		return nil, metadata.err
	}

	// Share the cached segment slice; the returned value carries the
	// caller's own options and logger.
	fn := &Function{
		Segments: metadata.fn.Segments,
		Citation: metadata.fn.Citation,
	}

	applyDefaults(fn)
	applyOptions(fn, opts...)

	return fn, nil
}

// ClearCache removes all cached parse results.
// This is primarily useful for testing or when memory needs to be
// reclaimed.
func ClearCache() {
	globalCache = sync.Map{}
}
