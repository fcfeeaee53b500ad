package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// programCache stores parsed programs keyed by source hash. Cached programs
// are never mutated after parsing and may be shared.
var programCache sync.Map

// entry holds the outcome of parsing one source.
type entry struct {
	once sync.Once
	prog *Program
	err  error
}

// ParseReader parses the program read from r. Parse results are cached
// per distinct source, so parsing the same text again returns the same
// [*Program] or error. It is safe for concurrent use.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Program, error) {
	o := makeOptions(opts...)

	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	source := string(data)
	hash := xxh3.HashString(source)
	key := strconv.FormatUint(hash, 36)

	value, hit := programCache.LoadOrStore(key, new(entry))

	e, ok := value.(*entry)
	if !ok {
		return nil, ErrReadInput.
			With(slog.String("issue", "invalid cache entry type"))
	}

	o.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(hash, 16)),
		slog.Int("source_bytes", len(data)),
		slog.Bool("cache_hit", hit))

	e.once.Do(func() {
		e.prog, e.err = ParseString(ctx, source, opts...)
	})

	return e.prog, e.err
}

// ClearCache drops all cached parse results.
func ClearCache() {
	programCache.Clear()
}
