// Package evaluator builds TargetSources for many declared targets in
// parallel, memoizing results by declaration content.
package evaluator

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"srcset/internal/decl"
	"srcset/internal/grouping"
	"srcset/internal/resolver"
	"srcset/internal/source"
	"srcset/internal/target"
)

// Result is the outcome of evaluating one target.
type Result struct {
	Target  string
	Sources *target.TargetSources
	Err     error
	Cached  bool
}

// Evaluator turns declarations into TargetSources. It is safe for concurrent use.
type Evaluator struct {
	root      string
	builder   target.GroupBuilder
	workers   int
	cacheSize int
	cache     *lru.Cache[uint64, *target.TargetSources]
	logger    *log.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithWorkers bounds the number of targets evaluated at once.
func WithWorkers(n int) Option {
	return func(e *Evaluator) { e.workers = n }
}

// WithCacheSize sets how many evaluated declarations are memoized.
func WithCacheSize(n int) Option {
	return func(e *Evaluator) { e.cacheSize = n }
}

// WithGroupBuilder replaces the default directory-based tree builder.
func WithGroupBuilder(b target.GroupBuilder) Option {
	return func(e *Evaluator) { e.builder = b }
}

// WithLogger sets the logger; the default discards output.
func WithLogger(l *log.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// New creates an evaluator resolving references under the project root.
func New(root string, opts ...Option) (*Evaluator, error) {
	e := &Evaluator{
		root:      root,
		builder:   grouping.NewDirectoryBuilder(),
		workers:   4,
		cacheSize: 256,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = 1
	}

	cache, err := lru.New[uint64, *target.TargetSources](e.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create evaluation cache: %w", err)
	}
	e.cache = cache
	return e, nil
}

// Evaluate builds the sources of one target. An unchanged declaration is
// served from the cache; any change rebuilds it from scratch.
func (e *Evaluator) Evaluate(ctx context.Context, t decl.Target) (*target.TargetSources, error) {
	ts, _, err := e.evaluate(ctx, t)
	return ts, err
}

func (e *Evaluator) evaluate(ctx context.Context, t decl.Target) (*target.TargetSources, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	key := digest(e.root, t)
	if ts, ok := e.cache.Get(key); ok {
		e.logger.Debug("cache hit", "target", t.Name)
		return ts, true, nil
	}

	r := resolver.NewPathResolver(e.root, t.Base)
	ts, err := target.OfDeclaredSources(t.Entries, r, e.builder)
	if err != nil {
		return nil, false, fmt.Errorf("target %q: %w", t.Name, err)
	}
	e.cache.Add(key, ts)
	e.logger.Debug("evaluated target", "target", t.Name, "paths", ts.Len())
	return ts, false, nil
}

// EvaluateAll evaluates targets concurrently. Results are returned in input
// order. A failing target does not stop the others; the returned error joins
// every target failure. Context cancellation stops scheduling new targets.
func (e *Evaluator) EvaluateAll(ctx context.Context, targets []decl.Target) ([]Result, error) {
	results := make([]Result, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, t := range targets {
		if gctx.Err() != nil {
			break
		}
		i, t := i, t
		g.Go(func() error {
			ts, cached, err := e.evaluate(gctx, t)
			results[i] = Result{Target: t.Name, Sources: ts, Err: err, Cached: cached}
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}

	var merr *multierror.Error
	for _, res := range results {
		if res.Err != nil {
			merr = multierror.Append(merr, res.Err)
		}
	}
	return results, merr.ErrorOrNil()
}

// digest hashes everything that affects evaluation of t.
func digest(root string, t decl.Target) uint64 {
	h := xxhash.New()
	writeField(h, root)
	writeField(h, t.Name)
	writeField(h, t.Base)
	writeEntries(h, t.Entries)
	return h.Sum64()
}

func writeEntries(h *xxhash.Digest, entries []source.Entry) {
	writeField(h, strconv.Itoa(len(entries)))
	for _, entry := range entries {
		switch v := entry.(type) {
		case source.PlainFile:
			writeFile(h, v)
		case *source.PlainFile:
			if v != nil {
				writeFile(h, *v)
			}
		case source.Group:
			writeField(h, "g")
			writeField(h, v.Name)
			writeEntries(h, v.Entries)
		case *source.Group:
			if v != nil {
				writeField(h, "g")
				writeField(h, v.Name)
				writeEntries(h, v.Entries)
			}
		}
	}
}

func writeFile(h *xxhash.Digest, f source.PlainFile) {
	writeField(h, "f")
	writeField(h, string(f.Ref))
	writeField(h, f.Role.String())
	writeField(h, strconv.Itoa(len(f.Flags)))
	for _, flag := range f.Flags {
		writeField(h, flag)
	}
}

// writeField writes s followed by a NUL so adjacent fields cannot run together.
func writeField(h *xxhash.Digest, s string) {
	_, _ = h.WriteString(s)
	_, _ = h.Write([]byte{0})
}
