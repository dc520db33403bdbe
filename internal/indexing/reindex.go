package indexing

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"kavosh/internal/docstore"
	"kavosh/internal/logger"
	"kavosh/internal/metrics"
	"kavosh/internal/search"
)

// Index is the administration surface of the search index.
type Index interface {
	DeleteIndex(ctx context.Context) error
	CreateIndex(ctx context.Context, body []byte) error
	Upsert(ctx context.Context, id string, doc []byte) error
}

// DocumentBuilder maps a stored page onto an index record.
type DocumentBuilder interface {
	Build(key string, raw []byte) (Record, bool, error)
}

// Flusher drops derived data that goes stale after a rebuild.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Report summarizes one rebuild.
type Report struct {
	Indexed int      `json:"indexed"`
	Skipped int      `json:"skipped"`
	Failed  []string `json:"failed"`
}

// Success reports whether every document was handled without error.
func (r Report) Success() bool {
	return len(r.Failed) == 0
}

type Options struct {
	Builder   DocumentBuilder
	Settings  search.IndexSettings
	Namespace string
	Workers   int
	Timeout   time.Duration
	Flusher   Flusher
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

// Reindexer drops, recreates and refills the search index.
type Reindexer struct {
	docs  docstore.Store
	index Index
	opts  Options
	log   zerolog.Logger
	// one rebuild at a time
	mu sync.Mutex
}

func NewReindexer(docs docstore.Store, index Index, opts Options) (*Reindexer, error) {
	if opts.Builder == nil {
		opts.Builder = NewBuilder(BuilderOptions{})
	}
	if opts.Settings == (search.IndexSettings{}) {
		opts.Settings = search.DefaultIndexSettings
	}
	if err := opts.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("index settings: %w", err)
	}
	if opts.Namespace == "" {
		opts.Namespace = "html"
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Reindexer{
		docs:  docs,
		index: index,
		opts:  opts,
		log:   logger.Component(opts.Logger, "reindex"),
	}, nil
}

// Setup drops the index if present and recreates it with the analysis
// settings.
func (r *Reindexer) Setup(ctx context.Context) error {
	if err := r.index.DeleteIndex(ctx); err != nil {
		return fmt.Errorf("drop index: %w", err)
	}
	body, err := json.Marshal(r.opts.Settings.Body())
	if err != nil {
		return fmt.Errorf("encode index settings: %w", err)
	}
	if err := r.index.CreateIndex(ctx, body); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Run performs a full rebuild. Setup and listing errors abort the run;
// per-document failures are logged and collected in the report.
func (r *Reindexer) Run(ctx context.Context) (Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}
	started := time.Now()
	defer func() { r.opts.Metrics.ObserveReindex(time.Since(started)) }()

	if err := r.Setup(ctx); err != nil {
		return Report{}, err
	}
	keys, err := r.docs.List(ctx, r.opts.Namespace)
	if err != nil {
		return Report{}, fmt.Errorf("list documents: %w", err)
	}

	var (
		mu     sync.Mutex
		report = Report{Failed: []string{}}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for _, key := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			indexed, err := r.indexOne(gctx, key)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				r.log.Error().Err(err).Str("key", key).Msg("error indexing document")
				r.opts.Metrics.ObserveIndexed("failed")
				report.Failed = append(report.Failed, key)
			case indexed:
				r.opts.Metrics.ObserveIndexed("indexed")
				report.Indexed++
			default:
				r.opts.Metrics.ObserveIndexed("skipped")
				report.Skipped++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("reindex interrupted: %w", err)
	}
	sort.Strings(report.Failed)

	if r.opts.Flusher != nil {
		if err := r.opts.Flusher.Flush(ctx); err != nil {
			r.log.Warn().Err(err).Msg("suggestion cache flush failed")
		}
	}
	r.log.Info().
		Int("indexed", report.Indexed).
		Int("skipped", report.Skipped).
		Int("failed", len(report.Failed)).
		Dur("duration", time.Since(started)).
		Msg("reindex finished")
	return report, nil
}

func (r *Reindexer) indexOne(ctx context.Context, key string) (bool, error) {
	exists, err := r.docs.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("stat: %w", err)
	}
	if !exists {
		return false, nil
	}
	raw, err := r.docs.Read(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read: %w", err)
	}
	record, ok, err := r.opts.Builder.Build(key, raw)
	if err != nil || !ok {
		return false, err
	}
	doc, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("encode record: %w", err)
	}
	if err := r.index.Upsert(ctx, record.ID, doc); err != nil {
		return false, fmt.Errorf("upsert: %w", err)
	}
	return true, nil
}
