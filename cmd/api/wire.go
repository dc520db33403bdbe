package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"kavosh/internal/app"
	"kavosh/internal/authpw"
	"kavosh/internal/cache"
	"kavosh/internal/config"
	"kavosh/internal/docstore"
	"kavosh/internal/history"
	"kavosh/internal/indexing"
	"kavosh/internal/metrics"
	"kavosh/internal/search"
	"kavosh/internal/store"
)

// components holds the long-lived collaborators shared by every command.
type components struct {
	pool      *pgxpool.Pool
	store     *store.PostgresStore
	engine    *search.Elastic
	cache     *cache.SuggestionCache
	search    *search.Service
	reindexer *indexing.Reindexer
	history   *history.Recorder
	auth      *authpw.Service
}

func build(ctx context.Context, cfg config.Config, log zerolog.Logger, m *metrics.Metrics) (*components, error) {
	c := &components{}

	pool, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	c.pool = pool
	c.store = store.NewPostgresStore(pool)

	c.engine, err = search.NewElastic(search.ElasticConfig{
		Addresses: cfg.ElasticURLs,
		Username:  cfg.ElasticUsername,
		Password:  cfg.ElasticPassword,
		Index:     cfg.SearchIndex,
	})
	if err != nil {
		c.Close()
		return nil, err
	}

	if cfg.RedisURL != "" {
		c.cache, err = cache.NewSuggestionCache(cfg.RedisURL, cfg.SuggestCacheTTL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		log.Info().Msg("suggestion cache enabled")
	}

	c.search, err = newSearchService(cfg, c, log, m)
	if err != nil {
		c.Close()
		return nil, err
	}

	docs, err := newDocumentStore(cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	opts := indexing.Options{
		Builder: indexing.NewBuilder(indexing.BuilderOptions{
			MaxTitleLength: cfg.TitleMaxLength,
			MaxInputLength: cfg.SuggestMaxInput,
			TitleExclude:   cfg.IndexTitleExclude,
		}),
		Settings: search.IndexSettings{
			MinGram:               cfg.IndexMinGram,
			MaxGram:               cfg.IndexMaxGram,
			SuggestMaxInputLength: cfg.SuggestMaxInput,
		},
		Namespace: cfg.DocumentsNamespace,
		Workers:   cfg.ReindexWorkers,
		Timeout:   cfg.ReindexTimeout,
		Metrics:   m,
		Logger:    log,
	}
	if c.cache != nil {
		opts.Flusher = c.cache
	}
	c.reindexer, err = indexing.NewReindexer(docs, c.engine, opts)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.history = history.NewRecorder(c.store, log,
		history.WithMetrics(m),
		history.WithListLimit(cfg.HistoryListLimit),
	)
	c.auth = authpw.NewService(c.store)

	return c, nil
}

func newSearchService(cfg config.Config, c *components, log zerolog.Logger, m *metrics.Metrics) (*search.Service, error) {
	scope, err := search.ParseHighlightScope(cfg.HighlightScope)
	if err != nil {
		return nil, err
	}
	compiler, err := search.NewCompiler(search.CompilerOptions{
		DefaultSize: cfg.SearchDefaultSize,
		MaxSize:     cfg.SearchMaxSize,
		Scope:       scope,
	})
	if err != nil {
		return nil, err
	}
	suggester, err := search.NewSuggester(search.SuggesterOptions{
		Size:   cfg.SuggestSize,
		Fuzzy:  cfg.SuggestFuzzy,
		Source: search.SuggestSource(cfg.SuggestSource),
	})
	if err != nil {
		return nil, err
	}

	fragment := cfg.HighlightFragmentIndex
	if fragment < 0 {
		fragment = search.DefaultFragment(scope)
	}
	opts := search.Options{
		Compiler:  compiler,
		Formatter: search.Formatter{Fragment: fragment},
		Suggester: suggester,
		Metrics:   m,
		Logger:    log,
	}
	if c.cache != nil {
		opts.Cache = c.cache
	}
	return search.NewService(c.engine, opts)
}

func newDocumentStore(cfg config.Config) (docstore.Store, error) {
	switch cfg.DocumentsBackend {
	case "fs", "":
		return docstore.NewLocal(cfg.DocumentsDir), nil
	case "minio":
		return docstore.NewMinIO(docstore.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
	}
	return nil, fmt.Errorf("unknown documents backend %q", cfg.DocumentsBackend)
}

// pinger returns the cache for readiness checks, or nil when disabled.
func (c *components) pinger() app.Pinger {
	if c.cache == nil {
		return nil
	}
	return c.cache
}

func (c *components) Close() {
	if c.cache != nil {
		_ = c.cache.Close()
	}
	if c.pool != nil {
		c.pool.Close()
	}
}
