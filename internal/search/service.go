package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"kavosh/internal/logger"
	"kavosh/internal/metrics"
	"kavosh/internal/textnorm"
)

// SuggestionCache stores typeahead results per normalized prefix.
type SuggestionCache interface {
	Get(ctx context.Context, prefix string) ([]string, bool, error)
	Set(ctx context.Context, prefix string, suggestions []string) error
}

// Options wires the collaborators of a Service. Nil Compiler and Suggester
// take their defaults; Cache and Metrics are optional.
type Options struct {
	Compiler  *Compiler
	Formatter Formatter
	Suggester *Suggester
	Cache     SuggestionCache
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

// Service runs ranked searches and typeahead lookups against one engine.
type Service struct {
	engine    Engine
	compiler  *Compiler
	formatter Formatter
	suggester *Suggester
	cache     SuggestionCache
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewService creates a search service over engine.
func NewService(engine Engine, opts Options) (*Service, error) {
	var err error
	if opts.Compiler == nil {
		if opts.Compiler, err = NewCompiler(CompilerOptions{}); err != nil {
			return nil, err
		}
	}
	if opts.Suggester == nil {
		if opts.Suggester, err = NewSuggester(SuggesterOptions{}); err != nil {
			return nil, err
		}
	}
	return &Service{
		engine:    engine,
		compiler:  opts.Compiler,
		formatter: opts.Formatter,
		suggester: opts.Suggester,
		cache:     opts.Cache,
		metrics:   opts.Metrics,
		log:       logger.Component(opts.Logger, "search"),
	}, nil
}

// Search compiles text into a ranked request and formats the hits. When the
// first hit comes back without a body fragment the request is reissued once
// with the fuzzy highlight scope and the second response is used instead.
func (s *Service) Search(ctx context.Context, text string, page, size int) (Response, error) {
	started := time.Now()

	req, err := s.compiler.Compile(text, page, size)
	if err != nil {
		s.metrics.ObserveSearch("invalid", false)
		return Response{}, err
	}

	raw, err := s.execute(ctx, req)
	if err != nil {
		s.metrics.ObserveSearch("error", false)
		return Response{}, err
	}

	formatter := s.formatter
	fallback := req.Highlight.Scope != ScopeFuzzy && !firstHitHighlighted(raw)
	if fallback {
		s.log.Debug().Str("query", req.Text).Msg("no highlight on first hit, retrying with fuzzy scope")
		raw, err = s.execute(ctx, s.compiler.WithHighlightScope(req, ScopeFuzzy))
		if err != nil {
			s.metrics.ObserveSearch("error", true)
			return Response{}, err
		}
		// The fuzzy scope has a single clause, so its fragment comes first.
		formatter.Fragment = DefaultFragment(ScopeFuzzy)
	}

	resp, err := formatter.Format(raw, req.Page, req.Size)
	if err != nil {
		s.metrics.ObserveSearch("error", fallback)
		return Response{}, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}
	resp.TookMS = time.Since(started).Milliseconds()
	s.metrics.ObserveSearch("ok", fallback)
	return resp, nil
}

func (s *Service) execute(ctx context.Context, req Request) ([]byte, error) {
	body, err := json.Marshal(req.Body())
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}
	raw, err := s.engine.Search(ctx, body)
	if err != nil {
		s.log.Error().Err(err).Str("query", req.Text).Msg("search request failed")
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}
	return raw, nil
}

// Suggest returns completion suggestions for prefix. Engine failures return
// ErrSuggestionFailed rather than an empty list.
func (s *Service) Suggest(ctx context.Context, prefix string) ([]string, error) {
	body, err := s.suggester.Compile(prefix)
	if err != nil {
		s.metrics.ObserveSuggestion("invalid")
		return nil, err
	}
	key := textnorm.Normalize(prefix)

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Str("prefix", key).Msg("suggestion cache lookup failed")
		} else if ok {
			s.metrics.ObserveSuggestion("cached")
			return cached, nil
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode suggest request: %w", err)
	}
	raw, err := s.engine.Search(ctx, payload)
	if err != nil {
		s.log.Error().Err(err).Str("prefix", key).Msg("suggest request failed")
		s.metrics.ObserveSuggestion("error")
		return nil, fmt.Errorf("%w: %w", ErrSuggestionFailed, err)
	}
	suggestions, err := s.suggester.Unwrap(raw)
	if err != nil {
		s.log.Error().Err(err).Str("prefix", key).Msg("suggest response unreadable")
		s.metrics.ObserveSuggestion("error")
		return nil, fmt.Errorf("%w: %w", ErrSuggestionFailed, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, suggestions); err != nil {
			s.log.Warn().Err(err).Str("prefix", key).Msg("suggestion cache store failed")
		}
	}
	s.metrics.ObserveSuggestion("ok")
	return suggestions, nil
}

// IsValidation reports whether err is the caller's fault.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidQuery)
}
