package app

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"kavosh/internal/authpw"
	"kavosh/internal/config"
	"kavosh/internal/indexing"
	"kavosh/internal/search"
	"kavosh/internal/store"
)

// Searcher runs ranked searches and typeahead lookups.
type Searcher interface {
	Search(ctx context.Context, text string, page, size int) (search.Response, error)
	Suggest(ctx context.Context, prefix string) ([]string, error)
}

// Reindexer rebuilds the search index from the document store.
type Reindexer interface {
	Run(ctx context.Context) (indexing.Report, error)
}

// HistoryRecorder persists and lists issued queries.
type HistoryRecorder interface {
	Record(ctx context.Context, userID int64, query string) error
	RecordAsync(userID int64, query string)
	List(ctx context.Context, userID int64) ([]string, error)
}

// Authenticator registers and logs in users.
type Authenticator interface {
	Register(ctx context.Context, req authpw.RegisterRequest) (store.User, error)
	Login(ctx context.Context, req authpw.LoginRequest) (store.User, error)
}

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Search   Searcher
	Reindex  Reindexer
	History  HistoryRecorder
	Auth     Authenticator
	Database Pinger
	Engine   Pinger
	Cache    Pinger
	Logger   zerolog.Logger
}

type Service struct {
	cfg     config.Config
	search  Searcher
	reindex Reindexer
	history HistoryRecorder
	auth    Authenticator
	checks  map[string]Pinger
	log     zerolog.Logger
}

func New(cfg config.Config, deps Deps) *Service {
	checks := map[string]Pinger{}
	if deps.Database != nil {
		checks["database"] = deps.Database
	}
	if deps.Engine != nil {
		checks["search"] = deps.Engine
	}
	if deps.Cache != nil {
		checks["cache"] = deps.Cache
	}
	return &Service{
		cfg:     cfg,
		search:  deps.Search,
		reindex: deps.Reindex,
		history: deps.History,
		auth:    deps.Auth,
		checks:  checks,
		log:     deps.Logger,
	}
}

type SearchInput struct {
	Query  string
	Page   int
	Size   int
	UserID *int64
}

// Search runs the query and, for identified callers, records it in the
// background. History failures never affect the response.
func (s *Service) Search(ctx context.Context, in SearchInput) (search.Response, error) {
	resp, err := s.search.Search(ctx, in.Query, in.Page, in.Size)
	if err != nil {
		return search.Response{}, err
	}
	if in.UserID != nil && s.history != nil {
		s.history.RecordAsync(*in.UserID, in.Query)
	}
	return resp, nil
}

func (s *Service) Suggest(ctx context.Context, prefix string) ([]string, error) {
	return s.search.Suggest(ctx, prefix)
}

func (s *Service) Reindex(ctx context.Context) (indexing.Report, error) {
	if s.reindex == nil {
		return indexing.Report{}, domainError(http.StatusServiceUnavailable, "REINDEX_UNAVAILABLE", "Reindexing is not configured", nil)
	}
	// the rebuild outlives a dropped client connection
	report, err := s.reindex.Run(context.WithoutCancel(ctx))
	if err != nil {
		s.log.Error().Err(err).Msg("reindex failed")
		return indexing.Report{}, err
	}
	if !report.Success() {
		s.log.Warn().Strs("failed", report.Failed).Msg("documents indexed with some errors")
	}
	return report, nil
}

// ReindexAllowed reports whether token may trigger a rebuild. Without a
// configured token every caller may.
func (s *Service) ReindexAllowed(token string) bool {
	if s.cfg.ReindexToken == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.ReindexToken)) == 1
}

func (s *Service) RecordHistory(ctx context.Context, userID int64, query string) error {
	if s.history == nil {
		return domainError(http.StatusServiceUnavailable, "HISTORY_UNAVAILABLE", "History is not configured", nil)
	}
	return s.history.Record(ctx, userID, query)
}

func (s *Service) ListHistory(ctx context.Context, userID int64) ([]string, error) {
	if s.history == nil {
		return nil, domainError(http.StatusServiceUnavailable, "HISTORY_UNAVAILABLE", "History is not configured", nil)
	}
	return s.history.List(ctx, userID)
}

func (s *Service) Register(ctx context.Context, req authpw.RegisterRequest) (store.User, error) {
	if s.auth == nil {
		return store.User{}, domainError(http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
	}
	return s.auth.Register(ctx, req)
}

func (s *Service) Login(ctx context.Context, req authpw.LoginRequest) (store.User, error) {
	if s.auth == nil {
		return store.User{}, domainError(http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
	}
	return s.auth.Login(ctx, req)
}

// Ready pings every configured dependency and returns per-dependency errors.
func (s *Service) Ready(ctx context.Context) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	results := make(map[string]error, len(s.checks))
	for name, check := range s.checks {
		results[name] = check.Ping(ctx)
	}
	return results
}
