// Package history records the queries users issue and lists them back.
package history

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"kavosh/internal/logger"
	"kavosh/internal/metrics"
	"kavosh/internal/store"
	"kavosh/internal/util"
)

const (
	defaultListLimit    = 100
	defaultWriteTimeout = 5 * time.Second
)

// Store is the relational collaborator holding users and their history.
type Store interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
	InsertHistory(ctx context.Context, userID int64, query string) error
	ListHistory(ctx context.Context, userID int64, limit int) ([]store.History, error)
}

// ValidationError lists the offending fields of a rejected call.
type ValidationError = util.ValidationError

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	return util.IsValidation(err)
}

type entryInput struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Query  string `json:"query" validate:"required,notblank"`
}

type listInput struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

// Recorder validates and persists search history.
type Recorder struct {
	store        Store
	validate     *validator.Validate
	log          zerolog.Logger
	metrics      *metrics.Metrics
	listLimit    int
	writeTimeout time.Duration
	wg           sync.WaitGroup
}

// Option configures a Recorder.
type Option func(*Recorder)

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) { r.metrics = m }
}

func WithListLimit(limit int) Option {
	return func(r *Recorder) {
		if limit > 0 {
			r.listLimit = limit
		}
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.writeTimeout = d
		}
	}
}

func NewRecorder(s Store, log zerolog.Logger, opts ...Option) *Recorder {
	r := &Recorder{
		store:        s,
		validate:     util.NewValidator(),
		log:          logger.Component(log, "history"),
		listLimit:    defaultListLimit,
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one history entry. An unknown user or a blank query returns
// a ValidationError and nothing is written.
func (r *Recorder) Record(ctx context.Context, userID int64, query string) error {
	in := entryInput{UserID: userID, Query: query}
	if err := r.validate.Struct(in); err != nil {
		r.metrics.ObserveHistory("invalid")
		return &ValidationError{Fields: util.FieldErrors(err)}
	}
	if err := r.checkUser(ctx, userID); err != nil {
		if IsValidation(err) {
			r.metrics.ObserveHistory("invalid")
		} else {
			r.metrics.ObserveHistory("error")
		}
		return err
	}
	if err := r.store.InsertHistory(ctx, userID, strings.TrimSpace(query)); err != nil {
		r.metrics.ObserveHistory("error")
		return err
	}
	r.metrics.ObserveHistory("ok")
	return nil
}

// RecordAsync records in the background. Failures are logged and never
// reach the caller.
func (r *Recorder) RecordAsync(userID int64, query string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		defer cancel()
		if err := r.Record(ctx, userID, query); err != nil {
			r.log.Warn().Err(err).Int64("user_id", userID).Msg("history not recorded")
		}
	}()
}

// Wait blocks until background writes started by RecordAsync finish.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

// List returns a user's queries, newest first.
func (r *Recorder) List(ctx context.Context, userID int64) ([]string, error) {
	if err := r.validate.Struct(listInput{UserID: userID}); err != nil {
		return nil, &ValidationError{Fields: util.FieldErrors(err)}
	}
	if err := r.checkUser(ctx, userID); err != nil {
		return nil, err
	}
	entries, err := r.store.ListHistory(ctx, userID, r.listLimit)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	queries := make([]string, 0, len(entries))
	for _, entry := range entries {
		queries = append(queries, entry.Query)
	}
	return queries, nil
}

func (r *Recorder) checkUser(ctx context.Context, userID int64) error {
	exists, err := r.store.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return util.Invalid("user_id", "The selected user_id is invalid.")
	}
	return nil
}
