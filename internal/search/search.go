// Package search compiles ranked queries and typeahead requests for an
// Elasticsearch-compatible engine and shapes its responses for callers.
package search

import (
	"context"
	"errors"
)

var (
	// ErrInvalidQuery reports query text or pagination the caller must fix.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrEngineUnavailable reports a failed round trip to the search engine.
	ErrEngineUnavailable = errors.New("search engine unavailable")
	// ErrSuggestionFailed distinguishes a suggester failure from "no matches".
	ErrSuggestionFailed = errors.New("suggestion failure")
)

// Engine executes a JSON request body against the document index and returns
// the raw JSON response.
type Engine interface {
	Search(ctx context.Context, body []byte) ([]byte, error)
}

// Result is a single search hit returned to the caller.
type Result struct {
	ID    string  `json:"id"`
	URL   *string `json:"url"`
	Title string  `json:"title"`
	Body  string  `json:"body"`
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	Size    int      `json:"size"`
	TookMS  int64    `json:"took_ms"`
}
