// Package indexing turns raw crawled pages into index records and rebuilds
// the search index from the document store.
package indexing

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"kavosh/internal/extract"
	"kavosh/internal/search"
	"kavosh/internal/textnorm"
)

const (
	DefaultMaxTitleLength = 100
	DefaultMaxInputLength = 50
)

// Record is the document written to the search index under ID.
type Record struct {
	ID       string  `json:"-"`
	Title    string  `json:"title"`
	Body     string  `json:"body"`
	URL      *string `json:"url,omitempty"`
	FilePath string  `json:"file_path"`
	Suggest  Suggest `json:"suggest"`
}

// Suggest is the completion entry of a record.
type Suggest struct {
	Input  []string `json:"input"`
	Weight int      `json:"weight"`
}

type BuilderOptions struct {
	// MaxTitleLength is the title length at which the completion weight
	// bottoms out at 1.
	MaxTitleLength int
	// MaxInputLength caps each completion input, in runes.
	MaxInputLength int
	// TitleExclude skips documents whose title contains it. Empty disables.
	TitleExclude string
}

// Builder maps one raw page onto one Record.
type Builder struct {
	opts BuilderOptions
}

func NewBuilder(opts BuilderOptions) *Builder {
	if opts.MaxTitleLength <= 0 {
		opts.MaxTitleLength = DefaultMaxTitleLength
	}
	if opts.MaxInputLength <= 0 {
		opts.MaxInputLength = DefaultMaxInputLength
	}
	opts.TitleExclude = textnorm.Normalize(opts.TitleExclude)
	return &Builder{opts: opts}
}

// Build extracts the page stored under key. The boolean is false when the
// document is excluded and must not be indexed.
func (b *Builder) Build(key string, raw []byte) (Record, bool, error) {
	doc, err := extract.HTML(raw)
	if err != nil {
		return Record{}, false, fmt.Errorf("extract %s: %w", key, err)
	}
	if b.opts.TitleExclude != "" && doc.Title != nil && strings.Contains(*doc.Title, b.opts.TitleExclude) {
		return Record{}, false, nil
	}

	title := doc.TitleOr(search.UntitledText)
	body := doc.BodyOr("")
	record := Record{
		ID:       key,
		Title:    title,
		Body:     body,
		FilePath: key,
		Suggest: Suggest{
			Input:  b.inputs(title, body),
			Weight: Weight(title, b.opts.MaxTitleLength),
		},
	}
	if url, ok := extract.SourceURL(raw); ok {
		record.URL = &url
	}
	return record, true, nil
}

func (b *Builder) inputs(values ...string) []string {
	inputs := make([]string, 0, len(values))
	for _, value := range values {
		value = truncate(value, b.opts.MaxInputLength)
		if strings.TrimSpace(value) == "" {
			continue
		}
		inputs = append(inputs, value)
	}
	return inputs
}

// Weight ranks shorter titles higher: maxLength minus the title's rune
// count, never below 1.
func Weight(title string, maxLength int) int {
	return max(1, maxLength-utf8.RuneCountInString(title))
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit]))
}
