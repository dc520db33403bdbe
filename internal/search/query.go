package search

import (
	"fmt"
	"strings"

	"kavosh/internal/textnorm"
)

const (
	fieldTitle = "title"
	fieldBody  = "body"

	DefaultPage = 1
	DefaultSize = 5
	MaxSize     = 100
)

// ClauseKind is the query DSL leaf a clause compiles to.
type ClauseKind string

const (
	MatchPhrase       ClauseKind = "match_phrase"
	MatchPhrasePrefix ClauseKind = "match_phrase_prefix"
	Match             ClauseKind = "match"
	Prefix            ClauseKind = "prefix"
	MultiMatch        ClauseKind = "multi_match"
)

// Clause is one boosted condition of a bool query.
type Clause struct {
	Kind      ClauseKind
	Field     string
	Query     string
	Boost     float64
	Fuzziness string
	Operator  string
}

// DSL renders the clause as an Elasticsearch query object.
func (c Clause) DSL() map[string]any {
	switch c.Kind {
	case Prefix:
		return map[string]any{"prefix": map[string]any{
			c.Field: map[string]any{"value": c.Query, "boost": c.Boost},
		}}
	case MultiMatch:
		return map[string]any{"multi_match": map[string]any{
			"query":  c.Query,
			"fields": []string{c.Field},
			"boost":  c.Boost,
		}}
	}

	params := map[string]any{"query": c.Query, "boost": c.Boost}
	if c.Fuzziness != "" {
		params["fuzziness"] = c.Fuzziness
	}
	if c.Operator != "" {
		params["operator"] = c.Operator
	}
	return map[string]any{string(c.Kind): map[string]any{c.Field: params}}
}

// Boosts weighs the five retrieval clauses. Only their relative order is
// fixed: phrase on body > phrase prefix on title > fuzzy title > fuzzy body
// > raw prefix on body.
type Boosts struct {
	PhraseBody        float64
	PhrasePrefixTitle float64
	FuzzyTitle        float64
	FuzzyBody         float64
	PrefixBody        float64
}

var DefaultBoosts = Boosts{
	PhraseBody:        150,
	PhrasePrefixTitle: 60,
	FuzzyTitle:        30,
	FuzzyBody:         15,
	PrefixBody:        10,
}

func (b Boosts) validate() error {
	ordered := []float64{b.PhraseBody, b.PhrasePrefixTitle, b.FuzzyTitle, b.FuzzyBody, b.PrefixBody}
	for i, boost := range ordered {
		if boost <= 0 {
			return fmt.Errorf("boost %d must be positive", i)
		}
		if i > 0 && boost >= ordered[i-1] {
			return fmt.Errorf("boost %d (%v) must be lower than boost %d (%v)", i, boost, i-1, ordered[i-1])
		}
	}
	return nil
}

// HighlightScope selects the query that drives body highlighting.
type HighlightScope string

const (
	// ScopePhrase highlights exact phrase spans only.
	ScopePhrase HighlightScope = "phrase"
	// ScopeCombined highlights phrase spans plus plain term matches.
	ScopeCombined HighlightScope = "combined"
	// ScopeFuzzy highlights fuzzy term matches; used as the fallback scope.
	ScopeFuzzy HighlightScope = "fuzzy"
)

// ParseHighlightScope maps a configuration value onto a scope.
func ParseHighlightScope(value string) (HighlightScope, error) {
	switch scope := HighlightScope(strings.ToLower(strings.TrimSpace(value))); scope {
	case "":
		return ScopePhrase, nil
	case ScopePhrase, ScopeCombined, ScopeFuzzy:
		return scope, nil
	default:
		return "", fmt.Errorf("unknown highlight scope %q", value)
	}
}

// Highlight configures body fragment highlighting.
type Highlight struct {
	Field        string
	PreTag       string
	PostTag      string
	FragmentSize int
	Fragments    int
	Scope        HighlightScope
	Clauses      []Clause
}

func (h Highlight) dsl() map[string]any {
	should := make([]map[string]any, 0, len(h.Clauses))
	for _, clause := range h.Clauses {
		should = append(should, clause.DSL())
	}
	return map[string]any{
		"fields": map[string]any{
			h.Field: map[string]any{
				"type":                "unified",
				"pre_tags":            []string{h.PreTag},
				"post_tags":           []string{h.PostTag},
				"fragment_size":       h.FragmentSize,
				"number_of_fragments": h.Fragments,
				"require_field_match": true,
				"highlight_query": map[string]any{
					"bool": map[string]any{
						"should":               should,
						"minimum_should_match": 1,
					},
				},
			},
		},
	}
}

// Request is a compiled ranked search.
type Request struct {
	Text               string
	Page               int
	Size               int
	From               int
	Clauses            []Clause
	MinimumShouldMatch int
	Highlight          Highlight
}

// Body renders the request as an Elasticsearch search body. Results are
// ordered by score alone; ties keep the engine's order.
func (r Request) Body() map[string]any {
	should := make([]map[string]any, 0, len(r.Clauses))
	for _, clause := range r.Clauses {
		should = append(should, clause.DSL())
	}
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"should":               should,
				"minimum_should_match": r.MinimumShouldMatch,
			},
		},
		"sort": []map[string]any{
			{"_score": map[string]any{"order": "desc"}},
		},
		"highlight": r.Highlight.dsl(),
		"from":      r.From,
		"size":      r.Size,
	}
}

// CompilerOptions tunes the compiled query. Zero values take defaults.
type CompilerOptions struct {
	Boosts       Boosts
	DefaultSize  int
	MaxSize      int
	Scope        HighlightScope
	Fuzziness    string
	PreTag       string
	PostTag      string
	FragmentSize int
	Fragments    int
}

// Compiler builds ranked multi-clause requests from raw user queries.
type Compiler struct {
	opts CompilerOptions
}

// NewCompiler validates opts and fills in defaults.
func NewCompiler(opts CompilerOptions) (*Compiler, error) {
	if opts.Boosts == (Boosts{}) {
		opts.Boosts = DefaultBoosts
	}
	if err := opts.Boosts.validate(); err != nil {
		return nil, err
	}
	if opts.DefaultSize <= 0 {
		opts.DefaultSize = DefaultSize
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = MaxSize
	}
	if opts.Scope == "" {
		opts.Scope = ScopePhrase
	}
	if opts.Fuzziness == "" {
		opts.Fuzziness = "2"
	}
	if opts.PreTag == "" {
		opts.PreTag = "<strong>"
	}
	if opts.PostTag == "" {
		opts.PostTag = "</strong>"
	}
	if opts.FragmentSize <= 0 {
		opts.FragmentSize = 175
	}
	if opts.Fragments <= 0 {
		opts.Fragments = 5
	}
	return &Compiler{opts: opts}, nil
}

// Compile builds the request for text. A zero page or size means the caller
// did not supply one and takes the default; negative values are rejected.
func (c *Compiler) Compile(text string, page, size int) (Request, error) {
	query := textnorm.Normalize(text)
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", ErrInvalidQuery)
	}
	if page == 0 {
		page = DefaultPage
	}
	if size == 0 {
		size = c.opts.DefaultSize
	}
	if page < 0 {
		return Request{}, fmt.Errorf("%w: page must be a positive integer", ErrInvalidQuery)
	}
	if size < 0 || size > c.opts.MaxSize {
		return Request{}, fmt.Errorf("%w: size must be between 1 and %d", ErrInvalidQuery, c.opts.MaxSize)
	}

	b := c.opts.Boosts
	return Request{
		Text: query,
		Page: page,
		Size: size,
		From: (page - 1) * size,
		Clauses: []Clause{
			{Kind: MatchPhrase, Field: fieldBody, Query: query, Boost: b.PhraseBody},
			{Kind: MatchPhrasePrefix, Field: fieldTitle, Query: query, Boost: b.PhrasePrefixTitle},
			{Kind: Match, Field: fieldTitle, Query: query, Boost: b.FuzzyTitle, Fuzziness: c.opts.Fuzziness, Operator: "AND"},
			{Kind: Match, Field: fieldBody, Query: query, Boost: b.FuzzyBody, Fuzziness: c.opts.Fuzziness},
			{Kind: Prefix, Field: fieldBody, Query: query, Boost: b.PrefixBody},
		},
		MinimumShouldMatch: 1,
		Highlight:          c.highlight(query, c.opts.Scope),
	}, nil
}

// WithHighlightScope returns a copy of req highlighting with scope instead.
// Retrieval clauses and pagination are unchanged.
func (c *Compiler) WithHighlightScope(req Request, scope HighlightScope) Request {
	req.Highlight = c.highlight(req.Text, scope)
	return req
}

func (c *Compiler) highlight(query string, scope HighlightScope) Highlight {
	b := c.opts.Boosts
	phrase := Clause{Kind: MatchPhrase, Field: fieldBody, Query: query, Boost: b.PhraseBody}

	var clauses []Clause
	switch scope {
	case ScopeCombined:
		clauses = []Clause{phrase, {Kind: MultiMatch, Field: fieldBody, Query: query, Boost: 20}}
	case ScopeFuzzy:
		clauses = []Clause{{Kind: Match, Field: fieldBody, Query: query, Boost: b.FuzzyBody, Fuzziness: c.opts.Fuzziness}}
	default:
		clauses = []Clause{phrase}
	}

	return Highlight{
		Field:        fieldBody,
		PreTag:       c.opts.PreTag,
		PostTag:      c.opts.PostTag,
		FragmentSize: c.opts.FragmentSize,
		Fragments:    c.opts.Fragments,
		Scope:        scope,
		Clauses:      clauses,
	}
}
