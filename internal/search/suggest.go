package search

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"kavosh/internal/textnorm"
)

const (
	suggesterName = "document-suggest"
	fieldSuggest  = "suggest"
)

// SuggestSource picks what a suggestion option is unwrapped into.
type SuggestSource string

const (
	// SourceText returns the matched completion input.
	SourceText SuggestSource = "text"
	// SourceTitle returns the title of the suggested document.
	SourceTitle SuggestSource = "title"
)

// SuggesterOptions configures the completion request.
type SuggesterOptions struct {
	Size      int
	Fuzzy     bool
	Fuzziness string
	Source    SuggestSource
}

// Suggester builds completion requests and flattens their responses.
type Suggester struct {
	opts SuggesterOptions
}

// NewSuggester fills in defaults: five results, text options, AUTO fuzziness
// when fuzzy matching is enabled.
func NewSuggester(opts SuggesterOptions) (*Suggester, error) {
	if opts.Size <= 0 {
		opts.Size = 5
	}
	if opts.Fuzziness == "" {
		opts.Fuzziness = "AUTO"
	}
	switch opts.Source {
	case "":
		opts.Source = SourceText
	case SourceText, SourceTitle:
	default:
		return nil, fmt.Errorf("unknown suggestion source %q", opts.Source)
	}
	return &Suggester{opts: opts}, nil
}

// Compile builds the completion request body for prefix.
func (s *Suggester) Compile(prefix string) (map[string]any, error) {
	prefix = textnorm.Normalize(prefix)
	if prefix == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidQuery)
	}

	completion := map[string]any{
		"field":           fieldSuggest,
		"size":            s.opts.Size,
		"skip_duplicates": true,
	}
	if s.opts.Fuzzy {
		completion["fuzzy"] = map[string]any{"fuzziness": s.opts.Fuzziness}
	}
	return map[string]any{
		"_source": []string{fieldTitle},
		"suggest": map[string]any{
			suggesterName: map[string]any{
				"prefix":     prefix,
				"completion": completion,
			},
		},
	}, nil
}

// Unwrap returns the option strings of the first suggester entry.
func (s *Suggester) Unwrap(raw []byte) ([]string, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("decode suggest response: invalid json")
	}
	path := "suggest." + suggesterName + ".0.options"
	options := gjson.GetBytes(raw, path).Array()

	suggestions := make([]string, 0, len(options))
	for _, option := range options {
		var value string
		if s.opts.Source == SourceTitle {
			value = option.Get("_source." + fieldTitle).String()
		} else {
			value = option.Get("text").String()
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		suggestions = append(suggestions, value)
	}
	return suggestions, nil
}
