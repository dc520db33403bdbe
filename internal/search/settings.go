package search

import "fmt"

const (
	analyzerName  = "persian_analyzer"
	tokenizerName = "edge_ngram_tokenizer"
)

// IndexSettings tunes the analysis chain the document index is created with.
type IndexSettings struct {
	MinGram               int
	MaxGram               int
	SuggestMaxInputLength int
}

// DefaultIndexSettings matches the production index.
var DefaultIndexSettings = IndexSettings{MinGram: 2, MaxGram: 10, SuggestMaxInputLength: 50}

func (s IndexSettings) Validate() error {
	if s.MinGram < 1 {
		return fmt.Errorf("min gram must be positive, got %d", s.MinGram)
	}
	if s.MaxGram < s.MinGram {
		return fmt.Errorf("max gram %d is below min gram %d", s.MaxGram, s.MinGram)
	}
	if s.SuggestMaxInputLength < 1 {
		return fmt.Errorf("suggest max input length must be positive, got %d", s.SuggestMaxInputLength)
	}
	return nil
}

// Body renders the index creation request: an edge n-gram analyzer over
// letters and digits for title and body, exact-match url and file_path, and
// a completion field for typeahead.
func (s IndexSettings) Body() map[string]any {
	textField := map[string]any{
		"type":            "text",
		"analyzer":        analyzerName,
		"search_analyzer": analyzerName,
	}
	return map[string]any{
		"settings": map[string]any{
			"analysis": map[string]any{
				"tokenizer": map[string]any{
					tokenizerName: map[string]any{
						"type":        "edge_ngram",
						"min_gram":    s.MinGram,
						"max_gram":    s.MaxGram,
						"token_chars": []string{"letter", "digit"},
					},
				},
				"analyzer": map[string]any{
					analyzerName: map[string]any{
						"type":      "custom",
						"tokenizer": tokenizerName,
						"filter":    []string{"lowercase"},
					},
				},
			},
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				fieldTitle:  textField,
				fieldBody:   textField,
				"url":       map[string]any{"type": "keyword"},
				"file_path": map[string]any{"type": "keyword"},
				fieldSuggest: map[string]any{
					"type":                         "completion",
					"max_input_length":             s.SuggestMaxInputLength,
					"preserve_separators":          true,
					"preserve_position_increments": true,
				},
			},
		},
	}
}
