package search

import (
	"testing"

	"github.com/tidwall/gjson"
)

func TestIndexSettingsBody(t *testing.T) {
	raw := encode(t, DefaultIndexSettings.Body())

	tokenizer := gjson.GetBytes(raw, "settings.analysis.tokenizer.edge_ngram_tokenizer")
	if tokenizer.Get("type").String() != "edge_ngram" ||
		tokenizer.Get("min_gram").Int() != 2 ||
		tokenizer.Get("max_gram").Int() != 10 {
		t.Fatalf("unexpected tokenizer %s", tokenizer.Raw)
	}
	if got := tokenizer.Get("token_chars").Raw; got != `["letter","digit"]` {
		t.Fatalf("unexpected token chars %s", got)
	}
	if got := gjson.GetBytes(raw, "settings.analysis.analyzer.persian_analyzer.filter").Raw; got != `["lowercase"]` {
		t.Fatalf("unexpected filters %s", got)
	}

	props := gjson.GetBytes(raw, "mappings.properties")
	for _, field := range []string{"title", "body"} {
		if props.Get(field+".analyzer").String() != "persian_analyzer" {
			t.Fatalf("%s should use persian_analyzer", field)
		}
	}
	for _, field := range []string{"url", "file_path"} {
		if props.Get(field+".type").String() != "keyword" {
			t.Fatalf("%s should be a keyword", field)
		}
	}
	if props.Get("suggest.type").String() != "completion" || props.Get("suggest.max_input_length").Int() != 50 {
		t.Fatalf("unexpected suggest mapping %s", props.Get("suggest").Raw)
	}
}

func TestIndexSettingsValidate(t *testing.T) {
	if err := DefaultIndexSettings.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	bad := []IndexSettings{
		{MinGram: 0, MaxGram: 10, SuggestMaxInputLength: 50},
		{MinGram: 5, MaxGram: 3, SuggestMaxInputLength: 50},
		{MinGram: 2, MaxGram: 10, SuggestMaxInputLength: 0},
	}
	for _, s := range bad {
		if err := s.Validate(); err == nil {
			t.Fatalf("expected %+v to be rejected", s)
		}
	}
}
