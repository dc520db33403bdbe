package search

import "testing"

const twoHits = `{
  "hits": {
    "total": {"value": 12, "relation": "eq"},
    "hits": [
      {
        "_id": "html/a.html",
        "_source": {"title": "گزارش سالانه", "url": "https://example.ir/a"},
        "highlight": {"body": ["اولین <strong>گزارش</strong>", "دومین <strong>گزارش</strong>"]}
      },
      {
        "_id": "html/b.html",
        "_source": {"title": "بدون لینک"},
        "highlight": {"body": ["تنها <strong>گزارش</strong>"]}
      }
    ]
  }
}`

func TestFormatFirstFragmentPolicy(t *testing.T) {
	resp, err := Formatter{Fragment: 0}.Format([]byte(twoHits), 2, 5)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if resp.Total != 12 || resp.Page != 2 || resp.Size != 5 {
		t.Fatalf("unexpected envelope %+v", resp)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	first := resp.Results[0]
	if first.ID != "html/a.html" || first.Title != "گزارش سالانه" {
		t.Fatalf("unexpected first result %+v", first)
	}
	if first.URL == nil || *first.URL != "https://example.ir/a" {
		t.Fatalf("expected url, got %v", first.URL)
	}
	if first.Body != "اولین <strong>گزارش</strong>..." {
		t.Fatalf("unexpected body %q", first.Body)
	}
	if resp.Results[1].URL != nil {
		t.Fatalf("missing url must stay absent, got %q", *resp.Results[1].URL)
	}
}

func TestFormatSecondFragmentPolicy(t *testing.T) {
	resp, err := Formatter{Fragment: 1}.Format([]byte(twoHits), 1, 5)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if got := resp.Results[0].Body; got != "دومین <strong>گزارش</strong>..." {
		t.Fatalf("expected second fragment, got %q", got)
	}
	if got := resp.Results[1].Body; got != NoHighlightText+"..." {
		t.Fatalf("expected placeholder for missing second fragment, got %q", got)
	}
}

func TestFormatWithoutHighlightUsesPlaceholder(t *testing.T) {
	raw := `{"hits":{"total":{"value":1},"hits":[{"_id":"7","_source":{"title":"x","url":""}}]}}`
	resp, err := Formatter{}.Format([]byte(raw), 1, 5)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	result := resp.Results[0]
	if result.Body != NoHighlightText+"..." {
		t.Fatalf("expected placeholder body, got %q", result.Body)
	}
	if result.URL == nil || *result.URL != "" {
		t.Fatalf("empty url should pass through unchanged, got %v", result.URL)
	}
}

func TestFormatDefaultsMissingTitle(t *testing.T) {
	raw := `{"hits":{"total":{"value":1},"hits":[{"_id":"9","_source":{}}]}}`
	resp, err := Formatter{}.Format([]byte(raw), 1, 5)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if resp.Results[0].Title != UntitledText {
		t.Fatalf("expected untitled placeholder, got %q", resp.Results[0].Title)
	}
}

func TestFormatEmptyHitsReturnsEmptySlice(t *testing.T) {
	resp, err := Formatter{}.Format([]byte(`{"hits":{"total":{"value":0},"hits":[]}}`), 1, 5)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Fatalf("expected empty non-nil results, got %#v", resp.Results)
	}
}

func TestFormatRejectsInvalidJSON(t *testing.T) {
	if _, err := (Formatter{}).Format([]byte("{not json"), 1, 5); err == nil {
		t.Fatal("expected error for invalid json")
	}
}

func TestFirstHitHighlighted(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want bool
	}{
		{"fragments present", twoHits, true},
		{"no hits", `{"hits":{"hits":[]}}`, true},
		{"empty fragment list", `{"hits":{"hits":[{"_id":"1","highlight":{"body":[]}}]}}`, false},
		{"only later hit highlighted", `{"hits":{"hits":[{"_id":"1"},{"_id":"2","highlight":{"body":["x"]}}]}}`, false},
	}
	for _, tc := range cases {
		if got := firstHitHighlighted([]byte(tc.raw)); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDefaultFragment(t *testing.T) {
	if DefaultFragment(ScopePhrase) != 0 || DefaultFragment(ScopeFuzzy) != 0 {
		t.Fatal("single-clause scopes should use the first fragment")
	}
	if DefaultFragment(ScopeCombined) != 1 {
		t.Fatal("combined scope should use the second fragment")
	}
}
