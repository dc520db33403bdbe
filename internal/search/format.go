package search

import (
	"fmt"

	"github.com/tidwall/gjson"
)

const (
	// NoHighlightText fills the body when no fragment is available.
	NoHighlightText = "متنی برای نمایش وجود ندارد"
	// UntitledText is shown for hits whose source carries no title.
	UntitledText = "بدون عنوان"

	ellipsis = "..."
)

// DefaultFragment returns the fragment index that matches scope: the
// combined scope puts the phrase fragment second.
func DefaultFragment(scope HighlightScope) int {
	if scope == ScopeCombined {
		return 1
	}
	return 0
}

// Formatter maps raw engine hits onto the public result shape.
type Formatter struct {
	// Fragment is the index of the highlight fragment shown as the body.
	Fragment int
}

// Format decodes a search response. A hit without a fragment at the
// configured index shows NoHighlightText; every body ends in an ellipsis.
func (f Formatter) Format(raw []byte, page, size int) (Response, error) {
	if !gjson.ValidBytes(raw) {
		return Response{}, fmt.Errorf("decode search response: invalid json")
	}
	parsed := gjson.ParseBytes(raw)

	hits := parsed.Get("hits.hits").Array()
	results := make([]Result, 0, len(hits))
	fragmentPath := fmt.Sprintf("highlight.%s.%d", fieldBody, f.Fragment)
	for _, hit := range hits {
		result := Result{
			ID:    hit.Get("_id").String(),
			Title: UntitledText,
			Body:  NoHighlightText,
		}
		if url := hit.Get("_source.url"); url.Exists() && url.Type == gjson.String {
			value := url.String()
			result.URL = &value
		}
		if title := hit.Get("_source.title"); title.Exists() && title.Type == gjson.String {
			result.Title = title.String()
		}
		if fragment := hit.Get(fragmentPath); fragment.Exists() {
			result.Body = fragment.String()
		}
		result.Body += ellipsis
		results = append(results, result)
	}

	return Response{
		Results: results,
		Total:   int(parsed.Get("hits.total.value").Int()),
		Page:    page,
		Size:    size,
	}, nil
}

// firstHitHighlighted reports whether the first hit carries any body
// fragment. A response without hits counts as highlighted.
func firstHitHighlighted(raw []byte) bool {
	first := gjson.GetBytes(raw, "hits.hits.0")
	if !first.Exists() {
		return true
	}
	return len(first.Get("highlight." + fieldBody).Array()) > 0
}
