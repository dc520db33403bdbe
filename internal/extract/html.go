// Package extract pulls searchable text and provenance out of crawled HTML.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"kavosh/internal/textnorm"
)

// Document is the text extracted from one HTML page. A nil field means the
// page had no such element, which is different from an empty one.
type Document struct {
	Title *string
	Body  *string
}

// HTML parses raw page content and returns its normalized title and body.
// Malformed markup is parsed best-effort; style and script subtrees never
// reach the body text.
func HTML(raw []byte) (Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Document{}, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return Document{}, fmt.Errorf("parse html: %w", err)
	}

	var result Document
	if title := doc.Find("title").First(); title.Length() > 0 {
		text := title.Text()
		result.Title = textnorm.NormalizeOptional(&text)
	}

	if body := doc.Find("body").First(); body.Length() > 0 {
		body.Find("style, script").Remove()
		text := body.Text()
		result.Body = textnorm.NormalizeOptional(&text)
	}
	return result, nil
}

// TitleOr returns the title, or fallback when the title is absent or blank.
func (d Document) TitleOr(fallback string) string {
	if d.Title == nil || strings.TrimSpace(*d.Title) == "" {
		return fallback
	}
	return *d.Title
}

// BodyOr returns the body, or fallback when the body is absent.
func (d Document) BodyOr(fallback string) string {
	if d.Body == nil {
		return fallback
	}
	return *d.Body
}
