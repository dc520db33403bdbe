package search

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type recordedRequest struct {
	method string
	path   string
	body   string
}

func newElasticServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Elastic, *[]recordedRequest) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{method: r.Method, path: r.URL.Path, body: string(body)})
		mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := NewElastic(ElasticConfig{Addresses: []string{srv.URL}, Index: "document1"})
	if err != nil {
		t.Fatalf("NewElastic: %v", err)
	}
	return es, &requests
}

func TestElasticSearchPassesBodyThrough(t *testing.T) {
	es, requests := newElasticServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, noHits)
	})

	raw, err := es.Search(context.Background(), []byte(`{"size":5}`))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if string(raw) != noHits {
		t.Fatalf("unexpected payload %s", raw)
	}
	got := (*requests)[0]
	if got.path != "/document1/_search" || got.body != `{"size":5}` {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestElasticSearchErrorStatus(t *testing.T) {
	es, _ := newElasticServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"parsing_exception"}}`)
	})

	_, err := es.Search(context.Background(), []byte(`{}`))
	if err == nil || !strings.Contains(err.Error(), "parsing_exception") {
		t.Fatalf("expected engine error with payload, got %v", err)
	}
}

func TestElasticDeleteIndexIgnoresMissing(t *testing.T) {
	es, requests := newElasticServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"type":"index_not_found_exception"}}`)
	})

	if err := es.DeleteIndex(context.Background()); err != nil {
		t.Fatalf("DeleteIndex: %v", err)
	}
	got := (*requests)[0]
	if got.method != http.MethodDelete || got.path != "/document1" {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestElasticCreateIndexAndUpsert(t *testing.T) {
	es, requests := newElasticServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"acknowledged":true}`)
	})

	if err := es.CreateIndex(context.Background(), []byte(`{"settings":{}}`)); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := es.Upsert(context.Background(), "html/a.html", []byte(`{"title":"t"}`)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	create, upsert := (*requests)[0], (*requests)[1]
	if create.method != http.MethodPut || create.path != "/document1" || create.body != `{"settings":{}}` {
		t.Fatalf("unexpected create request %+v", create)
	}
	if upsert.method != http.MethodPut || !strings.HasPrefix(upsert.path, "/document1/_doc/") {
		t.Fatalf("unexpected upsert request %+v", upsert)
	}
}

func TestNewElasticRequiresIndex(t *testing.T) {
	if _, err := NewElastic(ElasticConfig{Addresses: []string{"http://localhost:9200"}}); err == nil {
		t.Fatal("expected error without index name")
	}
}
