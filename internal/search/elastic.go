package search

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticConfig locates the cluster and the document index.
type ElasticConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
	Transport http.RoundTripper
}

// Elastic is the single long-lived handle to the search cluster. It
// implements Engine for queries and the index administration used by
// reindexing.
type Elastic struct {
	client *elasticsearch.Client
	index  string
}

// NewElastic creates the client. No request is made until first use.
func NewElastic(cfg ElasticConfig) (*Elastic, error) {
	if cfg.Index == "" {
		return nil, fmt.Errorf("elastic: index name is required")
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elastic: create client: %w", err)
	}
	return &Elastic{client: client, index: cfg.Index}, nil
}

// Index returns the document index name.
func (e *Elastic) Index() string {
	return e.index
}

// Ping reports whether the cluster answers.
func (e *Elastic) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elastic ping: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elastic ping: %s", res.Status())
	}
	return nil
}

func (e *Elastic) Search(ctx context.Context, body []byte) ([]byte, error) {
	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("elastic search: %w", err)
	}
	return readResponse("search", res)
}

// DeleteIndex drops the document index. A missing index is not an error.
func (e *Elastic) DeleteIndex(ctx context.Context) error {
	res, err := e.client.Indices.Delete([]string{e.index}, e.client.Indices.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elastic delete index: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return fmt.Errorf("elastic delete index: %s", res.String())
	}
	return nil
}

// CreateIndex creates the document index from a settings body.
func (e *Elastic) CreateIndex(ctx context.Context, body []byte) error {
	res, err := e.client.Indices.Create(
		e.index,
		e.client.Indices.Create.WithContext(ctx),
		e.client.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return fmt.Errorf("elastic create index: %w", err)
	}
	_, err = readResponse("create index", res)
	return err
}

// Upsert writes doc under id, replacing any previous version.
func (e *Elastic) Upsert(ctx context.Context, id string, doc []byte) error {
	res, err := e.client.Index(
		e.index,
		bytes.NewReader(doc),
		e.client.Index.WithContext(ctx),
		e.client.Index.WithDocumentID(id),
	)
	if err != nil {
		return fmt.Errorf("elastic index %s: %w", id, err)
	}
	_, err = readResponse("index "+id, res)
	return err
}

func readResponse(op string, res *esapi.Response) ([]byte, error) {
	defer res.Body.Close()
	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("elastic %s: read body: %w", op, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("elastic %s: %s: %s", op, res.Status(), bytes.TrimSpace(payload))
	}
	return payload, nil
}
