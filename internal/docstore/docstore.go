// Package docstore reads raw crawled pages from the document storage backend.
package docstore

import "context"

// Store lists and reads raw documents. Keys are stable across calls and are
// used as search index document ids.
type Store interface {
	List(ctx context.Context, namespace string) ([]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Read(ctx context.Context, key string) ([]byte, error)
}
