package docstore

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/spf13/afero"
)

// Filesystem serves documents from a directory tree. Keys are slash-separated
// paths relative to root, e.g. "html/page-1.html".
type Filesystem struct {
	fs   afero.Fs
	root string
}

// NewFilesystem creates a store rooted at root on fs.
func NewFilesystem(fs afero.Fs, root string) *Filesystem {
	return &Filesystem{fs: fs, root: root}
}

// NewLocal creates a store over the operating system filesystem.
func NewLocal(root string) *Filesystem {
	return NewFilesystem(afero.NewOsFs(), root)
}

func (f *Filesystem) List(_ context.Context, namespace string) ([]string, error) {
	entries, err := afero.ReadDir(f.fs, f.abs(namespace))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", namespace, err)
	}
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		keys = append(keys, path.Join(namespace, entry.Name()))
	}
	return keys, nil
}

func (f *Filesystem) Exists(_ context.Context, key string) (bool, error) {
	ok, err := afero.Exists(f.fs, f.abs(key))
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return ok, nil
}

func (f *Filesystem) Read(_ context.Context, key string) ([]byte, error) {
	content, err := afero.ReadFile(f.fs, f.abs(key))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return content, nil
}

func (f *Filesystem) abs(key string) string {
	return filepath.Join(f.root, filepath.FromSlash(key))
}
