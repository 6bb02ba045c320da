// Package tempfs provides a test helper for materializing file trees in a
// temporary directory.
package tempfs

import (
	"os"
	"path/filepath"
	"testing"
)

// WithTempFS creates a temporary directory tree populated with the given
// files and invokes f with its root. Paths may use '/' separators and a
// leading slash; both are interpreted relative to the root. The tree is
// removed when the test finishes.
func WithTempFS(t *testing.T, files map[string]string, f func(t *testing.T, root string)) {
	t.Helper()

	root := t.TempDir()
	for path, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	f(t, root)
}
