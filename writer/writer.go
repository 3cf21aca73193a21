// Package writer - Writes export artifacts below a result directory.
package writer

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/nvr-ai/go-cityscapes/images"
	"github.com/pkg/errors"
)

// FS writes files below Root. Paths passed to its methods are slash-separated
// and relative to Root; missing directories are created.
type FS struct {
	Root string
}

// NewFS creates a writer rooted at root.
func NewFS(root string) *FS {
	return &FS{Root: root}
}

// WriteMask encodes m as PNG and writes it to path.
func (w *FS) WriteMask(path string, m *images.Mask) error {
	if m == nil {
		return errors.Errorf("write %s: mask is nil", path)
	}
	data, err := m.EncodePNG()
	if err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return w.write(path, data)
}

// WriteJSON writes v as indented JSON.
func (w *FS) WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	return w.write(path, append(data, '\n'))
}

// WriteImage writes already-encoded image bytes.
func (w *FS) WriteImage(path string, data []byte) error {
	return w.write(path, data)
}

func (w *FS) write(path string, data []byte) error {
	full := filepath.Join(w.Root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
