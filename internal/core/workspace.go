package core

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/JonMunkholm/tabstat/internal/dataset"
)

// Workspace is the directory where uploads are staged while they are
// analyzed. Each upload gets its own uniquely named file, so concurrent
// requests never share or overwrite a working copy.
type Workspace struct {
	dir      string
	compress bool
}

// NewWorkspace creates dir if needed. When compress is true, working copies
// are stored zstd-compressed.
func NewWorkspace(dir string, compress bool) (*Workspace, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Workspace{dir: dir, compress: compress}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// WorkingCopy is one staged upload.
type WorkingCopy struct {
	ID         uuid.UUID
	Path       string
	Format     dataset.Format
	Size       int64 // uncompressed bytes
	compressed bool
}

// Stage copies r into a new working copy named <uuid>.<ext>[.zst].
// The file is created exclusively; a partially written copy is removed.
func (w *Workspace) Stage(r io.Reader, format dataset.Format) (*WorkingCopy, error) {
	id := uuid.New()
	name := id.String() + "." + string(format)
	if w.compress {
		name += ".zst"
	}
	path := filepath.Join(w.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create working copy: %w", err)
	}

	n, err := writeCopy(f, r, w.compress)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write working copy: %w", err)
	}

	return &WorkingCopy{
		ID:         id,
		Path:       path,
		Format:     format,
		Size:       n,
		compressed: w.compress,
	}, nil
}

func writeCopy(dst io.Writer, src io.Reader, compress bool) (int64, error) {
	if !compress {
		return io.Copy(dst, src)
	}

	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(enc, src)
	if cerr := enc.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// ReadAll returns the original upload bytes.
func (c *WorkingCopy) ReadAll() ([]byte, error) {
	raw, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, fmt.Errorf("read working copy: %w", err)
	}
	if !c.compressed {
		return raw, nil
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	data, err := dec.DecodeAll(raw, make([]byte, 0, c.Size))
	if err != nil {
		return nil, fmt.Errorf("decompress working copy: %w", err)
	}
	return data, nil
}

// Remove deletes the working copy. Removing twice is not an error.
func (c *WorkingCopy) Remove() error {
	if err := os.Remove(c.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove working copy: %w", err)
	}
	return nil
}
