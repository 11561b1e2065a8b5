package core

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/tabstat/internal/dataset"
)

func TestWorkspace_StageReadRemove(t *testing.T) {
	body := strings.Repeat("Name,Age\nAlice,30\n", 100)

	tests := []struct {
		name       string
		compress   bool
		wantSuffix string
	}{
		{"plain", false, ".csv"},
		{"compressed", true, ".csv.zst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, err := NewWorkspace(filepath.Join(t.TempDir(), "uploads"), tt.compress)
			if err != nil {
				t.Fatalf("NewWorkspace() error = %v", err)
			}

			wc, err := ws.Stage(strings.NewReader(body), dataset.FormatCSV)
			if err != nil {
				t.Fatalf("Stage() error = %v", err)
			}
			if !strings.HasSuffix(wc.Path, tt.wantSuffix) {
				t.Errorf("Path = %q, want suffix %q", wc.Path, tt.wantSuffix)
			}
			if filepath.Base(wc.Path) != wc.ID.String()+tt.wantSuffix {
				t.Errorf("Path = %q, want name derived from ID %s", wc.Path, wc.ID)
			}
			if wc.Size != int64(len(body)) {
				t.Errorf("Size = %d, want %d", wc.Size, len(body))
			}

			info, err := os.Stat(wc.Path)
			if err != nil {
				t.Fatalf("Stat() error = %v", err)
			}
			if tt.compress && info.Size() >= int64(len(body)) {
				t.Errorf("compressed size %d not smaller than %d", info.Size(), len(body))
			}

			got, err := wc.ReadAll()
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if !bytes.Equal(got, []byte(body)) {
				t.Error("ReadAll() did not return the staged bytes")
			}

			if err := wc.Remove(); err != nil {
				t.Fatalf("Remove() error = %v", err)
			}
			if _, err := os.Stat(wc.Path); !os.IsNotExist(err) {
				t.Errorf("working copy still exists after Remove(): %v", err)
			}
			if err := wc.Remove(); err != nil {
				t.Errorf("second Remove() error = %v, want nil", err)
			}
		})
	}
}

func TestWorkspace_UniqueNames(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), false)
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		wc, err := ws.Stage(strings.NewReader("a\n1\n"), dataset.FormatCSV)
		if err != nil {
			t.Fatalf("Stage() error = %v", err)
		}
		if seen[wc.Path] {
			t.Fatalf("duplicate working copy path %q", wc.Path)
		}
		seen[wc.Path] = true
	}
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestWorkspace_StageFailureLeavesNothing(t *testing.T) {
	for _, compress := range []bool{false, true} {
		dir := t.TempDir()
		ws, err := NewWorkspace(dir, compress)
		if err != nil {
			t.Fatalf("NewWorkspace() error = %v", err)
		}

		readErr := errors.New("connection reset")
		_, err = ws.Stage(io.MultiReader(strings.NewReader("a,b\n"), failingReader{readErr}), dataset.FormatCSV)
		if !errors.Is(err, readErr) {
			t.Fatalf("Stage() error = %v, want %v", err, readErr)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("ReadDir() error = %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("compress=%v: %d files left after failed Stage()", compress, len(entries))
		}
	}
}
