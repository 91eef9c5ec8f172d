package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/qepting91/spacetraveling/internal/domain"
)

// SiteWriter writes generated files below Dir.
type SiteWriter struct {
	Dir string
}

// WriteFile writes body to rel inside Dir, creating parent directories. The
// file is written to a temporary name first and renamed into place.
func (s *SiteWriter) WriteFile(rel string, body []byte) error {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes output directory", rel)
	}

	path := filepath.Join(s.Dir, clean)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", rel, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", rel, err)
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", rel, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("chmod %s: %w", rel, err)
	}
	return os.Rename(tmp.Name(), path)
}

// ManifestWriter drains a channel of post stats into an NDJSON file.
type ManifestWriter struct {
	FilePath string

	mu  sync.Mutex
	err error
}

// Start truncates FilePath and writes one line per record until input is
// closed. Call Err after wg is done.
func (w *ManifestWriter) Start(wg *sync.WaitGroup, input <-chan domain.PostStat) {
	defer wg.Done()

	f, err := os.OpenFile(w.FilePath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		w.setErr(err)
		for range input {
		}
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			w.setErr(err)
		}
	}()

	enc := json.NewEncoder(f)
	for stat := range input {
		if err := enc.Encode(stat); err != nil {
			w.setErr(err)
		}
	}
}

func (w *ManifestWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *ManifestWriter) setErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}
