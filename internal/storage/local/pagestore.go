// Package local implements a local filesystem store for raw ang HTML.
package local

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var angFileName = regexp.MustCompile(`^ang_(\d+)\.html$`)

// PageStore persists one HTML file per ang under a base directory. The
// scraper writes into it; the corpus pipeline reads from it.
type PageStore struct {
	baseDir string
}

// New creates a PageStore rooted at baseDir, creating the directory and
// verifying writability up front so failures surface at startup rather
// than mid-run.
func New(baseDir string) (*PageStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(baseDir)
	switch {
	case err != nil && os.IsNotExist(err):
		if mkErr := os.MkdirAll(baseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat base directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	probe := filepath.Join(baseDir, ".writable_test")
	if err := os.WriteFile(probe, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(probe); err != nil {
		return nil, fmt.Errorf("clean up probe file: %w", err)
	}

	return &PageStore{baseDir: baseDir}, nil
}

// Dir returns the store's base directory.
func (s *PageStore) Dir() string { return s.baseDir }

func (s *PageStore) pagePath(ang int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("ang_%04d.html", ang))
}

// Put writes one ang's HTML and returns the file path.
func (s *PageStore) Put(ang int, html []byte) (string, error) {
	if ang <= 0 {
		return "", fmt.Errorf("ang must be positive, got %d", ang)
	}
	path := s.pagePath(ang)
	if err := os.WriteFile(path, html, 0o600); err != nil {
		return "", fmt.Errorf("write ang %d: %w", ang, err)
	}
	return path, nil
}

// Get reads one ang's HTML.
func (s *PageStore) Get(ang int) ([]byte, error) {
	data, err := os.ReadFile(s.pagePath(ang))
	if err != nil {
		return nil, fmt.Errorf("read ang %d: %w", ang, err)
	}
	return data, nil
}

// Has reports whether an ang has already been stored; the scraper uses
// it to resume an interrupted run.
func (s *PageStore) Has(ang int) bool {
	info, err := os.Stat(s.pagePath(ang))
	return err == nil && !info.IsDir() && info.Size() > 0
}

// List maps every stored ang number to its file path. File names that
// do not match the ang naming convention are ignored.
func (s *PageStore) List() (map[int]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	pages := make(map[int]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := angFileName.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		ang, err := strconv.Atoi(m[1])
		if err != nil || ang <= 0 {
			continue
		}
		pages[ang] = filepath.Join(s.baseDir, entry.Name())
	}
	return pages, nil
}
