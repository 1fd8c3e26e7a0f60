package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/gurmukhi-data/granth-corpus/internal/storage/local"
)

func testConfig(serverURL string, angStart, angEnd int) Config {
	return Config{
		UserAgent:  "granth-corpus-test",
		URLPattern: serverURL + "/page/%d",
		AngStart:   angStart,
		AngEnd:     angEnd,
		MaxRetries: 1,
	}
}

func newStore(t *testing.T) *local.PageStore {
	t.Helper()
	store, err := local.New(filepath.Join(t.TempDir(), "raw_html"))
	if err != nil {
		t.Fatalf("local.New() error = %v", err)
	}
	return store
}

func TestScraperFetchesRange(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprintf(w, `<html><body><td class="GurmukhiText">ਸਤਿ ਨਾਮੁ %s</td></body></html>`, r.URL.Path)
	}))
	defer server.Close()

	store := newStore(t)
	s, err := New(testConfig(server.URL, 1, 3), store, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Fetched != 3 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if hits.Load() != 3 {
		t.Fatalf("expected 3 requests, got %d", hits.Load())
	}
	for ang := 1; ang <= 3; ang++ {
		if !store.Has(ang) {
			t.Fatalf("ang %d not stored", ang)
		}
	}
	html, err := store.Get(2)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !strings.Contains(string(html), "/page/2") {
		t.Fatalf("wrong body stored for ang 2: %s", html)
	}
}

func TestScraperSkipsStoredPages(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "<html><body>ਸਤਿ</body></html>")
	}))
	defer server.Close()

	store := newStore(t)
	if _, err := store.Put(1, []byte("cached")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	s, err := New(testConfig(server.URL, 1, 2), store, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Skipped != 1 || summary.Fetched != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if hits.Load() != 1 {
		t.Fatalf("cached ang was re-fetched, %d hits", hits.Load())
	}
	if got, _ := store.Get(1); string(got) != "cached" {
		t.Fatalf("cached page overwritten: %q", got)
	}
}

func TestScraperStopsAfterRepeatedForbidden(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	store := newStore(t)
	cfg := testConfig(server.URL, 1, 10)
	cfg.ForbiddenLimit = 2
	cfg.MaxRetries = 0

	s, err := New(cfg, store, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	summary, err := s.Run(context.Background())
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if summary.Failed != 2 {
		t.Fatalf("expected stop after 2 refusals, summary = %+v", summary)
	}
}

func TestScraperRecordsFailuresAndContinues(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/2") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "<html><body>ਸਤਿ</body></html>")
	}))
	defer server.Close()

	store := newStore(t)
	s, err := New(testConfig(server.URL, 1, 3), store, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("a 500 must not abort the run: %v", err)
	}
	if summary.Fetched != 2 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	state := NewState(store.Dir())
	if err := state.Load(); err != nil {
		t.Fatalf("state load: %v", err)
	}
	if _, failed := state.Failed[2]; !failed {
		t.Fatalf("failure for ang 2 not persisted: %+v", state.Failed)
	}
	if !state.IsCompleted(1) || !state.IsCompleted(3) {
		t.Fatalf("completed angs not persisted: %v", state.Completed)
	}
}

func TestScraperRejectsInvalidRange(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{AngStart: 5, AngEnd: 1}, newStore(t), zap.NewNop()); err == nil {
		t.Fatalf("expected error for inverted range")
	}
}
