package crossval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/gurmukhi-data/granth-corpus/internal/corpus"
)

type mapSource struct {
	name  string
	pages map[int][]string
	fail  map[int]bool
}

func (s *mapSource) Name() string { return s.name }

func (s *mapSource) FetchPageLines(_ context.Context, ang int) ([]string, error) {
	if s.fail[ang] {
		return nil, errors.New("source unavailable")
	}
	return s.pages[ang], nil
}

func testRecords(pages map[int][]string) []corpus.CanonicalRecord {
	var records []corpus.CanonicalRecord
	for ang, lines := range pages {
		for i, text := range lines {
			records = append(records, corpus.CanonicalRecord{
				Ang:      ang,
				LineID:   fmt.Sprintf("%d:%d", ang, i+1),
				Gurmukhi: text,
			})
		}
	}
	return records
}

func TestRunIdenticalSources(t *testing.T) {
	t.Parallel()

	pages := map[int][]string{
		1: {"ਸਤਿ ਨਾਮੁ", "ਕਰਤਾ ਪੁਰਖੁ"},
		2: {"ਨਿਰਭਉ ਨਿਰਵੈਰੁ"},
		3: {"ਅਕਾਲ ਮੂਰਤਿ"},
	}
	secondary := &mapSource{name: "mirror", pages: pages}

	report, err := Run(context.Background(), testRecords(pages), secondary, Options{
		SampleSize: 10,
		TotalAngs:  3,
		Rng:        rand.New(rand.NewSource(1)),
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.AngsSampled != 3 {
		t.Fatalf("expected all 3 angs sampled, got %d", report.AngsSampled)
	}
	if report.TotalLinesCompared != 4 || report.TotalMatches != 4 {
		t.Fatalf("expected 4/4 matches, got %d/%d", report.TotalMatches, report.TotalLinesCompared)
	}
	if report.TotalDiscrepancies != 0 || len(report.Discrepancies) != 0 {
		t.Fatalf("expected no discrepancies, got %+v", report.Discrepancies)
	}
	if report.MatchRate != 1.0 {
		t.Fatalf("expected match rate 1.0, got %v", report.MatchRate)
	}
	if report.SourceSecondary != "mirror" {
		t.Fatalf("source_secondary = %q", report.SourceSecondary)
	}
}

func TestRunClassifiesAndCounts(t *testing.T) {
	t.Parallel()

	primary := map[int][]string{
		1: {"ਸਤਿ ਨਾਮੁ", "ਸਿੰਘ", "ਵਾਹਿਗੁਰੂ"},
	}
	secondary := &mapSource{name: "other", pages: map[int][]string{
		1: {"ਸਤਿ ਨਾਮੁ", "ਸਿਂਘ"},
	}}

	report, err := Run(context.Background(), testRecords(primary), secondary, Options{
		SampleSize: 5,
		TotalAngs:  1,
		Rng:        rand.New(rand.NewSource(1)),
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.TotalLinesCompared != 3 || report.TotalMatches != 1 {
		t.Fatalf("expected 1/3 matches, got %d/%d", report.TotalMatches, report.TotalLinesCompared)
	}
	if report.DiscrepancyBreakdown[NasalOnly] != 1 {
		t.Fatalf("expected one nasal_only, got %v", report.DiscrepancyBreakdown)
	}
	if report.DiscrepancyBreakdown[MissingLine] != 1 {
		t.Fatalf("expected one missing_line, got %v", report.DiscrepancyBreakdown)
	}
	if report.MatchRate != 0.3333 {
		t.Fatalf("expected rounded match rate 0.3333, got %v", report.MatchRate)
	}
}

func TestRunSkipsFailedFetches(t *testing.T) {
	t.Parallel()

	pages := map[int][]string{1: {"ਸਤਿ"}, 2: {"ਨਾਮੁ"}}
	secondary := &mapSource{name: "flaky", pages: pages, fail: map[int]bool{2: true}}

	report, err := Run(context.Background(), testRecords(pages), secondary, Options{
		SampleSize: 5,
		TotalAngs:  2,
		Rng:        rand.New(rand.NewSource(1)),
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("fetch failure must not abort the run: %v", err)
	}
	if report.TotalLinesCompared != 1 {
		t.Fatalf("expected only ang 1 compared, got %d lines", report.TotalLinesCompared)
	}
	if len(report.AngsFetchFailed) != 1 || report.AngsFetchFailed[0] != 2 {
		t.Fatalf("expected ang 2 recorded as failed, got %v", report.AngsFetchFailed)
	}
}

func TestRunRequiresRng(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), nil, &mapSource{name: "x"}, Options{
		SampleSize: 1,
		TotalAngs:  1,
	}, zap.NewNop())
	if err == nil {
		t.Fatalf("expected error when rng is missing")
	}
}

func TestRunEmptyCorpusZeroRate(t *testing.T) {
	t.Parallel()

	secondary := &mapSource{name: "empty", pages: map[int][]string{}}
	report, err := Run(context.Background(), nil, secondary, Options{
		SampleSize: 3,
		TotalAngs:  3,
		Rng:        rand.New(rand.NewSource(1)),
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.TotalLinesCompared != 0 || report.MatchRate != 0.0 {
		t.Fatalf("expected zero lines and 0.0 rate, got %+v", report)
	}
}

func TestReportWrite(t *testing.T) {
	t.Parallel()

	report := &Report{
		SourcePrimary:        "srigranth",
		SourceSecondary:      "mirror",
		AngsSampled:          1,
		TotalLinesCompared:   2,
		TotalMatches:         2,
		MatchRate:            1.0,
		DiscrepancyBreakdown: map[DiscrepancyType]int{},
		Discrepancies:        []LineComparison{},
	}
	path := filepath.Join(t.TempDir(), "reports", "crossval.json")
	if err := report.Write(path); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded.MatchRate != 1.0 || decoded.SourceSecondary != "mirror" {
		t.Fatalf("round-trip mismatch: %+v", decoded)
	}
}

func TestCorpusFileSource(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "secondary.jsonl")
	content := `{"ang":1,"gurmukhi":"ਸਤਿ ਨਾਮੁ"}
{"ang":1,"gurmukhi":"ਕਰਤਾ ਪੁਰਖੁ"}
not json at all
{"ang":2,"gurmukhi":"ਨਿਰਭਉ"}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	src, err := NewCorpusFileSource("mirror", path)
	if err != nil {
		t.Fatalf("NewCorpusFileSource() error = %v", err)
	}
	if src.Name() != "mirror" {
		t.Fatalf("Name() = %q", src.Name())
	}

	lines, err := src.FetchPageLines(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchPageLines() error = %v", err)
	}
	if len(lines) != 2 || lines[0] != "ਸਤਿ ਨਾਮੁ" {
		t.Fatalf("ang 1 lines = %v", lines)
	}

	missing, err := src.FetchPageLines(context.Background(), 99)
	if err != nil || len(missing) != 0 {
		t.Fatalf("unknown ang should yield empty slice, got %v, %v", missing, err)
	}
}

func TestCorpusFileSourceMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := NewCorpusFileSource("x", filepath.Join(t.TempDir(), "absent.jsonl")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
