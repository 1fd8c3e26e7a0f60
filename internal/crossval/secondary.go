package crossval

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// CorpusFileSource serves a previously built corpus JSONL file as a
// secondary source, so two independent builds (different scrape dates,
// different normalization configs, or a converted third-party corpus)
// can be cross-checked offline.
type CorpusFileSource struct {
	name  string
	lines map[int][]string
}

// corpusLine is the subset of the canonical record the secondary source
// needs. Unknown fields in the JSONL are ignored.
type corpusLine struct {
	Ang      int    `json:"ang"`
	Gurmukhi string `json:"gurmukhi"`
}

// NewCorpusFileSource loads a line-delimited JSON corpus into memory.
// Lines that fail to decode are skipped rather than aborting the load;
// a secondary source being partially unreadable is a discrepancy
// finding, not a crash.
func NewCorpusFileSource(name, path string) (*CorpusFileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open secondary corpus: %w", err)
	}
	defer f.Close()

	src := &CorpusFileSource{
		name:  name,
		lines: make(map[int][]string),
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var line corpusLine
		if err := json.Unmarshal(raw, &line); err != nil {
			continue
		}
		if line.Ang > 0 {
			src.lines[line.Ang] = append(src.lines[line.Ang], line.Gurmukhi)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read secondary corpus: %w", err)
	}

	return src, nil
}

// Name identifies the source in reports.
func (s *CorpusFileSource) Name() string { return s.name }

// FetchPageLines returns the lines of one ang in file order. Unknown
// angs yield an empty slice.
func (s *CorpusFileSource) FetchPageLines(_ context.Context, ang int) ([]string, error) {
	return s.lines[ang], nil
}
