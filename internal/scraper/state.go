package scraper

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const stateFileName = "scrape_state.json"

// State tracks scrape progress on disk so an interrupted run can resume.
type State struct {
	path string

	Completed []int          `json:"completed"`
	Failed    map[int]string `json:"failed"`
	UpdatedAt time.Time      `json:"updated_at"`

	completedSet map[int]struct{}
}

// NewState creates a State persisted under dir.
func NewState(dir string) *State {
	return &State{
		path:         filepath.Join(dir, stateFileName),
		Failed:       make(map[int]string),
		completedSet: make(map[int]struct{}),
	}
}

// Load reads prior state if present. A missing file is a fresh start,
// not an error.
func (s *State) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read scrape state: %w", err)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("decode scrape state: %w", err)
	}
	if s.Failed == nil {
		s.Failed = make(map[int]string)
	}
	s.completedSet = make(map[int]struct{}, len(s.Completed))
	for _, ang := range s.Completed {
		s.completedSet[ang] = struct{}{}
	}
	return nil
}

// MarkCompleted records a successfully stored ang and clears any prior
// failure for it.
func (s *State) MarkCompleted(ang int) {
	if _, done := s.completedSet[ang]; done {
		return
	}
	s.completedSet[ang] = struct{}{}
	s.Completed = append(s.Completed, ang)
	sort.Ints(s.Completed)
	delete(s.Failed, ang)
}

// MarkFailed records the latest failure reason for an ang.
func (s *State) MarkFailed(ang int, reason string) {
	s.Failed[ang] = reason
}

// IsCompleted reports whether ang was already fetched in this or a
// prior run.
func (s *State) IsCompleted(ang int) bool {
	_, done := s.completedSet[ang]
	return done
}

// Save writes the state file.
func (s *State) Save() error {
	s.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scrape state: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write scrape state: %w", err)
	}
	return nil
}
