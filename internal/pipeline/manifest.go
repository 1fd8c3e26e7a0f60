package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	hashing "github.com/gurmukhi-data/granth-corpus/internal/hash/sha256"
)

// GeneratorVersion identifies the pipeline build that produced a
// manifest.
const GeneratorVersion = "0.3.0"

// Manifest records exactly what a run did: inputs and outputs by
// content hash, record counts, error summary and wall-clock time. It is
// the provenance anchor for reproducing or auditing a corpus build.
type Manifest struct {
	SchemaVersion    string            `json:"schema_version"`
	RunID            string            `json:"run_id"`
	Phase            string            `json:"phase"`
	GeneratorVersion string            `json:"generator_version"`
	GeneratedAt      time.Time         `json:"generated_at"`
	WallClockSeconds float64           `json:"wall_clock_seconds"`
	ConfigHash       string            `json:"config_hash,omitempty"`
	InputHashes      map[string]string `json:"input_hashes,omitempty"`
	OutputHashes     map[string]string `json:"output_artifact_hashes,omitempty"`
	RecordCounts     map[string]int    `json:"record_counts,omitempty"`
	ErrorSummary     *ErrorSummary     `json:"error_summary,omitempty"`
	Extra            map[string]any    `json:"pipeline_versions,omitempty"`
}

// ManifestBuilder accumulates provenance during a run and writes the
// manifest once at the end.
type ManifestBuilder struct {
	manifest Manifest
	started  time.Time
}

// NewManifest starts a manifest for the named phase with a fresh run id.
func NewManifest(phase string) *ManifestBuilder {
	return &ManifestBuilder{
		manifest: Manifest{
			SchemaVersion:    "1.0.0",
			RunID:            uuid.NewString(),
			Phase:            phase,
			GeneratorVersion: GeneratorVersion,
			GeneratedAt:      time.Now().UTC(),
			InputHashes:      make(map[string]string),
			OutputHashes:     make(map[string]string),
			RecordCounts:     make(map[string]int),
		},
		started: time.Now(),
	}
}

// RecordConfig hashes the configuration file the run was built from.
func (b *ManifestBuilder) RecordConfig(path string) error {
	if path == "" {
		return nil
	}
	h, err := hashing.HashFile(path)
	if err != nil {
		return fmt.Errorf("hash config: %w", err)
	}
	b.manifest.ConfigHash = h
	return nil
}

// RecordInput hashes an input file or directory under its base name.
func (b *ManifestBuilder) RecordInput(path string) error {
	h, err := hashPath(path)
	if err != nil {
		return fmt.Errorf("hash input: %w", err)
	}
	b.manifest.InputHashes[filepath.Base(path)] = h
	return nil
}

// RecordOutput hashes an output artifact under its base name.
func (b *ManifestBuilder) RecordOutput(path string) error {
	h, err := hashing.HashFile(path)
	if err != nil {
		return fmt.Errorf("hash output: %w", err)
	}
	b.manifest.OutputHashes[filepath.Base(path)] = h
	return nil
}

// SetRecordCounts merges the given counts into the manifest.
func (b *ManifestBuilder) SetRecordCounts(counts map[string]int) {
	for k, v := range counts {
		b.manifest.RecordCounts[k] = v
	}
}

// SetErrorSummary attaches the finalized error accumulator state.
func (b *ManifestBuilder) SetErrorSummary(summary ErrorSummary) {
	b.manifest.ErrorSummary = &summary
}

// SetVersions records component versions (parser, normalizer,
// tokenizer) for provenance.
func (b *ManifestBuilder) SetVersions(versions map[string]any) {
	b.manifest.Extra = versions
}

// Finalize stamps the wall clock, writes the manifest JSON to path, and
// returns the built manifest.
func (b *ManifestBuilder) Finalize(path string) (Manifest, error) {
	b.manifest.WallClockSeconds = time.Since(b.started).Seconds()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return Manifest{}, fmt.Errorf("create manifest dir: %w", err)
	}
	data, err := json.MarshalIndent(b.manifest, "", "  ")
	if err != nil {
		return Manifest{}, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return Manifest{}, fmt.Errorf("write manifest: %w", err)
	}
	return b.manifest, nil
}

func hashPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return hashing.HashDir(path)
	}
	return hashing.HashFile(path)
}
