// Package pipeline wires parsing, normalization, tokenization and
// validation into the corpus build, and provides the severity-tiered
// error accumulator and run-manifest provenance shared by every phase.
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/gurmukhi-data/granth-corpus/internal/metrics"
)

// Severity tiers an event by how it affects the run.
type Severity string

// FATAL aborts the run, ERROR fails one unit of work, WARNING flags an
// anomaly on a unit that still succeeded.
const (
	SeverityFatal   Severity = "FATAL"
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// ErrorRecord is one structured error or warning event, written to the
// per-phase JSONL error file.
type ErrorRecord struct {
	LineUID   string         `json:"line_uid,omitempty"`
	Phase     string         `json:"phase"`
	Severity  Severity       `json:"severity"`
	Kind      string         `json:"error_type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// FatalError signals that the pipeline cannot continue. It is returned,
// not panicked, so callers decide how to unwind.
type FatalError struct {
	Kind    string
	Message string
	Phase   string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Phase, e.Message)
}

// ErrorConfig mirrors the error_handling config section.
type ErrorConfig struct {
	// MaxRecordErrors is the ERROR count above which the run aborts.
	// Crossing it suggests a systematic problem, not isolated bad input.
	MaxRecordErrors int `mapstructure:"max_record_errors"`
	// StrictMode escalates every WARNING to an ERROR.
	StrictMode bool `mapstructure:"strict_mode"`
}

// DefaultErrorConfig matches the documented defaults.
func DefaultErrorConfig() ErrorConfig {
	return ErrorConfig{MaxRecordErrors: 100}
}

// ErrorSummary is the finalized accumulator state, embedded in the run
// manifest.
type ErrorSummary struct {
	Errors       int            `json:"errors"`
	Warnings     int            `json:"warnings"`
	WarningTypes map[string]int `json:"warning_types"`
}

// Collector accumulates errors and warnings for one pipeline phase and
// enforces the max-error threshold.
type Collector struct {
	phase  string
	cfg    ErrorConfig
	logger *zap.Logger

	errors       []ErrorRecord
	warnings     []ErrorRecord
	warningTypes map[string]int
	aborted      bool
}

// NewCollector builds a Collector for the named phase.
func NewCollector(phase string, cfg ErrorConfig, logger *zap.Logger) *Collector {
	if cfg.MaxRecordErrors <= 0 {
		cfg.MaxRecordErrors = DefaultErrorConfig().MaxRecordErrors
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		phase:        phase,
		cfg:          cfg,
		logger:       logger,
		warningTypes: make(map[string]int),
	}
}

// ErrorCount reports accumulated ERROR events.
func (c *Collector) ErrorCount() int { return len(c.errors) }

// WarningCount reports accumulated WARNING events.
func (c *Collector) WarningCount() int { return len(c.warnings) }

// RecordError accumulates one ERROR event. It returns a *FatalError
// exactly once, at the event that pushes the count past the configured
// threshold; every other call returns nil.
func (c *Collector) RecordError(kind, message, lineUID string, context map[string]any) error {
	c.errors = append(c.errors, ErrorRecord{
		LineUID:   lineUID,
		Phase:     c.phase,
		Severity:  SeverityError,
		Kind:      kind,
		Message:   message,
		Context:   context,
		Timestamp: time.Now().UTC(),
	})
	metrics.PipelineEvent(string(SeverityError))
	c.logger.Error("pipeline error",
		zap.String("phase", c.phase),
		zap.String("error_type", kind),
		zap.String("message", message),
		zap.String("line_uid", lineUID),
	)

	if len(c.errors) > c.cfg.MaxRecordErrors && !c.aborted {
		c.aborted = true
		return &FatalError{
			Kind:  "ERROR_THRESHOLD_EXCEEDED",
			Phase: c.phase,
			Message: fmt.Sprintf(
				"error count (%d) exceeds threshold (%d); aborting, this likely indicates a systematic issue",
				len(c.errors), c.cfg.MaxRecordErrors,
			),
		}
	}
	return nil
}

// RecordWarning accumulates one WARNING event. In strict mode the event
// is escalated to an ERROR and the threshold logic applies.
func (c *Collector) RecordWarning(kind, message, lineUID string, context map[string]any) error {
	if c.cfg.StrictMode {
		return c.RecordError(kind, "[strict_mode] "+message, lineUID, context)
	}

	c.warnings = append(c.warnings, ErrorRecord{
		LineUID:   lineUID,
		Phase:     c.phase,
		Severity:  SeverityWarning,
		Kind:      kind,
		Message:   message,
		Context:   context,
		Timestamp: time.Now().UTC(),
	})
	c.warningTypes[kind]++
	metrics.PipelineEvent(string(SeverityWarning))
	c.logger.Warn("pipeline warning",
		zap.String("phase", c.phase),
		zap.String("warning_type", kind),
		zap.String("message", message),
	)
	return nil
}

// Finalize writes the accumulated events to <phase>_errors.jsonl and
// <phase>_warnings.jsonl under outputDir (empty files are not created)
// and returns the summary for the run manifest. With an empty outputDir
// the events stay in memory only.
func (c *Collector) Finalize(outputDir string) (ErrorSummary, error) {
	summary := ErrorSummary{
		Errors:       len(c.errors),
		Warnings:     len(c.warnings),
		WarningTypes: c.warningTypes,
	}
	if outputDir == "" {
		return summary, nil
	}

	if err := writeRecords(filepath.Join(outputDir, c.phase+"_errors.jsonl"), c.errors); err != nil {
		return summary, err
	}
	if err := writeRecords(filepath.Join(outputDir, c.phase+"_warnings.jsonl"), c.warnings); err != nil {
		return summary, err
	}
	return summary, nil
}

func writeRecords(path string, records []ErrorRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create error dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode error record: %w", err)
		}
	}
	return nil
}
