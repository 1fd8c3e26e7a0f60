package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gurmukhi-data/granth-corpus/internal/corpus"
)

// Validation check names.
const (
	checkUniqueUID      = "unique_line_uid"
	checkNonEmpty       = "non_empty_gurmukhi"
	checkIdempotent     = "normalization_idempotent"
	checkSchemaVersion  = "schema_version"
	checkProvenance     = "provenance_fields"
	checkSpanAlignment  = "token_span_alignment"
	checkCharRepertoire = "character_repertoire"
	checkTokenCount     = "token_count_sanity"
)

// highTokenCount flags lines with implausibly many tokens; a scripture
// line rarely exceeds a couple dozen words.
const highTokenCount = 40

// ValidationReport is the quality gate between the corpus build and any
// downstream consumer. A FAIL verdict blocks downstream phases.
type ValidationReport struct {
	TotalLines   int            `json:"total_lines"`
	ChecksPassed map[string]int `json:"checks_passed"`
	ChecksFailed map[string]int `json:"checks_failed"`
	Errors       int            `json:"errors"`
	Warnings     int            `json:"warnings"`
	Verdict      string         `json:"verdict"`
}

// Write persists the report as a single JSON document.
func (r *ValidationReport) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal validation report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write validation report: %w", err)
	}
	return nil
}

// ValidateCorpus runs integrity checks over the built corpus and
// accumulates failures through the collector, so the max-error
// threshold applies here too. A returned error is always a threshold
// abort; per-record failures only flip the verdict.
func ValidateCorpus(records []corpus.CanonicalRecord, normCfg corpus.NormalizationConfig, coll *Collector, logger *zap.Logger) (*ValidationReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	report := &ValidationReport{
		TotalLines:   len(records),
		ChecksPassed: make(map[string]int),
		ChecksFailed: make(map[string]int),
		Verdict:      "PASS",
	}

	seenUIDs := make(map[string]string, len(records))

	for _, rec := range records {
		if err := validateRecord(rec, normCfg, seenUIDs, report, coll); err != nil {
			return report, err
		}
	}

	summaryCounts(report, coll)
	logger.Info("corpus validation finished",
		zap.Int("lines", report.TotalLines),
		zap.Int("errors", report.Errors),
		zap.Int("warnings", report.Warnings),
		zap.String("verdict", report.Verdict),
	)
	return report, nil
}

func validateRecord(rec corpus.CanonicalRecord, normCfg corpus.NormalizationConfig, seenUIDs map[string]string, report *ValidationReport, coll *Collector) error {
	if prev, dup := seenUIDs[rec.LineUID]; dup {
		if err := fail(report, coll, checkUniqueUID, rec.LineUID,
			fmt.Sprintf("line_uid also used by %s", prev)); err != nil {
			return err
		}
	} else {
		seenUIDs[rec.LineUID] = rec.LineID
		report.ChecksPassed[checkUniqueUID]++
	}

	if rec.Gurmukhi == "" {
		if err := fail(report, coll, checkNonEmpty, rec.LineUID, "empty gurmukhi field"); err != nil {
			return err
		}
	} else {
		report.ChecksPassed[checkNonEmpty]++
	}

	if corpus.Normalize(rec.Gurmukhi, normCfg) != rec.Gurmukhi {
		if err := fail(report, coll, checkIdempotent, rec.LineUID,
			"normalizing the stored gurmukhi changes it"); err != nil {
			return err
		}
	} else {
		report.ChecksPassed[checkIdempotent]++
	}

	if rec.SchemaVersion != corpus.SchemaVersion {
		if err := fail(report, coll, checkSchemaVersion, rec.LineUID,
			fmt.Sprintf("unsupported schema_version %q", rec.SchemaVersion)); err != nil {
			return err
		}
	} else {
		report.ChecksPassed[checkSchemaVersion]++
	}

	if rec.LineID == "" || rec.LineUID == "" || rec.SourceURL == "" {
		if err := fail(report, coll, checkProvenance, rec.LineUID, "missing provenance field"); err != nil {
			return err
		}
	} else {
		report.ChecksPassed[checkProvenance]++
	}

	if msg := spanAlignmentIssue(rec); msg != "" {
		if err := fail(report, coll, checkSpanAlignment, rec.LineUID, msg); err != nil {
			return err
		}
	} else {
		report.ChecksPassed[checkSpanAlignment]++
	}

	if ch, bad := unexpectedChar(rec.Gurmukhi); bad {
		report.ChecksFailed[checkCharRepertoire]++
		_ = coll.RecordWarning(checkCharRepertoire,
			fmt.Sprintf("unexpected character %q", ch), rec.LineUID, nil)
	} else {
		report.ChecksPassed[checkCharRepertoire]++
	}

	if len(rec.Tokens) > highTokenCount {
		_ = coll.RecordWarning("HIGH_TOKEN_COUNT",
			fmt.Sprintf("%d tokens on one line", len(rec.Tokens)), rec.LineUID, nil)
	} else {
		report.ChecksPassed[checkTokenCount]++
	}

	return nil
}

func fail(report *ValidationReport, coll *Collector, check, lineUID, detail string) error {
	report.ChecksFailed[check]++
	report.Verdict = "FAIL"
	return coll.RecordError(check, detail, lineUID, nil)
}

// spanAlignmentIssue verifies len(tokens) == len(spans), strictly
// increasing non-overlapping spans, and that every span slices back to
// its token in the normalized string.
func spanAlignmentIssue(rec corpus.CanonicalRecord) string {
	if len(rec.Tokens) != len(rec.TokenSpans) {
		return fmt.Sprintf("%d tokens vs %d spans", len(rec.Tokens), len(rec.TokenSpans))
	}
	runes := []rune(rec.Gurmukhi)
	prevEnd := 0
	for i, span := range rec.TokenSpans {
		start, end := span.Start(), span.End()
		if start < prevEnd || start >= end || end > len(runes) {
			return fmt.Sprintf("span %d [%d,%d) out of order or range", i, start, end)
		}
		if string(runes[start:end]) != rec.Tokens[i] {
			return fmt.Sprintf("span %d does not slice to token %q", i, rec.Tokens[i])
		}
		prevEnd = end
	}
	return ""
}

// unexpectedChar reports the first character outside the expected
// repertoire: the Gurmukhi block, dandas, basic Latin, and Latin-1.
func unexpectedChar(text string) (rune, bool) {
	for _, r := range text {
		switch {
		case r >= 0x0A00 && r <= 0x0A7F:
		case r == 0x0964 || r == 0x0965:
		case r >= 0x0020 && r <= 0x007F:
		case r >= 0x00A0 && r <= 0x00FF:
		default:
			return r, true
		}
	}
	return 0, false
}

// summaryCounts copies the collector totals into the report. The
// verdict is driven by the per-check failures alone; errors carried
// over from earlier phases do not flip it.
func summaryCounts(report *ValidationReport, coll *Collector) {
	report.Errors = coll.ErrorCount()
	report.Warnings = coll.WarningCount()
}
