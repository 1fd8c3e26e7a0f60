package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gurmukhi-data/granth-corpus/internal/corpus"
	"github.com/gurmukhi-data/granth-corpus/internal/metrics"
	"github.com/gurmukhi-data/granth-corpus/internal/storage/local"
)

// Output artifact names.
const (
	CorpusFileName     = "granth_lines.jsonl"
	ValidationFileName = "validation_report.json"
	ManifestFileName   = "run_manifest.json"
)

// BuildConfig controls one corpus build.
type BuildConfig struct {
	OutputDir     string
	ConfigPath    string // hashed into the manifest when set
	AngStart      int    // 0 = no lower bound
	AngEnd        int    // 0 = no upper bound
	Workers       int    // page-level parallelism; 1 = sequential
	Normalization corpus.NormalizationConfig
	Errors        ErrorConfig
}

// BuildSummary reports the outcome of a corpus build.
type BuildSummary struct {
	TotalLines  int
	TotalAngs   int
	Verdict     string
	OutputFiles []string
}

// pageOutput is the result of processing one ang, aggregated in ang
// order after the parallel stage so output is byte-identical to a
// sequential run.
type pageOutput struct {
	ang     int
	records []corpus.CanonicalRecord
	errors  []corpus.ParseError
}

// RunBuild executes the full corpus build: discover stored pages, parse
// each into raw lines, normalize, tokenize, validate, and write the
// corpus JSONL plus validation report and run manifest.
//
// Page-level failures are recorded and skipped; the returned error is
// reserved for fatal conditions: no extractable input, the error
// threshold, or an unwritable output.
func RunBuild(ctx context.Context, store *local.PageStore, cfg BuildConfig, logger *zap.Logger) (*BuildSummary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	manifest := NewManifest("corpus")
	if err := manifest.RecordConfig(cfg.ConfigPath); err != nil {
		return nil, err
	}
	if err := manifest.RecordInput(store.Dir()); err != nil {
		return nil, err
	}
	manifest.SetVersions(map[string]any{
		"parser":     corpus.ParserVersion,
		"normalizer": corpus.NormalizerVersion,
		"tokenizer":  corpus.TokenizerVersion,
	})

	angs, paths, err := discoverPages(store, cfg.AngStart, cfg.AngEnd)
	if err != nil {
		return nil, err
	}
	if len(angs) == 0 {
		return nil, &FatalError{
			Kind:    "NO_INPUT",
			Phase:   "corpus",
			Message: fmt.Sprintf("no ang HTML files found under %s", store.Dir()),
		}
	}
	logger.Info("corpus build starting",
		zap.Int("angs", len(angs)),
		zap.Int("workers", cfg.Workers),
	)

	outputs, err := processPages(ctx, angs, paths, cfg)
	if err != nil {
		return nil, err
	}

	coll := NewCollector("corpus", cfg.Errors, logger)
	records, err := aggregate(outputs, coll)
	if err != nil {
		// Threshold abort: still flush the itemized error files so the
		// failure can be diagnosed.
		_, _ = coll.Finalize(cfg.OutputDir)
		return nil, err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	corpusPath := filepath.Join(cfg.OutputDir, CorpusFileName)
	if err := writeJSONL(records, corpusPath); err != nil {
		return nil, err
	}
	if err := manifest.RecordOutput(corpusPath); err != nil {
		return nil, err
	}
	metrics.LinesEmitted(len(records))

	report, err := ValidateCorpus(records, cfg.Normalization, coll, logger)
	if err != nil {
		_, _ = coll.Finalize(cfg.OutputDir)
		return nil, err
	}
	reportPath := filepath.Join(cfg.OutputDir, ValidationFileName)
	if err := report.Write(reportPath); err != nil {
		return nil, err
	}
	if err := manifest.RecordOutput(reportPath); err != nil {
		return nil, err
	}

	summary, err := coll.Finalize(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	manifest.SetErrorSummary(summary)
	manifest.SetRecordCounts(map[string]int{
		"total_lines": len(records),
		"total_angs":  len(angs),
	})
	manifestPath := filepath.Join(cfg.OutputDir, ManifestFileName)
	if _, err := manifest.Finalize(manifestPath); err != nil {
		return nil, err
	}

	logger.Info("corpus build finished",
		zap.Int("lines", len(records)),
		zap.Int("angs", len(angs)),
		zap.String("verdict", report.Verdict),
	)

	return &BuildSummary{
		TotalLines:  len(records),
		TotalAngs:   len(angs),
		Verdict:     report.Verdict,
		OutputFiles: []string{corpusPath, reportPath, manifestPath},
	}, nil
}

func discoverPages(store *local.PageStore, angStart, angEnd int) ([]int, map[int]string, error) {
	pages, err := store.List()
	if err != nil {
		return nil, nil, err
	}
	angs := make([]int, 0, len(pages))
	for ang := range pages {
		if angStart > 0 && ang < angStart {
			continue
		}
		if angEnd > 0 && ang > angEnd {
			continue
		}
		angs = append(angs, ang)
	}
	sort.Ints(angs)
	return angs, pages, nil
}

// processPages runs the parse/normalize/tokenize stages with bounded
// parallelism. Each ang is independent; results land in fixed slots so
// aggregation order never depends on scheduling.
func processPages(ctx context.Context, angs []int, paths map[int]string, cfg BuildConfig) ([]pageOutput, error) {
	outputs := make([]pageOutput, len(angs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, ang := range angs {
		i, ang := i, ang
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			html, err := os.ReadFile(paths[ang])
			if err != nil {
				outputs[i] = pageOutput{ang: ang, errors: []corpus.ParseError{{
					Kind:    "PAGE_READ_FAILED",
					Message: err.Error(),
					Ang:     ang,
				}}}
				return nil
			}
			outputs[i] = processPage(html, ang, cfg.Normalization)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("page processing: %w", err)
	}
	return outputs, nil
}

// processPage runs one ang through parse, normalize, and tokenize.
func processPage(html []byte, ang int, normCfg corpus.NormalizationConfig) pageOutput {
	parsed := corpus.ParsePage(html, ang)
	if len(parsed.Errors) > 0 {
		metrics.PageParsed("error")
		return pageOutput{ang: ang, errors: parsed.Errors}
	}

	records := corpus.ToCanonicalRecords(parsed, func(raw string) string {
		return corpus.Normalize(raw, normCfg)
	})
	for i := range records {
		tok := corpus.Tokenize(records[i].Gurmukhi)
		if tok.Tokens != nil {
			records[i].Tokens = tok.Tokens
			records[i].TokenSpans = tok.TokenSpans
		}
		if tok.StructuralMarkers != nil {
			records[i].Meta.StructuralMarkers = tok.StructuralMarkers
		}
	}
	metrics.PageParsed("ok")
	return pageOutput{ang: ang, records: records}
}

// aggregate walks the page outputs in ang order, feeding page failures
// through the collector (which may abort the run) and concatenating the
// surviving records.
func aggregate(outputs []pageOutput, coll *Collector) ([]corpus.CanonicalRecord, error) {
	var records []corpus.CanonicalRecord
	for _, out := range outputs {
		for _, parseErr := range out.errors {
			err := coll.RecordError(parseErr.Kind, parseErr.Message, "",
				map[string]any{"ang": parseErr.Ang})
			if err != nil {
				return nil, err
			}
		}
		records = append(records, out.records...)
	}
	return records, nil
}

func writeJSONL(records []corpus.CanonicalRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create corpus file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode record %s: %w", rec.LineUID, err)
		}
	}
	return nil
}
