// Package corpus implements canonicalization of scraped Gurmukhi pages:
// HTML line extraction, text normalization, offset-accurate tokenization
// and deterministic identifier generation.
package corpus

// SchemaVersion is written into every canonical record and checked by the
// corpus validator before downstream phases may consume the corpus.
const SchemaVersion = "1.0.0"

// Span is a [start, end) rune-offset pair into the normalized gurmukhi
// string. It marshals as a two-element JSON array.
type Span [2]int

// Start returns the inclusive rune offset of the span.
func (s Span) Start() int { return s[0] }

// End returns the exclusive rune offset of the span.
func (s Span) End() int { return s[1] }

// LineMeta carries per-line structural metadata extracted by the parser
// and the tokenizer.
type LineMeta struct {
	StructuralMarkers []string `json:"structural_markers"`
	Rahao             bool     `json:"rahao,omitempty"`
	Raga              string   `json:"raga,omitempty"`
	Author            string   `json:"author,omitempty"`
	Pauri             int      `json:"pauri,omitempty"`
	ShabadUID         string   `json:"shabad_uid,omitempty"`
}

// CanonicalRecord is one scripture line in its persisted form, one JSON
// object per line of the corpus JSONL file. Records are value objects:
// built once, never mutated after construction.
type CanonicalRecord struct {
	SchemaVersion string   `json:"schema_version"`
	Ang           int      `json:"ang"`
	LineID        string   `json:"line_id"`
	LineUID       string   `json:"line_uid"`
	GurmukhiRaw   string   `json:"gurmukhi_raw"`
	Gurmukhi      string   `json:"gurmukhi"`
	Tokens        []string `json:"tokens"`
	TokenSpans    []Span   `json:"token_spans"`
	Meta          LineMeta `json:"meta"`
	SourceURL     string   `json:"source_url"`
}

// ParsedLine is one raw line extracted from a page's markup, before
// normalization. It is an intermediate form consumed by
// ToCanonicalRecords and never persisted.
type ParsedLine struct {
	Ang         int
	LineNumber  int // 1-based within the ang
	GurmukhiRaw string
	Rahao       bool
	Raga        string
	Author      string
	Pauri       int
	ShabadSeq   int    // ordinal of the shabad grouping on this ang, 0 = none detected
	ShabadKey   string // boundary line_id of the grouping, "" = none detected
}

// ParseError describes a page-level extraction failure. Extraction
// failures are local: the page yields zero records and the run continues.
type ParseError struct {
	Kind    string `json:"error_type"`
	Message string `json:"message"`
	Ang     int    `json:"ang"`
}

// PageParseResult is the transient output of parsing one ang's markup.
type PageParseResult struct {
	Ang    int
	Lines  []ParsedLine
	Raga   string
	Errors []ParseError
}
