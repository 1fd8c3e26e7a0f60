package corpus

import (
	"fmt"
	"strings"
	"testing"
)

const samplePageHTML = `<html><body><table>
<tr><td class="GurmukhiText">ਰਾਗੁ ਆਸਾ ਮਹਲਾ ੧ ॥</td></tr>
<tr><td class="gurmukhitext">ਗਾਵੈ ਕੋ ਤਾਣੁ ਹੋਵੈ ਕਿਸੈ ਤਾਣੁ ॥</td></tr>
<tr><td class="English">sing of power, if one has power</td></tr>
<tr><td class="GurmukhiText">ਨਾਨਕ ਗਾਵੀਐ ਗੁਣੀ ਨਿਧਾਨੁ ॥੧॥ ਰਹਾਉ ॥</td></tr>
</table></body></html>`

func TestParsePageExtractsGurmukhiCells(t *testing.T) {
	t.Parallel()

	result := ParsePage([]byte(samplePageHTML), 8)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Lines) != 3 {
		t.Fatalf("expected 3 Gurmukhi lines, got %d: %+v", len(result.Lines), result.Lines)
	}
	for i, line := range result.Lines {
		if line.Ang != 8 {
			t.Fatalf("line %d ang = %d, want 8", i, line.Ang)
		}
		if line.LineNumber != i+1 {
			t.Fatalf("line %d number = %d, want %d", i, line.LineNumber, i+1)
		}
	}
	if !result.Lines[2].Rahao {
		t.Fatalf("expected rahao flag on third line")
	}
	if result.Lines[0].Rahao {
		t.Fatalf("unexpected rahao flag on heading line")
	}
}

func TestParsePageClassCaseInsensitive(t *testing.T) {
	t.Parallel()

	html := `<html><body><div CLASS="PUNJABI">ਵਾਹਿਗੁਰੂ ਜੀ</div></body></html>`
	result := ParsePage([]byte(html), 1)
	if len(result.Lines) != 1 {
		t.Fatalf("expected 1 line despite class casing, got %+v", result)
	}
}

func TestParsePageFallbackCellWalk(t *testing.T) {
	t.Parallel()

	// No recognizable class names; the loose cell walk takes over.
	html := `<html><body><table>
<tr><td>ਗਾਵੈ ਕੋ ਤਾਣੁ</td></tr>
<tr><td>42</td></tr>
<tr><td>੧</td></tr>
</table></body></html>`
	result := ParsePage([]byte(html), 2)
	if len(result.Lines) != 1 {
		t.Fatalf("expected only the Gurmukhi-dominant cell, got %+v", result.Lines)
	}
	if result.Lines[0].GurmukhiRaw != "ਗਾਵੈ ਕੋ ਤਾਣੁ" {
		t.Fatalf("unexpected line text %q", result.Lines[0].GurmukhiRaw)
	}
}

func TestParsePageEmptyIsErrorNotPanic(t *testing.T) {
	t.Parallel()

	result := ParsePage([]byte("<html><body><p>nothing here</p></body></html>"), 5)
	if len(result.Lines) != 0 {
		t.Fatalf("expected no lines, got %+v", result.Lines)
	}
	if len(result.Errors) != 1 || result.Errors[0].Kind != ErrKindSelectorFail {
		t.Fatalf("expected a selector failure error, got %+v", result.Errors)
	}
}

func TestParsePageDetectsAuthorAndShabads(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<div class="gurbani">ਆਸਾ ਮਹਲਾ ੫ ॥</div>
<div class="gurbani">ਗਾਵੈ ਕੋ ਤਾਣੁ ॥</div>
<div class="gurbani">ਆਸਾ ਮਹਲਾ ੩ ॥</div>
<div class="gurbani">ਨਾਨਕ ਗਾਵੀਐ ॥</div>
</body></html>`
	result := ParsePage([]byte(html), 347)
	if len(result.Lines) != 4 {
		t.Fatalf("expected 4 lines, got %+v", result.Lines)
	}
	if result.Lines[0].Author != "M5" || result.Lines[1].Author != "M5" {
		t.Fatalf("expected M5 carried forward, got %q %q", result.Lines[0].Author, result.Lines[1].Author)
	}
	if result.Lines[2].Author != "M3" {
		t.Fatalf("expected author change at second heading, got %q", result.Lines[2].Author)
	}
	if result.Lines[0].ShabadSeq != 1 || result.Lines[2].ShabadSeq != 2 {
		t.Fatalf("expected shabad boundaries at headings, got %d and %d",
			result.Lines[0].ShabadSeq, result.Lines[2].ShabadSeq)
	}
	if result.Lines[1].ShabadSeq != 1 {
		t.Fatalf("expected line between headings to stay in first shabad")
	}
}

func TestToCanonicalRecords(t *testing.T) {
	t.Parallel()

	parsed := ParsePage([]byte(samplePageHTML), 8)
	cfg := DefaultNormalization()
	records := ToCanonicalRecords(parsed, func(s string) string { return Normalize(s, cfg) })

	if len(records) != len(parsed.Lines) {
		t.Fatalf("expected one record per line")
	}
	seen := map[string]bool{}
	for i, rec := range records {
		if rec.SchemaVersion != SchemaVersion {
			t.Fatalf("record %d schema version %q", i, rec.SchemaVersion)
		}
		wantID := fmt.Sprintf("8:%d", i+1)
		if rec.LineID != wantID {
			t.Fatalf("record %d line_id = %q, want %q", i, rec.LineID, wantID)
		}
		if seen[rec.LineUID] {
			t.Fatalf("duplicate line_uid %s", rec.LineUID)
		}
		seen[rec.LineUID] = true
		if rec.LineUID != ComputeLineUID(8, rec.LineID, rec.Gurmukhi) {
			t.Fatalf("record %d uid does not re-derive", i)
		}
		if rec.Gurmukhi == "" || rec.GurmukhiRaw == "" {
			t.Fatalf("record %d missing text fields", i)
		}
		if !strings.Contains(rec.SourceURL, "Param=8") {
			t.Fatalf("record %d source_url = %q", i, rec.SourceURL)
		}
		if rec.Tokens == nil || rec.TokenSpans == nil {
			t.Fatalf("record %d tokens/spans must be empty, not nil", i)
		}
	}
	if !records[2].Meta.Rahao {
		t.Fatalf("rahao flag lost in canonical record")
	}
	if records[0].Meta.ShabadUID == "" {
		t.Fatalf("expected shabad uid once a heading was seen")
	}
	if records[0].Meta.ShabadUID != records[1].Meta.ShabadUID {
		t.Fatalf("lines of one shabad must share a shabad uid")
	}
}
