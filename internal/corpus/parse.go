package corpus

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParserVersion is recorded in the run manifest.
const ParserVersion = "1.0.0"

// PageURLPattern is the canonical source URL for one ang, recorded in
// every record's source_url field.
const PageURLPattern = "https://www.srigranth.org/servlet/gurbani.gurbani?Action=Page&Param=%d"

// ErrKindSelectorFail marks pages where no Gurmukhi text block was found.
const ErrKindSelectorFail = "PARSE_SELECTOR_FAIL"

var (
	gurmukhiClass = regexp.MustCompile(`(?i)gurm|punjabi|gurbani`)
	ragaWord      = regexp.MustCompile(`ਰਾਗੁ?`)

	// Mahalla (author) notation, e.g. ਮਹਲਾ ੫ or ਮਃ ੩.
	mahallaPatterns = []*regexp.Regexp{
		regexp.MustCompile(`ਮਹਲਾ\s*([੦੧੨੩੪੫੬੭੮੯]+)`),
		regexp.MustCompile(`ਮ(?:ਹ?ਲਾ|:|ਃ)\s*([੦੧੨੩੪੫੬੭੮੯]+)`),
	}

	gurmukhiNumeral = regexp.MustCompile(`[੦੧੨੩੪੫੬੭੮੯]+`)
)

// ParsePage extracts the ordered Gurmukhi lines and structural metadata
// from one ang's HTML. Malformed markup degrades to best-effort
// extraction; a page with nothing extractable yields a recorded
// ParseError, never a panic, so callers can skip it and continue.
//
// The primary strategy targets cells whose class names mark the
// Gurmukhi script block. Class values are matched case-insensitively
// and attribute quoting is handled by the HTML parser, since the source
// guarantees neither. When the primary strategy finds nothing a looser
// tree walk over table cells is tried before declaring failure.
func ParsePage(html []byte, ang int) PageParseResult {
	result := PageParseResult{Ang: ang}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		result.Errors = append(result.Errors, ParseError{
			Kind:    ErrKindSelectorFail,
			Message: fmt.Sprintf("ang %d: unreadable HTML: %v", ang, err),
			Ang:     ang,
		})
		return result
	}

	rawLines := extractGurmukhiLines(doc)
	if len(rawLines) == 0 {
		result.Errors = append(result.Errors, ParseError{
			Kind:    ErrKindSelectorFail,
			Message: fmt.Sprintf("ang %d: no Gurmukhi lines found; page structure may have changed", ang),
			Ang:     ang,
		})
		return result
	}

	var (
		currentRaga   string
		currentAuthor string
		shabadSeq     int
		shabadKey     string
	)
	for i, raw := range rawLines {
		lineNumber := i + 1

		if raga := detectRaga(raw); raga != "" {
			currentRaga = raga
			if result.Raga == "" {
				result.Raga = raga
			}
		}
		if author := detectAuthor(raw); author != "" {
			currentAuthor = author
			shabadSeq++
			shabadKey = fmt.Sprintf("%d:%d", ang, lineNumber)
		}

		result.Lines = append(result.Lines, ParsedLine{
			Ang:         ang,
			LineNumber:  lineNumber,
			GurmukhiRaw: raw,
			Rahao:       strings.Contains(raw, rahaoWord),
			Raga:        currentRaga,
			Author:      currentAuthor,
			Pauri:       detectPauri(raw),
			ShabadSeq:   shabadSeq,
			ShabadKey:   shabadKey,
		})
	}

	return result
}

// extractGurmukhiLines walks the document in order, trying the class
// based strategy first and the loose cell walk second.
func extractGurmukhiLines(doc *goquery.Document) []string {
	var lines []string

	doc.Find("td, div, span, p").Each(func(_ int, sel *goquery.Selection) {
		class, ok := sel.Attr("class")
		if !ok || !gurmukhiClass.MatchString(class) {
			return
		}
		text := strings.TrimSpace(sel.Text())
		if text != "" && containsGurmukhi(text) {
			lines = append(lines, text)
		}
	})
	if len(lines) > 0 {
		return lines
	}

	// Loose fallback: any table cell that is mostly Gurmukhi. Very short
	// cells are skipped since they are usually numerals or labels.
	doc.Find("td").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len([]rune(text)) <= 2 || !containsGurmukhi(text) {
			return
		}
		if gurmukhiRatio(text) > 0.3 {
			lines = append(lines, text)
		}
	})

	return lines
}

func containsGurmukhi(text string) bool {
	for _, r := range text {
		if r >= 0x0A00 && r <= 0x0A7F {
			return true
		}
	}
	return false
}

func gurmukhiRatio(text string) float64 {
	var total, gurmukhi int
	for _, r := range text {
		total++
		if r >= 0x0A00 && r <= 0x0A7F {
			gurmukhi++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(gurmukhi) / float64(total)
}

func detectRaga(text string) string {
	if ragaWord.MatchString(text) {
		return strings.TrimSpace(text)
	}
	return ""
}

func detectAuthor(text string) string {
	for _, pat := range mahallaPatterns {
		m := pat.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if n, ok := gurmukhiNumToInt(m[1]); ok {
			return fmt.Sprintf("M%d", n)
		}
	}
	return ""
}

func detectPauri(text string) int {
	m := gurmukhiNumeral.FindString(text)
	if m == "" {
		return 0
	}
	n, ok := gurmukhiNumToInt(m)
	if !ok {
		return 0
	}
	return n
}

func gurmukhiNumToInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if !isGurmukhiDigit(r) {
			return 0, false
		}
		n = n*10 + int(r-'੦')
	}
	return n, true
}

// ToCanonicalRecords builds one canonical record per parsed line, in
// extraction order, with line_id sequence restarting at 1 per page.
// normalizeFn maps gurmukhi_raw to the canonical gurmukhi form; tokens
// and spans are filled by the caller after tokenization.
func ToCanonicalRecords(parsed PageParseResult, normalizeFn func(string) string) []CanonicalRecord {
	records := make([]CanonicalRecord, 0, len(parsed.Lines))
	for _, line := range parsed.Lines {
		lineID := fmt.Sprintf("%d:%d", parsed.Ang, line.LineNumber)

		gurmukhi := line.GurmukhiRaw
		if normalizeFn != nil {
			gurmukhi = normalizeFn(gurmukhi)
		}

		meta := LineMeta{
			StructuralMarkers: []string{},
			Rahao:             line.Rahao,
			Raga:              line.Raga,
			Author:            line.Author,
			Pauri:             line.Pauri,
		}
		if line.ShabadSeq > 0 {
			meta.ShabadUID = ComputeShabadUID(parsed.Ang, line.ShabadKey)
		}

		records = append(records, CanonicalRecord{
			SchemaVersion: SchemaVersion,
			Ang:           parsed.Ang,
			LineID:        lineID,
			LineUID:       ComputeLineUID(parsed.Ang, lineID, gurmukhi),
			GurmukhiRaw:   line.GurmukhiRaw,
			Gurmukhi:      gurmukhi,
			Tokens:        []string{},
			TokenSpans:    []Span{},
			Meta:          meta,
			SourceURL:     fmt.Sprintf(PageURLPattern, parsed.Ang),
		})
	}
	return records
}
