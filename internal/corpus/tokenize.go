package corpus

import "unicode"

// TokenizerVersion is recorded in the run manifest.
const TokenizerVersion = "1.1.0"

// TokenizeResult holds the tokens of one normalized line, their rune
// spans into that line, and the structural markers that were extracted
// before word splitting.
type TokenizeResult struct {
	Tokens            []string
	TokenSpans        []Span
	StructuralMarkers []string
}

const rahaoWord = "ਰਹਾਉ"

var rahaoRunes = []rune(rahaoWord)

// Tokenize splits a normalized Gurmukhi line into word tokens with exact
// rune offsets, extracting structural markers first.
//
// Markers are claimed in a fixed priority order: the rahao word, double
// danda, single danda, then stand-alone Gurmukhi numerals. Each claimed
// rune is excluded from word splitting, so marker removal can never
// shift a surviving token's offsets. Tokens are maximal runs of
// unclaimed non-space runes, with boundary punctuation that is not
// itself a marker trimmed from the edges. A single left-to-right scan
// produces the spans directly; positions are never re-searched, so a
// repeated word always resolves to its own occurrence.
//
// Empty or whitespace-only input yields an empty result. A line made
// entirely of markers yields zero tokens and a non-empty marker list.
func Tokenize(gurmukhi string) TokenizeResult {
	runes := []rune(gurmukhi)
	if len(runes) == 0 {
		return TokenizeResult{}
	}

	claimed := make([]bool, len(runes))
	markers := extractMarkers(runes, claimed)

	var (
		tokens []string
		spans  []Span
	)
	i := 0
	for i < len(runes) {
		if claimed[i] || unicode.IsSpace(runes[i]) {
			i++
			continue
		}
		start := i
		for i < len(runes) && !claimed[i] && !unicode.IsSpace(runes[i]) {
			i++
		}
		s, e := trimBoundaryPunct(runes, start, i)
		if s < e {
			tokens = append(tokens, string(runes[s:e]))
			spans = append(spans, Span{s, e})
		}
	}

	return TokenizeResult{
		Tokens:            tokens,
		TokenSpans:        spans,
		StructuralMarkers: markers,
	}
}

// extractMarkers claims marker runes in priority order and returns the
// extracted marker strings in extraction order, duplicates included.
func extractMarkers(runes []rune, claimed []bool) []string {
	var markers []string

	// Rahao occurrences at word boundaries.
	for i := 0; i+len(rahaoRunes) <= len(runes); i++ {
		if claimed[i] || !matchAt(runes, claimed, i, rahaoRunes) {
			continue
		}
		end := i + len(rahaoRunes)
		if !isWordBoundary(runes, i-1) || !isWordBoundary(runes, end) {
			continue
		}
		markers = append(markers, rahaoWord)
		for j := i; j < end; j++ {
			claimed[j] = true
		}
		i = end - 1
	}

	// Double danda before single danda so ॥ is never claimed twice.
	for i, r := range runes {
		if !claimed[i] && r == doubleDanda {
			markers = append(markers, string(doubleDanda))
			claimed[i] = true
		}
	}
	for i, r := range runes {
		if !claimed[i] && r == danda {
			markers = append(markers, string(danda))
			claimed[i] = true
		}
	}

	// Stand-alone Gurmukhi numeral runs: bounded by whitespace, string
	// edges, or runes claimed above (a pauri counter inside ॥੧॥ counts
	// as stand-alone once the dandas are claimed).
	i := 0
	for i < len(runes) {
		if claimed[i] || !isGurmukhiDigit(runes[i]) {
			i++
			continue
		}
		start := i
		for i < len(runes) && !claimed[i] && isGurmukhiDigit(runes[i]) {
			i++
		}
		if standaloneRun(runes, claimed, start, i) {
			markers = append(markers, string(runes[start:i]))
			for j := start; j < i; j++ {
				claimed[j] = true
			}
		}
	}

	return markers
}

func matchAt(runes []rune, claimed []bool, at int, want []rune) bool {
	for j, w := range want {
		if claimed[at+j] || runes[at+j] != w {
			return false
		}
	}
	return true
}

// isWordBoundary reports whether position i (possibly out of range) can
// border a word-shaped marker: anything but a letter, digit, or
// combining mark.
func isWordBoundary(runes []rune, i int) bool {
	if i < 0 || i >= len(runes) {
		return true
	}
	r := runes[i]
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsMark(r)
}

func isGurmukhiDigit(r rune) bool {
	return r >= '੦' && r <= '੯'
}

// standaloneRun reports whether the numeral run [start, end) is bounded
// by whitespace, an already-claimed marker, or the string edges. A
// claimed neighbor counts as a boundary: inside ॥੧॥ the dandas are
// claimed first, which makes the counter stand-alone.
func standaloneRun(runes []rune, claimed []bool, start, end int) bool {
	if start > 0 && !claimed[start-1] && !unicode.IsSpace(runes[start-1]) {
		return false
	}
	if end < len(runes) && !claimed[end] && !unicode.IsSpace(runes[end]) {
		return false
	}
	return true
}

// isBoundaryPunct matches residual punctuation that may cling to token
// edges after marker extraction.
func isBoundaryPunct(r rune) bool {
	switch r {
	case danda, doubleDanda, ';', ',', '.', '-', '–', '—', ':', '!', '?', '(', ')':
		return true
	}
	return false
}

func trimBoundaryPunct(runes []rune, start, end int) (int, int) {
	for start < end && isBoundaryPunct(runes[start]) {
		start++
	}
	for end > start && isBoundaryPunct(runes[end-1]) {
		end--
	}
	return start, end
}
