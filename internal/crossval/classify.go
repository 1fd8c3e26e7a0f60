// Package crossval verifies the primary corpus against independent
// secondary sources: it samples angs, aligns lines, and classifies every
// mismatch with a cascade that separates benign orthographic variation
// from substantive textual disagreement.
package crossval

import "strings"

// DiscrepancyType classifies why two aligned lines differ.
type DiscrepancyType string

// Discrepancy classes, lightest first. The classifier cascade guarantees
// mutual exclusivity: the earliest transformation that makes the two
// texts equal wins.
const (
	WhitespaceOnly DiscrepancyType = "whitespace_only"
	VishramOnly    DiscrepancyType = "vishram_only"
	NasalOnly      DiscrepancyType = "nasal_only"
	NuktaOnly      DiscrepancyType = "nukta_only"
	Substantive    DiscrepancyType = "substantive"
	ExtraLine      DiscrepancyType = "extra_line"
	MissingLine    DiscrepancyType = "missing_line"
)

const (
	nukta = '਼'
	tippi = "ੰ"
	bindi = "ਂ"
)

var nuktaBase = map[rune]rune{
	'ਲ਼': 'ਲ', // ਲ਼ → ਲ
	'ਸ਼': 'ਸ', // ਸ਼ → ਸ
	'ਖ਼': 'ਖ', // ਖ਼ → ਖ
	'ਗ਼': 'ਗ', // ਗ਼ → ਗ
	'ਜ਼': 'ਜ', // ਜ਼ → ਜ
	'ੜ': 'ਡ', // ੜ → ਡ
	'ਫ਼': 'ਫ', // ਫ਼ → ਫ
}

// Classify determines why primary and secondary differ. Callers apply it
// only to texts that are not already identical.
//
// The cascade tries increasingly heavy explanations and stops at the
// first whose transformation makes the texts agree: whitespace folding,
// vishram punctuation removal, nasalization folding (bindi and tippi to
// one representative), nukta folding (dotted consonants to their base),
// and finally Substantive when nothing lighter accounts for the
// difference. Beyond whitespace folding, each transformation is applied
// to the input texts on its own, never to the output of an earlier
// rule: an _only class asserts that that single category fully explains
// the difference, so a pair differing in both vishram and nasal marks
// is Substantive, not NasalOnly.
func Classify(primary, secondary string) DiscrepancyType {
	p, s := foldWhitespace(primary), foldWhitespace(secondary)
	if p == s {
		return WhitespaceOnly
	}

	if stripVishram(p) == stripVishram(s) {
		return VishramOnly
	}

	if foldNasal(p) == foldNasal(s) {
		return NasalOnly
	}

	if foldNukta(p) == foldNukta(s) {
		return NuktaOnly
	}

	return Substantive
}

func foldWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func stripVishram(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '।', '॥', ';', ',':
			return -1
		}
		return r
	}, text)
	// Removal can leave doubled spaces behind.
	return foldWhitespace(cleaned)
}

func foldNasal(text string) string {
	return strings.ReplaceAll(text, bindi, tippi)
}

func foldNukta(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if base, ok := nuktaBase[r]; ok {
			b.WriteRune(base)
			continue
		}
		if r == nukta {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
