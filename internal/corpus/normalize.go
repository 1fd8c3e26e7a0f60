package corpus

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizerVersion is recorded in the run manifest so corpus builds can
// be traced back to the exact normalization behavior that produced them.
const NormalizerVersion = "1.0.0"

// NuktaPolicy controls handling of nukta (U+0A3C) consonant variants.
type NuktaPolicy string

// NasalPolicy controls normalization of the two word-final nasalization
// conventions, tippi (U+0A70) and bindi (U+0A02).
type NasalPolicy string

// VishramPolicy controls handling of vishram (pause) punctuation.
type VishramPolicy string

// HalantPolicy controls canonicalization of halant/conjunct forms.
type HalantPolicy string

// Normalization policy values. Nothing outside the configured policies is
// ever applied.
const (
	NuktaPreserve NuktaPolicy = "PRESERVE"
	NuktaStrip    NuktaPolicy = "STRIP"

	NasalCanonicalTippi NasalPolicy = "CANONICAL_TIPPI"
	NasalCanonicalBindi NasalPolicy = "CANONICAL_BINDI"
	NasalPreserve       NasalPolicy = "PRESERVE"

	VishramStrip            VishramPolicy = "STRIP"
	VishramPreserveSeparate VishramPolicy = "PRESERVE_SEPARATE"

	HalantDecompose HalantPolicy = "DECOMPOSE"
	HalantPreserve  HalantPolicy = "PRESERVE"
)

// NormalizationConfig enumerates every transformation the normalizer may
// apply. The zero value is not useful; use DefaultNormalization.
type NormalizationConfig struct {
	Nukta   NuktaPolicy   `mapstructure:"nukta_policy"`
	Nasal   NasalPolicy   `mapstructure:"nasal_policy"`
	Vishram VishramPolicy `mapstructure:"vishram_policy"`
	Halant  HalantPolicy  `mapstructure:"halant_policy"`
}

// DefaultNormalization returns the canonical policy set used for corpus
// builds.
func DefaultNormalization() NormalizationConfig {
	return NormalizationConfig{
		Nukta:   NuktaPreserve,
		Nasal:   NasalCanonicalTippi,
		Vishram: VishramStrip,
		Halant:  HalantDecompose,
	}
}

// Gurmukhi code points the pipeline cares about.
const (
	zwj   = '‍' // zero-width joiner
	zwnj  = '‌' // zero-width non-joiner
	nukta = '਼'

	tippi = 'ੰ'
	bindi = 'ਂ'

	danda       = '।' // ।
	doubleDanda = '॥' // ॥
)

// Pre-composed nukta letters mapped to their base consonants.
var nuktaBase = map[rune]rune{
	'ਲ਼': 'ਲ', // ਲ਼ → ਲ
	'ਸ਼': 'ਸ', // ਸ਼ → ਸ
	'ਖ਼': 'ਖ', // ਖ਼ → ਖ
	'ਗ਼': 'ਗ', // ਗ਼ → ਗ
	'ਜ਼': 'ਜ', // ਜ਼ → ਜ
	'ੜ': 'ਡ', // ੜ → ਡ
	'ਫ਼': 'ਫ', // ਫ਼ → ਫ
}

// Normalize canonicalizes raw extracted Gurmukhi into the stable
// comparison form stored in the gurmukhi field. It is pure and
// idempotent: Normalize(Normalize(x)) == Normalize(x). It never fails,
// including on the empty string.
//
// Steps, in order: Unicode NFC, zero-width stripping, nukta policy,
// nasal policy, vishram policy, halant policy, whitespace collapse.
func Normalize(text string, cfg NormalizationConfig) string {
	text = norm.NFC.String(text)
	text = stripZeroWidth(text)

	if cfg.Nukta == NuktaStrip {
		text = foldNukta(text)
	}

	switch cfg.Nasal {
	case NasalCanonicalTippi:
		text = strings.ReplaceAll(text, string(bindi), string(tippi))
	case NasalCanonicalBindi:
		text = strings.ReplaceAll(text, string(tippi), string(bindi))
	}

	switch cfg.Vishram {
	case VishramStrip:
		text = stripVishram(text)
	case VishramPreserveSeparate:
		text = separateVishram(text)
	}

	if cfg.Halant == HalantDecompose {
		// NFD then NFC catches pre-composed ligature forms that a single
		// NFC pass leaves alone.
		text = norm.NFC.String(norm.NFD.String(text))
	}

	return collapseWhitespace(text)
}

func stripZeroWidth(text string) string {
	return strings.Map(func(r rune) rune {
		if r == zwj || r == zwnj {
			return -1
		}
		return r
	}, text)
}

// foldNukta collapses nukta-bearing consonants to their base forms:
// pre-composed letters first, then any remaining combining nukta.
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

// isVishram reports whether r is a pause mark. Dandas are structural
// delimiters, not vishram, and always survive normalization.
func isVishram(r rune) bool {
	return r == ';' || r == ','
}

func stripVishram(text string) string {
	return strings.Map(func(r rune) rune {
		if isVishram(r) {
			return -1
		}
		return r
	}, text)
}

// separateVishram pads dandas with spaces so they survive as their own
// tokens downstream.
func separateVishram(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 8)
	for _, r := range text {
		if r == danda || r == doubleDanda {
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// StepNames reports the active pipeline steps for manifest provenance.
func (c NormalizationConfig) StepNames() []string {
	return []string{
		"unicode_nfc",
		"strip_zero_width",
		"nukta:" + string(c.Nukta),
		"nasal:" + string(c.Nasal),
		"vishram:" + string(c.Vishram),
		"halant:" + string(c.Halant),
		"whitespace_normalize",
	}
}
