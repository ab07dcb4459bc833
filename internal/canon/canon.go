// Package canon applies character-level canonicalization to compound names.
//
// Canonicalization has two layers: a Unicode layer that folds the name into
// a predictable character repertoire, and a spacing layer that pins down how
// whitespace interacts with punctuation. Every later pipeline stage assumes
// both layers have run.
package canon

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// --- Unicode layer ---

// zeroWidthRe matches NBSP and zero-width characters that survive copy-paste
// from vendor catalogs (ZWSP, ZWNJ, ZWJ, BOM).
var zeroWidthRe = regexp.MustCompile(`[\x{00A0}\x{200B}\x{200C}\x{200D}\x{FEFF}]`)

var whitespaceRunRe = regexp.MustCompile(`\s+`)

// Normalize applies NFKC normalization, folds the micro sign to a plain "u",
// drops zero-width characters and collapses whitespace runs.
//
// NFKC converts the micro sign U+00B5 into Greek mu U+03BC, so the mu
// replacement below covers both input forms.
func Normalize(text string) string {
	text = norm.NFKC.String(text)
	text = strings.ReplaceAll(text, "μ", "u")
	text = zeroWidthRe.ReplaceAllString(text, "")
	text = whitespaceRunRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// --- Spacing layer ---

var (
	// dashVariantRe matches en dash, em dash and the Unicode minus sign.
	dashVariantRe = regexp.MustCompile(`[\x{2013}\x{2014}\x{2212}]`)

	spaceBeforeCloseRe = regexp.MustCompile(`\s+([)\]}])`)
	spaceAfterOpenRe   = regexp.MustCompile(`([(\[{])\s+`)

	hyphenPadRe    = regexp.MustCompile(`\s*-\s*`)
	slashPadRe     = regexp.MustCompile(`\s*/\s*`)
	colonPadRe     = regexp.MustCompile(`\s*:\s*`)
	plusPadRe      = regexp.MustCompile(`\s*\+\s*`)
	semicolonPadRe = regexp.MustCompile(`\s*;\s*`)

	// primePadRe matches an ASCII apostrophe or a Unicode prime with any
	// surrounding whitespace, as in the 5' / 3' positions of nucleotides.
	primePadRe = regexp.MustCompile(`\s*(['\x{2032}])\s*`)

	commaSpanRe        = regexp.MustCompile(`\s*,\s*`)
	commaBeforeCloseRe = regexp.MustCompile(`,\s+([)\]}])`)

	spacedHyphenRe = regexp.MustCompile(`\s+-\b`)
	multiSpaceRe   = regexp.MustCompile(`\s{2,}`)
)

// FixSpacing canonicalizes spacing around punctuation. The rules run
// sequentially: dash folding, bracket padding, connector tightening, prime
// attachment, comma handling and finally whitespace collapse. The function
// is idempotent.
func FixSpacing(text string) string {
	text = dashVariantRe.ReplaceAllString(text, "-")

	text = spaceBeforeCloseRe.ReplaceAllString(text, "$1")
	text = spaceAfterOpenRe.ReplaceAllString(text, "$1")

	text = hyphenPadRe.ReplaceAllString(text, "-")
	text = slashPadRe.ReplaceAllString(text, "/")
	text = colonPadRe.ReplaceAllString(text, ":")
	text = plusPadRe.ReplaceAllString(text, "+")
	text = semicolonPadRe.ReplaceAllString(text, "; ")

	text = primePadRe.ReplaceAllString(text, "$1")

	text = fixCommas(text)
	text = commaBeforeCloseRe.ReplaceAllString(text, ",$1")

	text = spacedHyphenRe.ReplaceAllString(text, "-")

	text = multiSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// fixCommas tightens commas inside numeric enumerations such as locant lists
// ("1,3-diol") and puts exactly one space after commas in word lists. A comma
// with a digit on exactly one side is left as written.
func fixCommas(text string) string {
	spans := commaSpanRe.FindAllStringIndex(text, -1)
	if spans == nil {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + len(spans))
	prev := 0
	for _, span := range spans {
		b.WriteString(text[prev:span[0]])
		digitBefore := span[0] > 0 && isDigit(text[span[0]-1])
		digitAfter := span[1] < len(text) && isDigit(text[span[1]])
		switch {
		case digitBefore && digitAfter:
			b.WriteString(",")
		case !digitBefore && !digitAfter:
			b.WriteString(", ")
		default:
			b.WriteString(text[span[0]:span[1]])
		}
		prev = span[1]
	}
	b.WriteString(text[prev:])
	return b.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Clean is the standard canonicalization entry: Normalize then FixSpacing.
func Clean(text string) string {
	return FixSpacing(Normalize(text))
}
