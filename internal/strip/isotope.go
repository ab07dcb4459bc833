package strip

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/valpere/chemnorm/internal/record"
)

// --- Isotope canonicalization ---

var isotopeDashRe = regexp.MustCompile(`[\x{2013}\x{2014}\x{2212}]`)

// i125CanonRules rewrite the many I-125 spellings into the canonical [125I]
// and 125I forms before matching. Bracketed forms come first, then bare
// forms, then the cautious "1251" digit-for-letter repairs.
var i125CanonRules = []struct {
	re  *regexp.Regexp
	out string
}{
	{regexp.MustCompile(`(?i)\[\s*i\s*-\s*125\s*\]`), "[125I]"},
	{regexp.MustCompile(`(?i)\[\s*125\s*-\s*i\s*\]`), "[125I]"},
	{regexp.MustCompile(`(?i)\[\s*i\s*125\s*\]`), "[125I]"},
	{regexp.MustCompile(`(?i)\[\s*125\s*i\s*\]`), "[125I]"},
	{regexp.MustCompile(`(?i)\bi\s*-\s*125\b`), "125I"},
	{regexp.MustCompile(`(?i)\b125\s*-\s*i\b`), "125I"},
	{regexp.MustCompile(`(\[)\s*125\s*1\s*(\])`), "${1}125I${2}"},
	{regexp.MustCompile(`(?i)(\biodo[\w-]{0,20})\[\s*125\s*1\s*\]`), "${1}[125I]"},
	{regexp.MustCompile(`(?i)\[\s*125\s*1\s*\]([-\s]*iodo)`), "[125I]${1}"},
}

// bracketCanonRules tighten spaced bracket notations like "[3 H]" into the
// canonical "[3H]" form.
var bracketCanonRules = []struct {
	re  *regexp.Regexp
	out string
}{
	{regexp.MustCompile(`(?i)\[\s*3\s*H\s*\]`), "[3H]"},
	{regexp.MustCompile(`(?i)\[\s*14\s*C\s*\]`), "[14C]"},
	{regexp.MustCompile(`(?i)\[\s*32\s*P\s*\]`), "[32P]"},
	{regexp.MustCompile(`(?i)\[\s*86\s*Rb\s*\]`), "[86Rb]"},
}

// --- Isotope scanner ---

// isotopeCandidateRe lists every isotope notation the scanner considers.
// Bracketed tags are accepted anywhere; bare tokens only count when a
// non-word rune (or the string edge) flanks both sides, which the scanner
// checks itself. The alternation is ordered most-specific-first because the
// engine prefers earlier alternatives at the same position.
var isotopeCandidateRe = regexp.MustCompile(
	`(?i)\[\s*(?:125I|86Rb|32P|18F|15N|14C|13C|3H|2H|D|T)\s*\]` +
		`|tritiated|deuterated|U-?13C|d\d+` +
		`|125I|86Rb|32P|18F|15N|14C|13C|3H|2H|D|T`,
)

// findIsotopeSpans scans text for isotope tokens. A rejected bare candidate
// restarts the scan one rune later so that shorter notations starting inside
// it still get their turn.
func findIsotopeSpans(text string) [][2]int {
	var spans [][2]int
	pos := 0
	for pos < len(text) {
		loc := isotopeCandidateRe.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if text[start] == '[' || isolatedToken(text, start, end) {
			spans = append(spans, [2]int{start, end})
			pos = end
		} else {
			_, size := utf8.DecodeRuneInString(text[start:])
			pos = start + size
		}
	}
	return spans
}

func isolatedToken(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if wordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if wordRune(r) {
			return false
		}
	}
	return true
}

func wordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// FindIsotopes returns every isotope token in text, in scan order, as
// matched. It does not modify text.
func FindIsotopes(text string) []string {
	spans := findIsotopeSpans(text)
	if len(spans) == 0 {
		return nil
	}
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = text[s[0]:s[1]]
	}
	return out
}

func replaceIsotopes(text, repl string) string {
	spans := findIsotopeSpans(text)
	if len(spans) == 0 {
		return text
	}
	var b strings.Builder
	prev := 0
	for _, s := range spans {
		b.WriteString(text[prev:s[0]])
		b.WriteString(repl)
		prev = s[1]
	}
	b.WriteString(text[prev:])
	return b.String()
}

var dNumPrefixRe = regexp.MustCompile(`^d\d+`)

// normalizeIsotopeToken puts a matched token into ledger form: deuteration
// markers lowercase, uniform labeling as U-13C, everything else uppercase.
func normalizeIsotopeToken(token string) string {
	lower := strings.ToLower(token)
	if dNumPrefixRe.MatchString(lower) || lower == "deuterated" || lower == "tritiated" {
		return lower
	}
	if strings.HasPrefix(lower, "u13c") || strings.HasPrefix(lower, "u-13c") {
		return "U-13C"
	}
	return strings.ToUpper(token)
}

// --- Isotope removal ---

const isoBracketFragment = `\[\s*(?:125I|3H|14C|32P|86Rb)\s*\]`

var (
	hyphenBracketBothRe  = regexp.MustCompile(`(?i)-\s*` + isoBracketFragment + `\s*-`)
	hyphenBracketLeftRe  = regexp.MustCompile(`(?i)-\s*` + isoBracketFragment)
	hyphenBracketRightRe = regexp.MustCompile(`(?i)` + isoBracketFragment + `\s*-`)
	isoBracketRe         = regexp.MustCompile(`(?i)` + isoBracketFragment)

	// i125MixedPrefixRe matches a 125I prefix fused into a mixed bracket
	// like "[125Ityr0]"; only the prefix is removed.
	i125MixedPrefixRe = regexp.MustCompile(`(?i)(\[)\s*125\s*I\s*([A-Za-z0-9])`)

	i125AnyBracketRe = regexp.MustCompile(`(?i)\[\s*125\s*I`)

	doubledSquareReplacer = strings.NewReplacer("[[", "[", "]]", "]")
)

// StripIsotopes canonicalizes isotope notation, ledgers every isotope token
// and removes the tokens from the name without leaving bracket artifacts.
// Bracketed tags flanked by hyphens collapse onto a single hyphen so the
// surrounding fragments stay joined.
func StripIsotopes(text string, ledger *record.Ledger) string {
	text = isotopeDashRe.ReplaceAllString(text, "-")
	for _, rule := range i125CanonRules {
		text = rule.re.ReplaceAllString(text, rule.out)
	}
	for _, rule := range bracketCanonRules {
		text = rule.re.ReplaceAllString(text, rule.out)
	}

	matches := FindIsotopes(text)
	// A fused prefix like "[125Ityr0]" escapes the scanner but still marks
	// an iodinated compound.
	if i125AnyBracketRe.MatchString(text) && !slices.Contains(matches, "[125I]") {
		matches = append(matches, "[125I]")
	}
	for _, m := range matches {
		ledger.Add(record.FlagIsotope, normalizeIsotopeToken(m))
	}

	text = hyphenBracketBothRe.ReplaceAllString(text, "-")
	text = hyphenBracketLeftRe.ReplaceAllString(text, "-")
	text = hyphenBracketRightRe.ReplaceAllString(text, "-")
	text = isoBracketRe.ReplaceAllString(text, "")
	text = i125MixedPrefixRe.ReplaceAllString(text, "${1}${2}")

	text = replaceIsotopes(text, " ")

	text = emptySquareRe.ReplaceAllString(text, " ")
	text = doubledSquareReplacer.Replace(text)
	return text
}
