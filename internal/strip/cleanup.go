package strip

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/valpere/chemnorm/internal/canon"
)

// --- Final cleanup ---

var (
	dotPadRe        = regexp.MustCompile(`\s*\.\s*`)
	whitespaceRunRe = regexp.MustCompile(`\s+`)

	// repeatedConnectorRe matches runs of connector punctuation left behind
	// when a token between two connectors was stripped ("a - biotin - b").
	repeatedConnectorRe = regexp.MustCompile(`([-/:+]){2,}`)
)

// Cleanup runs the final whitespace and punctuation repair after annotation
// tokens were removed from a name: bracket repair, spacing, decimal dots and
// connector runs, then edge punctuation.
func Cleanup(text string) string {
	text = removeHangingBrackets(text)
	text = canon.FixSpacing(text)
	text = dotPadRe.ReplaceAllString(text, ".")
	text = whitespaceRunRe.ReplaceAllString(text, " ")
	text = canon.FixSpacing(text)
	text = repeatedConnectorRe.ReplaceAllString(text, "$1")
	text = strings.Trim(text, " -/:,+")
	return strings.TrimSpace(text)
}

var (
	doubledBracketReplacer = strings.NewReplacer(
		"[[", "[", "]]", "]",
		"((", "(", "))", ")",
		"{{", "{", "}}", "}",
	)

	emptyParenRe  = regexp.MustCompile(`\(\s*\)`)
	emptySquareRe = regexp.MustCompile(`\[\s*\]`)
	emptyBraceRe  = regexp.MustCompile(`\{\s*\}`)

	leadingCloserRe  = regexp.MustCompile(`^[)\]}]+`)
	trailingOpenerRe = regexp.MustCompile(`[(\[{]+$`)
)

var bracketPairs = []struct {
	open  string
	close string
}{
	{"(", ")"},
	{"[", "]"},
	{"{", "}"},
}

// removeHangingBrackets repairs bracket damage left behind by token removal:
// doubled brackets, empty pairs, unmatched runs at the edges and bracket
// characters standing alone between spaces.
//
// The empty-pair rules run per bracket type in sequence so that collapsing
// an inner pair can expose an outer pair to the next rule ("[( )]" ends
// empty).
func removeHangingBrackets(text string) string {
	text = doubledBracketReplacer.Replace(text)
	text = emptyParenRe.ReplaceAllString(text, " ")
	text = emptySquareRe.ReplaceAllString(text, " ")
	text = emptyBraceRe.ReplaceAllString(text, " ")
	text = leadingCloserRe.ReplaceAllString(text, "")
	text = trailingOpenerRe.ReplaceAllString(text, "")
	for _, p := range bracketPairs {
		if !strings.Contains(text, p.close) {
			text = strings.TrimLeft(text, p.open)
		}
		if !strings.Contains(text, p.open) {
			text = strings.TrimRight(text, p.close)
		}
	}
	return blankIsolatedBrackets(text)
}

// blankIsolatedBrackets replaces bracket characters that have whitespace, or
// a string edge, on both sides. Neighbor checks read the original runes, so
// a blanked bracket never makes its neighbor look isolated.
func blankIsolatedBrackets(text string) string {
	orig := []rune(text)
	out := make([]rune, len(orig))
	copy(out, orig)
	for i, r := range orig {
		switch r {
		case '(', ')', '[', ']', '{', '}':
		default:
			continue
		}
		before := i == 0 || unicode.IsSpace(orig[i-1])
		after := i == len(orig)-1 || unicode.IsSpace(orig[i+1])
		if before && after {
			out[i] = ' '
		}
	}
	return string(out)
}
