// Package guard classifies small-molecule classes that must be recognized
// before the peptide and oligonucleotide detectors run. Nucleotides,
// cofactors, cholines, fluorogenic glycosides and dyes share surface tokens
// with peptide and oligo notation, so the guard check short-circuits
// classification on the first match.
package guard

import (
	"regexp"
	"strings"

	"github.com/valpere/chemnorm/internal/canon"
	"github.com/valpere/chemnorm/internal/record"
)

// --- Cyclic nucleotides ---

// cyclicRes cover the common spellings of cyclic mononucleotides and
// dinucleotides: 3',5'-cAMP, bare cNMP, c-di-GMP and cGAMP with optional
// prime orientation prefixes, plus the spelled-out "cyclic AMP" form.
var cyclicRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:3'?[, ]?\s*5'?)\s*-\s*c\s*[acguti]\s*(?:mp|dp|tp)\b`),
	regexp.MustCompile(`(?i)\bc\s*[acguti]\s*(?:mp|dp|tp)\b`),
	regexp.MustCompile(`(?i)\bcyclic\s+[acguti]\s*(?:mp|dp|tp)\b`),
	regexp.MustCompile(`(?i)\bc-?di-?\s*(?:amp|gmp|cmp|ump|gamp)\b`),
	regexp.MustCompile(`(?i)\b(?:(?:2'[, ]?3'|3'[, ]?[35]')\s*-\s*)?c\s*gamp\b`),
}

// IsCyclicNucleotide reports whether text denotes a cyclic nucleotide.
func IsCyclicNucleotide(text string) bool {
	for _, re := range cyclicRes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// cyclicCanonRules rewrite cyclic mononucleotide spellings into canonical
// prime notation. Each rule upper-cases the base and phosphate groups and
// prepends the canonical prefix. The spelled-out form runs first so that
// "3',5'-cyclic AMP" collapses before the prime rules see it.
var cyclicCanonRules = []struct {
	re     *regexp.Regexp
	prefix string
}{
	{regexp.MustCompile(`(?i)\bcyclic\s+([acguti])\s*(mp|dp|tp)\b`), "c"},
	{regexp.MustCompile(`(?i)3'[, ]?\s*5'-\s*c\s*([acguti])\s*(mp|dp|tp)`), "3',5'-c"},
	{regexp.MustCompile(`(?i)5'-\s*c\s*([acguti])\s*(mp|dp|tp)`), "5'-c"},
	{regexp.MustCompile(`(?i)\bc\s*([acguti])\s*(mp|dp|tp)\b`), "c"},
}

var (
	cyclicDiRe   = regexp.MustCompile(`(?i)\bc-?di-?\s*(amp|gmp|cmp|ump|gamp)\b`)
	cyclicGampRe = regexp.MustCompile(`(?i)(?:2'[, ]?3'|3'[, ]?[35]')?-?c\s*gamp`)
)

// CanonicalizeCyclicNucleotide rewrites cyclic nucleotide names into
// canonical forms such as "3',5'-cAMP", "c-di-GMP" and "cGAMP". The result
// is spacing-normalized and case-significant, so callers must exempt it
// from any later lowercase pass.
func CanonicalizeCyclicNucleotide(text string) string {
	for _, rule := range cyclicCanonRules {
		re := rule.re
		prefix := rule.prefix
		text = re.ReplaceAllStringFunc(text, func(m string) string {
			sub := re.FindStringSubmatch(m)
			return prefix + strings.ToUpper(sub[1]) + strings.ToUpper(sub[2])
		})
	}
	text = cyclicDiRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := cyclicDiRe.FindStringSubmatch(m)
		return "c-di-" + strings.ToUpper(sub[1])
	})
	text = cyclicGampRe.ReplaceAllString(text, "cGAMP")
	return canon.FixSpacing(text)
}

// --- Guard patterns ---

var nucleotideSuffixes = []string{
	"ATP", "ADP", "AMP",
	"GTP", "GDP", "GMP",
	"UTP", "UDP", "UMP",
	"CTP", "CDP", "CMP",
}

var nucleotideTokens = buildNucleotideTokens()

func buildNucleotideTokens() map[string]bool {
	m := make(map[string]bool, len(nucleotideSuffixes))
	for _, s := range nucleotideSuffixes {
		m[s] = true
	}
	return m
}

// IsNucleotideToken reports whether token is a bare nucleotide name such as
// ATP or GMP. The peptide detector uses this as a stop word so that
// nucleotide names never count as residue runs.
func IsNucleotideToken(token string) bool {
	return nucleotideTokens[strings.ToUpper(token)]
}

var (
	// nucleotideRe matches standard nucleotide names with arbitrary fused
	// prefixes, e.g. dATP, 33P-gammaATP, 2-mesADP.
	nucleotideRe = regexp.MustCompile(
		`(?i)\b(?:[0-9a-z-]*)(?:` + strings.Join(nucleotideSuffixes, "|") + `)\b`,
	)

	coaRe       = regexp.MustCompile(`(?i)\b(?:acetyl[\s-]*)?(?:coa|coenzyme\s+a)\b`)
	cholineRe   = regexp.MustCompile(`(?i)\b[0-9a-z-]*choline\b`)
	glycosideRe = regexp.MustCompile(`(?i)(?:4\s*-?mu|4\s*-?methylumbelliferyl|mug|muf).*?(?:glcnac|glucos|galactos|mannos|fucos|glycoside)`)
	dyeRe       = regexp.MustCompile(`(?i)(?:phenoxazin|resorufin|amplex\s*red)`)
)

// Detect tests text against the guard classes in fixed order and returns
// the matched subtype with the processed text. Cyclic nucleotides are the
// only class that rewrites the text; every other guard passes it through.
// An empty subtype means no guard matched.
func Detect(text string) (string, string) {
	if IsCyclicNucleotide(text) {
		return record.SubtypeCyclicNucleotide, CanonicalizeCyclicNucleotide(text)
	}
	if nucleotideRe.MatchString(text) {
		return record.SubtypeNucleotide, text
	}
	if coaRe.MatchString(text) {
		return record.SubtypeCofactor, text
	}
	if cholineRe.MatchString(text) {
		return record.SubtypeCholine, text
	}
	if glycosideRe.MatchString(text) {
		return record.SubtypeFluorogenicGlycoside, text
	}
	if dyeRe.MatchString(text) {
		return record.SubtypeDye, text
	}
	return "", text
}
