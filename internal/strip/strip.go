// Package strip removes annotation tokens from compound names and records
// every removed token in the ledger.
//
// The sub-stages run in the order fixed by the pipeline: chromophore,
// concentrations, isotopes, salts/biotin/hydrates, noise descriptors and
// fluorophores, followed by a final bracket and separator cleanup. Each stage
// family owns its vocabulary; the salt, noise and fluorophore tables accept
// extensions loaded from a vocabulary manifest.
package strip

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/valpere/chemnorm/internal/record"
)

// --- Vocabularies ---

// saltTokens lists salt and mineral acid names stripped early in processing.
var saltTokens = []string{
	"hydrochloride",
	"phosphate",
	"mesylate",
	"citrate",
	"tartrate",
	"acetate",
	"trifluoroacetate",
	"sulfate",
	"nitrate",
	"maleate",
	"fumarate",
	"oxalate",
	"sodium",
	"potassium",
	"calcium",
	"lithium",
	"HCl",
	"HBr",
	"HNO3",
	"H2SO4",
	"TFA",
}

// hydrateTokens lists hydrate forms and related descriptors.
var hydrateTokens = []string{
	"monohydrate",
	"dihydrate",
	"trihydrate",
	"tetrahydrate",
	"pentahydrate",
	"hydrate",
	"anhydrous",
}

// noiseFragments are regex fragments for non-structural descriptor words.
var noiseFragments = []string{
	"solution",
	"soln",
	"aqueous",
	`aq\.`,
	"stock",
	"buffer",
	"USP",
	"EP",
	"ACS",
	"reagent",
	"analytical",
	"grade",
	`crystal(?:line)?`,
	"powder",
	"PBS",
}

// fluorophoreFragments are regex fragments for dye family names. Numbered
// families allow an optional space or hyphen before the number.
var fluorophoreFragments = []string{
	"FITC",
	"FAM",
	`Alexa(?:\s|-)?Fluor[\s-]?\d+`,
	`HiLyte(?:\s|-)?(?:Fluor)?[\s-]?\d+`,
	`DyLight[\s-]?\d+`,
	`CF[\s-]?\d+`,
	`Janelia(?:\s|-)?Fluor[\s-]?\d+`,
	`BODIPY(?:[-/][A-Za-z0-9/]+|\s(?:[A-Za-z]{1,3}|[0-9/]+)){0,2}`,
	`Cy\d+`,
	"Rhodamine",
	"AMC",
	"AFC",
	"ACC",
	"EDANS",
	"DABCYL",
	"pNP",
	`BHQ\d*`,
	`Atto\d+`,
	"TRITC",
	"DAPI",
	`Texas\sRed`,
	"PE",
	"PerCP",
	"APC",
}

const (
	noiseWithIDFragment = `(?:lot|cat(?:alog)?|code|ref)[\s:_-]*\w+`
	purityFragment      = `≥?\s*\d{1,2}\s*%?\s*purity`
)

var (
	saltRe        = compileTokenAlternation(saltTokens)
	hydrateRe     = compileTokenAlternation(hydrateTokens)
	biotinRe      = regexp.MustCompile(`(?i)\bbiotin(?:ylated)?\b`)
	noiseRe       = compileNoiseRe(noiseFragments)
	fluorophoreRe = compileFragmentAlternation(fluorophoreFragments)
)

func compileTokenAlternation(tokens []string) *regexp.Regexp {
	escaped := make([]string, len(tokens))
	for i, t := range tokens {
		escaped[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(escaped, "|") + `)\b`)
}

func compileFragmentAlternation(fragments []string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(fragments, "|") + `)\b`)
}

func compileNoiseRe(fragments []string) *regexp.Regexp {
	return regexp.MustCompile(
		`(?i)` + noiseWithIDFragment + `|\b(?:` + strings.Join(fragments, "|") + `)\b|` + purityFragment,
	)
}

// ExtendSalts adds literal salt names to the salt table.
func ExtendSalts(tokens []string) {
	if len(tokens) == 0 {
		return
	}
	saltTokens = append(saltTokens, tokens...)
	saltRe = compileTokenAlternation(saltTokens)
}

// ExtendNoise adds literal descriptor words to the noise table.
func ExtendNoise(tokens []string) {
	if len(tokens) == 0 {
		return
	}
	for _, t := range tokens {
		noiseFragments = append(noiseFragments, regexp.QuoteMeta(t))
	}
	noiseRe = compileNoiseRe(noiseFragments)
}

// ExtendFluorophores adds literal dye names to the fluorophore table.
func ExtendFluorophores(tokens []string) {
	if len(tokens) == 0 {
		return
	}
	for _, t := range tokens {
		fluorophoreFragments = append(fluorophoreFragments, regexp.QuoteMeta(t))
	}
	fluorophoreRe = compileFragmentAlternation(fluorophoreFragments)
}

// --- Chromophore ---

var chromophoreRe = regexp.MustCompile(`(?i)\bpna\b`)

// DetectChromophore ledgers and removes pNA chromophore tags. An all-caps
// PNA token is left alone: it reads as peptide nucleic acid, not as the
// para-nitroaniline reporter.
func DetectChromophore(text string, ledger *record.Ledger) string {
	return chromophoreRe.ReplaceAllStringFunc(text, func(token string) string {
		if token == strings.ToUpper(token) {
			return token
		}
		ledger.Add(record.FlagChromophore, token)
		return " "
	})
}

// --- Concentrations ---

var concentrationRe = regexp.MustCompile(
	`(?i)\b\d+(?:\.\d+)?\s*(?:mM|M|uM|nM|pM|%|mg/mL|g/mL|mg|g|mL)\b`,
)

// RemoveConcentrations drops concentration expressions ("10 mM",
// "0.5 mg/mL") into the noise category.
func RemoveConcentrations(text string, ledger *record.Ledger) string {
	matches := concentrationRe.FindAllString(text, -1)
	if matches == nil {
		return text
	}
	ledger.Add(record.FlagNoise, matches...)
	return concentrationRe.ReplaceAllString(text, " ")
}

// --- Salts, biotin, hydrates, fluorophores ---

var fusedSaltRe = regexp.MustCompile(`(?i)(\d+)(HCl|HBr|HNO3|H2SO4)`)

// SplitFusedSalts inserts a space into digit-fused salt shorthand such as
// "2HCl" so the salt stage can match the acid token.
func SplitFusedSalts(text string) string {
	return fusedSaltRe.ReplaceAllString(text, "${1} ${2}")
}

// Remove strips every match of the category vocabulary from text and appends
// the matched tokens to the ledger. Fluorophore tokens are trimmed and
// upper-cased when purely alphabetic; the other categories ledger the
// matched form unchanged.
func Remove(text, category string, ledger *record.Ledger) string {
	var re *regexp.Regexp
	switch category {
	case record.FlagSalt:
		re = saltRe
	case record.FlagBiotin:
		re = biotinRe
	case record.FlagHydrate:
		re = hydrateRe
	case record.FlagFluorophore:
		re = fluorophoreRe
	default:
		return text
	}
	matches := re.FindAllString(text, -1)
	if matches == nil {
		return text
	}
	for _, m := range matches {
		if category == record.FlagFluorophore {
			m = normalizeFluorophoreToken(m)
		}
		ledger.Add(category, m)
	}
	return re.ReplaceAllString(text, " ")
}

// HasFluorophore reports whether text contains a fluorophore tag.
func HasFluorophore(text string) bool {
	return fluorophoreRe.MatchString(text)
}

// FindFluorophores returns the fluorophore tags in text in ledger form,
// without modifying text.
func FindFluorophores(text string) []string {
	matches := fluorophoreRe.FindAllString(text, -1)
	for i, m := range matches {
		matches[i] = normalizeFluorophoreToken(m)
	}
	return matches
}

// RemoveFluorophoresOutsideParens blanks fluorophore tags except those
// directly preceded by an opening parenthesis, which mark residue-level
// modifications that stay part of a peptide name.
func RemoveFluorophoresOutsideParens(text string) string {
	spans := fluorophoreRe.FindAllStringIndex(text, -1)
	if spans == nil {
		return text
	}
	var b strings.Builder
	prev := 0
	for _, span := range spans {
		b.WriteString(text[prev:span[0]])
		if span[0] > 0 && text[span[0]-1] == '(' {
			b.WriteString(text[span[0]:span[1]])
		} else {
			b.WriteString(" ")
		}
		prev = span[1]
	}
	b.WriteString(text[prev:])
	return b.String()
}

// HasTerminalFluorophore reports whether a fluorophore tag sits at the
// start or the end of text, with only connector punctuation between the
// tag and the string edge.
func HasTerminalFluorophore(text string) bool {
	text = strings.TrimSpace(text)
	for _, span := range fluorophoreRe.FindAllStringIndex(text, -1) {
		if strings.Trim(text[:span[0]], " -/:,+") == "" {
			return true
		}
		if strings.Trim(text[span[1]:], " -/:,+") == "" {
			return true
		}
	}
	return false
}

func normalizeFluorophoreToken(token string) string {
	token = strings.TrimSpace(token)
	if isAlpha(token) {
		return strings.ToUpper(token)
	}
	return token
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// --- Noise descriptors ---

var bracketGroupRe = regexp.MustCompile(`\([^()]*\)|\[[^\[\]]*\]`)

var stopwords = map[string]bool{
	"in":  true,
	"of":  true,
	"and": true,
}

// RemoveNoise strips non-structural descriptors in two passes: first inside
// parenthetical groups, then across the whole name. A bracket group whose
// content reduces to nothing, or to a bare stopword, is removed whole and
// ledgered as a parenthetical.
func RemoveNoise(text string, ledger *record.Ledger) string {
	logNoise := func(token string) string {
		ledger.Add(record.FlagNoise, token)
		return ""
	}
	text = bracketGroupRe.ReplaceAllStringFunc(text, func(group string) string {
		inner := group[1 : len(group)-1]
		cleaned := noiseRe.ReplaceAllStringFunc(inner, logNoise)
		cleaned = strings.Trim(cleaned, " ,;:-")
		if stopwords[strings.ToLower(cleaned)] {
			cleaned = ""
		}
		if cleaned != "" {
			return group[:1] + cleaned + group[len(group)-1:]
		}
		ledger.Add(record.FlagParenthetical, group)
		return ""
	})
	return noiseRe.ReplaceAllStringFunc(text, logNoise)
}
