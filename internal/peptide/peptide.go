// Package peptide classifies peptide-like names. Detection runs three
// signals in order: polymer composition notation such as poly-Glu:Tyr,
// explicit peptide vocabulary, and an amino-acid residue scan over the
// hyphen- and space-separated tokens of the name.
package peptide

import (
	"regexp"
	"strings"

	"github.com/valpere/chemnorm/internal/guard"
	"github.com/valpere/chemnorm/internal/oligo"
	"github.com/valpere/chemnorm/internal/record"
)

// aa1 holds the one-letter amino acid codes.
const aa1 = "ACDEFGHIKLMNPQRSTVWY"

// aa3 holds the three-letter codes in capitalized form, including the
// non-canonical residues that appear in synthetic peptide catalogs.
var aa3 = map[string]bool{
	"Ala": true, "Cys": true, "Asp": true, "Glu": true, "Phe": true,
	"Gly": true, "His": true, "Ile": true, "Lys": true, "Leu": true,
	"Met": true, "Asn": true, "Pro": true, "Gln": true, "Arg": true,
	"Ser": true, "Thr": true, "Val": true, "Trp": true, "Tyr": true,
	"Cha": true, "Nle": true, "Orn": true, "Hyp": true, "Abu": true,
	"Aib": true, "Pglu": true, "Cit": true, "Sar": true, "Dab": true,
	"Dap": true,
}

// protect lists protecting groups and reporter tokens that never count as
// residues.
var protect = map[string]bool{
	"H": true, "AC": true, "BOC": true, "OH": true, "NH2": true,
	"CBZ": true, "Z": true, "FMOC": true, "OME": true, "MEO": true,
	"SUC": true, "PYROGLU": true, "PNA": true, "PNP": true,
	"AMC": true, "AFC": true, "ACC": true,
	"FAM": true, "FITC": true, "TAMRA": true, "RHODAMINE": true,
	"BODIPY": true, "EDANS": true, "DABCYL": true, "ALEXA": true,
	"FLUOR": true, "ATTO": true, "DYLIGHT": true, "HILYTE": true,
}

var peptidePrefixes = map[string]bool{"H": true, "AC": true, "BOC": true}

var peptideSuffixes = map[string]bool{"OH": true, "NH2": true}

var (
	// polyRe is case sensitive: polymer notation capitalizes residue codes,
	// and a lowercase match would drag in words like "polymer".
	polyRe      = regexp.MustCompile(`\bpoly\b(?:\s*\(\s*|\s+|-)([A-Za-z]{1,3}(?:[,:\s-]+[A-Za-z]{1,3})*)\)?`)
	compSplitRe = regexp.MustCompile(`[,:\s-]+`)

	keywordRe = regexp.MustCompile(`\b(?:peptide|oligopeptide|polypeptide|substrate|histone)\b`)
	fromPRe   = regexp.MustCompile(`from\s+p\d+`)

	tokenSplitRe    = regexp.MustCompile(`[-:,/+\s]+`)
	residueSuffixRe = regexp.MustCompile(`(?:ine|ane|ene|ate|amide|acid|and|resin)$`)
)

// Detect reports whether text reads as a peptide name. The returned info
// carries the polymer composition or the scanned residue list.
// terminalFluor marks names that carried a fluorophore tag at an end
// position; it relaxes the firing threshold to a single residue, so that
// a labeled amino acid such as FAM-lys classifies as a peptide.
func Detect(text string, terminalFluor bool) (*record.PeptideInfo, bool) {
	lowered := strings.ToLower(text)

	if info := detectPolymer(text); info != nil {
		return info, true
	}

	if keywordRe.MatchString(lowered) || fromPRe.MatchString(lowered) {
		return &record.PeptideInfo{Type: record.PeptideAATerms}, true
	}

	tokens := splitTokens(text)

	hasPrefix := len(tokens) > 0 && peptidePrefixes[strings.ToUpper(tokens[0])]
	hasSuffix := len(tokens) > 0 && peptideSuffixes[strings.ToUpper(tokens[len(tokens)-1])]
	explicitContext := (hasPrefix && hasSuffix) || terminalFluor

	var residues []string
	for _, tok := range tokens {
		up := strings.ToUpper(tok)
		if protect[up] || !isAlphaToken(tok) {
			continue
		}
		if oligo.IsKeyword(tok) || guard.IsNucleotideToken(tok) {
			continue
		}
		switch up {
		case "A", "C", "G", "T", "U", "PS":
			continue
		}
		if len(up) == 1 && strings.ContainsRune(aa1, rune(up[0])) {
			residues = append(residues, strings.ToLower(up))
			continue
		}
		if aa3[titleCase(tok)] {
			residues = append(residues, strings.ToLower(tok))
			continue
		}
		// Bare one-letter-code runs count as residues only from eight
		// letters up, the same floor the nucleotide validator uses.
		// Shorter all-code words are acronyms more often than sequences
		// (DPAT, SAMPLE).
		if len(up) >= 8 && allAA1(up) && !oligo.ValidSequence(up) && !residueSuffixRe.MatchString(strings.ToLower(tok)) {
			for _, c := range strings.ToLower(up) {
				residues = append(residues, string(c))
			}
		}
	}

	if len(residues) >= 2 || (explicitContext && len(residues) > 0) {
		return &record.PeptideInfo{Type: record.PeptideSequenceLike, Residues: residues}, true
	}
	return nil, false
}

// detectPolymer matches poly-Glu:Tyr style composition notation. Every
// component must be a residue code; multi-letter components made entirely
// of one-letter codes expand into individual residues, so poly-EY reads
// the same as poly E Y.
func detectPolymer(text string) *record.PeptideInfo {
	m := polyRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	var comp []string
	for _, tok := range compSplitRe.Split(m[1], -1) {
		if tok == "" {
			continue
		}
		lower := strings.ToLower(tok)
		up := strings.ToUpper(tok)
		switch {
		case len(up) == 1 && strings.ContainsRune(aa1, rune(up[0])):
			comp = append(comp, lower)
		case aa3[titleCase(tok)]:
			comp = append(comp, lower)
		case allAA1(up):
			for _, c := range lower {
				comp = append(comp, string(c))
			}
		default:
			return nil
		}
	}
	if len(comp) == 0 {
		return nil
	}
	return &record.PeptideInfo{
		Type:        record.PeptidePolymer,
		Composition: strings.Join(comp, ":"),
	}
}

func splitTokens(text string) []string {
	var tokens []string
	for _, t := range tokenSplitRe.Split(text, -1) {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func titleCase(tok string) string {
	return strings.ToUpper(tok[:1]) + strings.ToLower(tok[1:])
}

func allAA1(up string) bool {
	if up == "" {
		return false
	}
	for _, c := range up {
		if !strings.ContainsRune(aa1, c) {
			return false
		}
	}
	return true
}

func isAlphaToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
