// Package pipeline sequences the normalization stages over one input name:
// canonicalization, annotation stripping, guard classification, the oligo
// and peptide detectors, the fallback policy for degenerate results and the
// search-name override rules. The output is a finalized NormalizationRecord.
package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/valpere/chemnorm/internal/canon"
	"github.com/valpere/chemnorm/internal/guard"
	"github.com/valpere/chemnorm/internal/oligo"
	"github.com/valpere/chemnorm/internal/peptide"
	"github.com/valpere/chemnorm/internal/record"
	"github.com/valpere/chemnorm/internal/strip"
)

// zAcRe rewrites z-(ac) residue prefixes to the cbz-...(ac) spelling.
var zAcRe = regexp.MustCompile(`(?i)z-\(ac\)\s*([A-Za-z]{3})`)

// Garbage shapes: a single character, a bare two-digit number, a digit
// with an optional space and a trailing a/b/c.
var garbageRes = []*regexp.Regexp{
	regexp.MustCompile(`^.$`),
	regexp.MustCompile(`^\d{2}$`),
	regexp.MustCompile(`^\d\s*[abcABC]$`),
}

func isShortGarbage(name string) bool {
	name = strings.TrimSpace(name)
	for _, re := range garbageRes {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// searchOverrides rewrite SearchName after the display name is fixed.
// Rules run in order and the first hit records its reason; new rules are
// appended to this table, never inlined into Normalize.
var searchOverrides = []struct {
	reason string
	apply  func(r *record.NormalizationRecord, baseClean string) (string, bool)
}{
	{
		// A type-only oligo name renders as "unknown 0mer", which is
		// useless as an external lookup key. Fall back to the minimally
		// cleaned input.
		reason: "oligo_without_sequence",
		apply: func(r *record.NormalizationRecord, baseClean string) (string, bool) {
			if r.Category == record.CategoryOligonucleotide && r.Oligo != nil && len(r.Oligo.Sequences) == 0 {
				return baseClean, true
			}
			return "", false
		},
	},
}

// Normalize cleans one raw compound name and classifies it. The function
// is total: any string input yields a finalized record, with degenerate
// results marked by Status instead of an error. Records are not modified
// after return.
func Normalize(name string) *record.NormalizationRecord {
	rec := record.New(name)
	ledger := rec.Flags

	text := canon.Clean(name)
	baseClean := text

	text = strip.DetectChromophore(text, ledger)
	text = strip.RemoveConcentrations(text, ledger)
	text = strip.StripIsotopes(text, ledger)
	text = strip.SplitFusedSalts(text)
	text = strip.Remove(text, record.FlagSalt, ledger)
	text = strip.Remove(text, record.FlagBiotin, ledger)
	text = strip.Remove(text, record.FlagHydrate, ledger)
	text = strip.RemoveNoise(text, ledger)
	text = canon.FixSpacing(text)

	// Fluorophores come off last: the classifiers below decide whether a
	// tag is stripped or retained, so the detectors first see the name
	// without tags while the tagged form is kept at hand.
	textWithFluor := text
	tmpNoFluor := strip.Remove(textWithFluor, record.FlagFluorophore, record.NewLedger())

	if subtype, guardText := guard.Detect(tmpNoFluor); subtype != "" {
		strip.Remove(textWithFluor, record.FlagFluorophore, ledger)
		text = guardText
		rec.SetSmallMolecule(&record.SmallMoleculeInfo{Subtype: subtype})
	} else {
		pepInfo, isPeptide := peptide.Detect(tmpNoFluor, strip.HasTerminalFluorophore(textWithFluor))
		switch {
		case !isPeptide && !strings.Contains(strings.ToLower(baseClean), "pna") && oligo.HasSignal(textWithFluor):
			parsed, oligoInfo := oligo.Parse(textWithFluor, ledger)
			rec.SetOligo(oligoInfo)
			text = strip.Remove(parsed, record.FlagFluorophore, ledger)
		case isPeptide:
			rec.SetPeptide(pepInfo)
			text = zAcRe.ReplaceAllString(textWithFluor, "cbz-${1}(ac)")
			if hits := strip.FindFluorophores(text); len(hits) > 0 {
				ledger.Add(record.FlagFluorophore, hits...)
			}
			// A single labeled residue keeps its terminal tag in the
			// name; longer peptides keep only tags inside parentheses.
			if len(pepInfo.Residues) != 1 {
				text = strip.RemoveFluorophoresOutsideParens(text)
			}
		default:
			rec.SetSmallMolecule(&record.SmallMoleculeInfo{})
			text = strip.Remove(textWithFluor, record.FlagFluorophore, ledger)
		}
	}

	text = strip.Cleanup(text)

	if rec.Category != record.CategoryOligonucleotide && text == "" {
		text = strip.Cleanup(baseClean)
		if text == "" {
			text = strip.Cleanup(canon.Normalize(name))
		}
		rec.Status = record.StatusEmptyAfterClean
	}

	var normalized string
	if rec.Category == record.CategoryOligonucleotide {
		normalized = oligoDisplayName(rec.Oligo)
	} else if rec.SmallMolecule != nil && rec.SmallMolecule.Subtype == record.SubtypeCyclicNucleotide {
		normalized = canon.FixSpacing(text)
	} else {
		normalized = strings.ToLower(canon.FixSpacing(text))
	}
	rec.NormalizedName = normalized
	rec.SearchName = normalized

	if rec.Status == record.StatusOK && isShortGarbage(normalized) {
		rec.Status = record.StatusEmptyAfterClean
	}

	for _, rule := range searchOverrides {
		if searchName, ok := rule.apply(rec, baseClean); ok {
			rec.SearchName = searchName
			rec.SearchOverrideReason = rule.reason
			break
		}
	}

	rec.Finalize()
	return rec
}

// oligoDisplayName builds the synthetic display name for an oligo record
// from its type and the first parsed sequence length.
func oligoDisplayName(info *record.OligoInfo) string {
	length := 0
	if len(info.Sequences) > 0 {
		length = info.Sequences[0].Length
	}
	var name string
	switch info.Type {
	case record.OligoTypeSiRNA:
		name = fmt.Sprintf("sirna %dmer sense/antisense", length)
	case record.OligoTypeCRISPR:
		name = fmt.Sprintf("crispr grna %dmer", length)
	default:
		name = fmt.Sprintf("%s %dmer", strings.ToLower(info.Type), length)
	}
	return strings.TrimSpace(name)
}
