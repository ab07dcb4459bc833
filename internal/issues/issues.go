// Package issues screens finished normalization records for suspicious
// oligonucleotide outcomes worth a human look.
package issues

import (
	"fmt"
	"strings"

	"github.com/valpere/chemnorm/internal/oligo"
	"github.com/valpere/chemnorm/internal/record"
)

// Finding codes.
const (
	CodeOligoMissed      = "oligo_missed"
	CodeOligoParseFailed = "oligo_parse_failed"
	CodeOligoModUnparsed = "oligo_mod_unparsed"
	CodeOligoLenSuspect  = "oligo_len_suspect"
)

// Plausible bounds for a synthesized oligo, in nucleotides.
const (
	minPlausibleLen = 8
	maxPlausibleLen = 200
)

// Finding flags one suspicious record.
type Finding struct {
	Row    int
	Code   string
	Detail string
}

// Check screens records in input order. Row numbers are zero-based.
func Check(records []*record.NormalizationRecord) []Finding {
	var findings []Finding
	for row, rec := range records {
		findings = append(findings, checkRecord(row, rec)...)
	}
	return findings
}

func checkRecord(row int, rec *record.NormalizationRecord) []Finding {
	var findings []Finding

	if rec.Category != record.CategoryOligonucleotide {
		// Guarded subtypes (cyclic nucleotides and friends) carry prime
		// marks on purpose and are deliberate non-oligo outcomes.
		guarded := rec.SmallMolecule != nil && rec.SmallMolecule.Subtype != ""
		if !guarded && oligo.HasSignal(rec.InputName) {
			findings = append(findings, Finding{
				Row:    row,
				Code:   CodeOligoMissed,
				Detail: fmt.Sprintf("input %q carries an oligo signal but was classified %s", rec.InputName, rec.Category),
			})
		}
		return findings
	}

	info := rec.Oligo
	if info == nil {
		findings = append(findings, Finding{
			Row:    row,
			Code:   CodeOligoParseFailed,
			Detail: "oligonucleotide record has no parsed oligo info",
		})
		return findings
	}

	if len(info.Sequences) == 0 {
		findings = append(findings, Finding{
			Row:    row,
			Code:   CodeOligoParseFailed,
			Detail: fmt.Sprintf("oligonucleotide %q has no parsed sequences", rec.InputName),
		})
	}

	if missing := unparsedMods(rec); len(missing) > 0 {
		findings = append(findings, Finding{
			Row:    row,
			Code:   CodeOligoModUnparsed,
			Detail: fmt.Sprintf("mods %s missing from the oligo ledger", strings.Join(missing, ", ")),
		})
	}

	total := 0
	for _, seq := range info.Sequences {
		total += seq.Length
	}
	if total != 0 && (total < minPlausibleLen || total > maxPlausibleLen) {
		findings = append(findings, Finding{
			Row:    row,
			Code:   CodeOligoLenSuspect,
			Detail: fmt.Sprintf("total sequence length %d outside the plausible synthesis range", total),
		})
	}

	return findings
}

// unparsedMods returns positional mods recorded on the oligo info that
// are absent from the ledger's oligo bookkeeping.
func unparsedMods(rec *record.NormalizationRecord) []string {
	info := rec.Oligo
	var all []string
	all = append(all, info.Mods.FivePrime...)
	all = append(all, info.Mods.ThreePrime...)
	all = append(all, info.Mods.Internal...)
	if len(all) == 0 {
		return nil
	}

	ledgered := make(map[string]bool)
	if rec.Flags != nil {
		for _, mod := range rec.Flags.Oligo.Mods {
			ledgered[mod] = true
		}
	}

	var missing []string
	for _, mod := range all {
		if !ledgered[mod] {
			missing = append(missing, mod)
		}
	}
	return missing
}

// CodesByRow collapses findings to one pipe-joined code string per row,
// ready for the issues CSV column.
func CodesByRow(findings []Finding) map[int]string {
	grouped := make(map[int][]string)
	for _, f := range findings {
		grouped[f.Row] = append(grouped[f.Row], f.Code)
	}
	out := make(map[int]string, len(grouped))
	for row, codes := range grouped {
		out[row] = strings.Join(codes, "|")
	}
	return out
}
