// Package csvio reads compound name lists and writes normalization records
// as flat CSV. Input reading detects the field separator and falls back to a
// Windows-1251 decode when the file is not valid UTF-8.
package csvio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/valpere/chemnorm/internal"
	"github.com/valpere/chemnorm/internal/record"
)

// sniffSample is how many leading lines vote on the separator.
const sniffSample = 10

var sniffSeparators = []rune{',', ';', '\t'}

// recordHeader is the flattened normalization schema, one column per record
// field with the classification payloads rendered as JSON.
var recordHeader = []string{
	"input_name",
	"normalized_name",
	"search_name",
	"search_override_reason",
	"category",
	"peptide_info",
	"oligo_info",
	"small_molecule_info",
	"flags",
	"removed_tokens_flat",
	"oligo_tokens_flat",
	"status",
	"flag_isotope",
	"flag_fluorophore",
	"flag_biotin",
	"flag_salt",
	"flag_hydrate",
	"flag_oligo",
	"flag_chromophore",
	"flag_noise",
	"flag_empty_after_clean",
}

// annotatedHeader appends the resolver columns to the record schema.
var annotatedHeader = append(append([]string{}, recordHeader...),
	"pubchem_cid",
	"canonical_smiles",
	"inchi",
	"inchi_key",
	"molecular_formula",
	"molecular_weight",
	"iupac_name",
	"synonyms",
)

// ReadNames reads the input_name column from a CSV file. The header row must
// contain an input_name column (case-insensitive). Rows whose field count
// disagrees with the header, typically names with unescaped separators, are
// kept as whole-line values.
func ReadNames(path string) ([]string, error) {
	lines, sep, err := readLines(path)
	if err != nil {
		return nil, err
	}

	header, err := parseLine(lines[0], sep)
	if err != nil {
		header = []string{strings.TrimSpace(lines[0])}
	}
	col := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "input_name") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("missing required column %q in header", "input_name")
	}

	names := make([]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields, err := parseLine(line, sep)
		if err != nil || len(fields) != len(header) {
			names = append(names, strings.TrimSpace(line))
			continue
		}
		names = append(names, strings.TrimSpace(fields[col]))
	}
	return names, nil
}

// ReadTable reads a whole CSV file with separator and encoding detection and
// returns the header row and the data rows.
func ReadTable(path string) ([]string, [][]string, error) {
	lines, sep, err := readLines(path)
	if err != nil {
		return nil, nil, err
	}

	r := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	r.Comma = sep
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("input file is empty")
	}
	return rows[0], rows[1:], nil
}

// WriteRecords writes normalization records as CSV using the flattened
// record schema.
func WriteRecords(path string, records []*record.NormalizationRecord) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, recordHeader)
	for _, rec := range records {
		rows = append(rows, recordRow(rec))
	}
	return writeAll(path, rows)
}

// WriteAnnotated writes normalization records with their resolver columns.
// compounds must be parallel to records.
func WriteAnnotated(path string, records []*record.NormalizationRecord, compounds []internal.CompoundRecord) error {
	if len(compounds) != len(records) {
		return fmt.Errorf("record and compound counts differ: %d vs %d", len(records), len(compounds))
	}
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, annotatedHeader)
	for i, rec := range records {
		row := append(recordRow(rec), compoundColumns(compounds[i])...)
		rows = append(rows, row)
	}
	return writeAll(path, rows)
}

func recordRow(rec *record.NormalizationRecord) []string {
	peptideJSON := ""
	if rec.Peptide != nil {
		peptideJSON = toJSON(rec.Peptide)
	}
	oligoJSON := ""
	if rec.Oligo != nil {
		oligoJSON = toJSON(rec.Oligo)
	}
	smallJSON := ""
	if rec.SmallMolecule != nil {
		smallJSON = toJSON(rec.SmallMolecule)
	}
	flagsJSON := ""
	if rec.Flags != nil {
		flagsJSON = toJSON(rec.Flags)
	}
	return []string{
		rec.InputName,
		rec.NormalizedName,
		rec.SearchName,
		rec.SearchOverrideReason,
		rec.Category,
		peptideJSON,
		oligoJSON,
		smallJSON,
		flagsJSON,
		rec.RemovedTokensFlat,
		rec.OligoTokensFlat,
		rec.Status,
		strconv.FormatBool(rec.FlagIsotope),
		strconv.FormatBool(rec.FlagFluorophore),
		strconv.FormatBool(rec.FlagBiotin),
		strconv.FormatBool(rec.FlagSalt),
		strconv.FormatBool(rec.FlagHydrate),
		strconv.FormatBool(rec.FlagOligo),
		strconv.FormatBool(rec.FlagChromophore),
		strconv.FormatBool(rec.FlagNoise),
		strconv.FormatBool(rec.FlagEmptyAfterClean),
	}
}

func compoundColumns(c internal.CompoundRecord) []string {
	return []string{
		c.CID,
		c.CanonicalSMILES,
		c.InChI,
		c.InChIKey,
		c.MolecularFormula,
		c.MolecularWeight,
		c.IUPACName,
		c.Synonyms,
	}
}

// readLines loads a file, decodes it, strips a leading BOM and splits it
// into lines with the sniffed separator.
func readLines(path string) ([]string, rune, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open input CSV: %w", err)
	}
	text := decodeText(data)
	text = strings.TrimPrefix(text, "\uFEFF")
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, 0, fmt.Errorf("input file is empty")
	}
	return lines, sniffSeparator(lines), nil
}

// decodeText returns the file content as UTF-8, decoding from Windows-1251
// when the raw bytes are not valid UTF-8.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.Windows1251.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// sniffSeparator picks the separator by majority vote: each sample line
// votes for the candidate occurring most often in it.
func sniffSeparator(lines []string) rune {
	sample := lines
	if len(sample) > sniffSample {
		sample = sample[:sniffSample]
	}
	wins := make(map[rune]int, len(sniffSeparators))
	for _, line := range sample {
		best := ','
		bestCount := 0
		for _, sep := range sniffSeparators {
			if n := strings.Count(line, string(sep)); n > bestCount {
				best, bestCount = sep, n
			}
		}
		if bestCount > 0 {
			wins[best]++
		}
	}
	best := ','
	bestWins := 0
	for _, sep := range sniffSeparators {
		if wins[sep] > bestWins {
			best, bestWins = sep, wins[sep]
		}
	}
	return best
}

func parseLine(line string, sep rune) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = sep
	return r.Read()
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func writeAll(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output CSV: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write output CSV: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush output CSV: %w", err)
	}
	return nil
}
