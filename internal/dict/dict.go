// Package dict builds a synonym dictionary from annotated compound rows.
// Records whose InChIKey first blocks collide are treated as isotope
// variants of one compound and merged under a single canonical name.
package dict

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/valpere/chemnorm/internal"
	"github.com/valpere/chemnorm/internal/pubchem"
)

// DefaultExclusions lists names that must never become isotope-merge
// targets. These are assay ligand labels that share an InChIKey block
// with an unrelated parent compound.
var DefaultExclusions = []string{
	"(+)-pentazocine",
	"(r)-qnb",
	"af-dx 384",
	"crotonyl-coa",
	"dd-coa",
	"dodecenoyl-coa",
	"ethylketazocine",
	"gtpgammas",
	"l-alpha-phosphatidylinositol",
	"l-dihydroorotate",
	"l-glyceraldehyde",
	"leu-mca",
	"r-pia",
	"rr-src",
}

var sentinelValues = map[string]bool{
	pubchem.CIDTooShort: true,
	pubchem.CIDUnknown:  true,
	pubchem.CIDMultiple: true,
}

// Row is one annotated input to the builder.
type Row struct {
	SearchName string
	Compound   internal.CompoundRecord
}

// Entry is one synonym → canonical name mapping.
type Entry struct {
	Synonym           string
	CanonicalName     string
	CID               string
	InChIKey          string
	MergeIndex        int
	ReferenceSynonyms string
}

type working struct {
	index    int
	name     string
	cid      string
	inchiKey string
	key1     string
	key3     string
	count    int
	synonyms []string
}

// Build derives synonym entries from annotated rows. Rows whose synonyms
// field is a sentinel lookup outcome are dropped. Pass nil exclusions to
// use DefaultExclusions; names are compared case-insensitively.
func Build(rows []Row, exclusions []string) []Entry {
	if exclusions == nil {
		exclusions = DefaultExclusions
	}
	excluded := make(map[string]bool, len(exclusions))
	for _, name := range exclusions {
		excluded[strings.ToLower(name)] = true
	}

	var work []*working
	for _, row := range rows {
		synonymsField := strings.ToLower(strings.TrimSpace(row.Compound.Synonyms))
		if sentinelValues[synonymsField] {
			continue
		}
		name := strings.TrimSpace(row.SearchName)
		w := &working{
			index:    len(work),
			name:     name,
			cid:      strings.TrimSpace(row.Compound.CID),
			inchiKey: strings.TrimSpace(row.Compound.InChIKey),
			synonyms: collectSynonyms(name, synonymsField, row.Compound.IUPACName),
		}
		w.key1, w.key3 = splitInChIKey(w.inchiKey)
		work = append(work, w)
	}

	// Count distinct compounds per first key block, standard protonation
	// only. Duplicate CIDs count once.
	seenCID := make(map[string]bool)
	counts := make(map[string]int)
	for _, w := range work {
		if seenCID[w.cid] {
			continue
		}
		seenCID[w.cid] = true
		if w.key3 == "N" && w.key1 != "" {
			counts[w.key1]++
		}
	}
	for _, w := range work {
		w.count = counts[w.key1]
	}

	ordered := make([]*working, len(work))
	copy(ordered, work)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].key1 > ordered[j].key1
	})

	// Merge targets: any row in a multi-member (or uncounted) key block
	// with standard protonation whose name is not excluded.
	poolByKey1 := make(map[string][]*working)
	for _, w := range ordered {
		if w.count != 1 && w.key3 == "N" && !excluded[strings.ToLower(w.name)] {
			poolByKey1[w.key1] = append(poolByKey1[w.key1], w)
		}
	}

	type combinedRow struct {
		name       string
		cid        string
		inchiKey   string
		mergeIndex int
		matched    bool
		synonyms   []string
	}

	// Key blocks of size 2 or 3 are isotope-variant groups: each member
	// contributes its synonyms to every merge target in the block.
	// Singletons map to themselves; anything else drops out.
	var combined []combinedRow
	for _, w := range ordered {
		switch {
		case w.count == 2 || w.count == 3:
			targets := poolByKey1[w.key1]
			if len(targets) == 0 {
				combined = append(combined, combinedRow{
					mergeIndex: w.index,
					synonyms:   w.synonyms,
				})
				continue
			}
			for _, p := range targets {
				combined = append(combined, combinedRow{
					name:       p.name,
					cid:        p.cid,
					inchiKey:   p.inchiKey,
					mergeIndex: p.index,
					matched:    true,
					synonyms:   w.synonyms,
				})
			}
		case w.count == 1:
			combined = append(combined, combinedRow{
				name:       w.name,
				cid:        w.cid,
				inchiKey:   w.inchiKey,
				mergeIndex: w.index,
				matched:    true,
				synonyms:   w.synonyms,
			})
		}
	}

	type groupKey struct {
		name       string
		cid        string
		inchiKey   string
		mergeIndex int
		matched    bool
	}

	agg := make(map[groupKey][]string)
	for _, row := range combined {
		key := groupKey{row.name, row.cid, row.inchiKey, row.mergeIndex, row.matched}
		agg[key] = appendDedup(agg[key], row.synonyms)
	}

	keys := make([]groupKey, 0, len(agg))
	for k := range agg {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.matched != b.matched {
			return a.matched
		}
		if a.name != b.name {
			return a.name < b.name
		}
		if a.cid != b.cid {
			return a.cid < b.cid
		}
		if a.inchiKey != b.inchiKey {
			return a.inchiKey < b.inchiKey
		}
		return a.mergeIndex < b.mergeIndex
	})

	// Explode groups to one entry per synonym. A synonym claimed by an
	// earlier group is not repeated under a later one.
	var entries []Entry
	seenSynonym := make(map[string]bool)
	for _, k := range keys {
		synonyms := agg[k]
		reference := strings.Join(synonyms, "|")
		for _, syn := range synonyms {
			if seenSynonym[syn] {
				continue
			}
			seenSynonym[syn] = true
			entries = append(entries, Entry{
				Synonym:           syn,
				CanonicalName:     k.name,
				CID:               k.cid,
				InChIKey:          k.inchiKey,
				MergeIndex:        k.mergeIndex,
				ReferenceSynonyms: reference,
			})
		}
	}
	return entries
}

// ExportCSV writes entries in the dictionary's canonical column order.
func ExportCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	header := []string{"synonyms", "preferent_name", "pubchem_cid", "inchi_key", "merge_index", "reference_synonyms"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{e.Synonym, e.CanonicalName, e.CID, e.InChIKey, strconv.Itoa(e.MergeIndex), e.ReferenceSynonyms}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// collectSynonyms joins the lowercased search name, the synonym list and
// the IUPAC name into one deduplicated list.
func collectSynonyms(name, synonymsLower, iupac string) []string {
	items := []string{strings.ToLower(name)}
	for _, part := range strings.Split(synonymsLower, "|") {
		items = append(items, strings.TrimSpace(part))
	}
	items = append(items, strings.ToLower(strings.TrimSpace(iupac)))

	var out []string
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// splitInChIKey returns the first and third blocks of an InChIKey, or
// empty strings when the key does not have exactly three blocks.
func splitInChIKey(key string) (string, string) {
	if key == "" {
		return "", ""
	}
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(key)), "-")
	if len(parts) != 3 {
		return "", ""
	}
	return parts[0], parts[2]
}

func appendDedup(dst []string, items []string) []string {
	for _, item := range items {
		exists := false
		for _, have := range dst {
			if have == item {
				exists = true
				break
			}
		}
		if !exists {
			dst = append(dst, item)
		}
	}
	return dst
}
