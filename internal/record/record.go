// Package record defines the output of the name normalization pipeline: the
// per-name NormalizationRecord, the classification payloads and the ledger of
// removed annotation tokens.
package record

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Categories assigned by the pipeline.
const (
	CategoryPeptide         = "peptide"
	CategoryOligonucleotide = "oligonucleotide"
	CategorySmallMolecule   = "small_molecule"
)

// Statuses of a finalized record.
const (
	StatusOK              = "ok"
	StatusEmptyAfterClean = "empty_after_clean"
)

// Ledger flag categories, in the order they appear in RemovedTokensFlat.
const (
	FlagFluorophore   = "fluorophore"
	FlagIsotope       = "isotope"
	FlagBiotin        = "biotin"
	FlagSalt          = "salt"
	FlagHydrate       = "hydrate"
	FlagChromophore   = "chromophore"
	FlagNoise         = "noise"
	FlagParenthetical = "parenthetical"
)

var flatOrder = []string{
	FlagFluorophore,
	FlagIsotope,
	FlagBiotin,
	FlagSalt,
	FlagHydrate,
	FlagChromophore,
	FlagNoise,
	FlagParenthetical,
}

// Peptide payload types.
const (
	PeptideSequenceLike = "sequence_like"
	PeptidePolymer      = "polymer"
	PeptideAATerms      = "aa_terms"
)

// Oligonucleotide payload types.
const (
	OligoTypeSiRNA   = "siRNA"
	OligoTypeCRISPR  = "CRISPR"
	OligoTypeASO     = "ASO"
	OligoTypeRNA     = "RNA"
	OligoTypeDNA     = "DNA"
	OligoTypeUnknown = "UNKNOWN"
)

// Oligonucleotide backbone chemistries.
const (
	BackbonePS = "PS"
	BackbonePO = "PO"
)

// Small-molecule guard subtypes.
const (
	SubtypeCyclicNucleotide     = "cyclic_nucleotide"
	SubtypeNucleotide           = "nucleotide"
	SubtypeCofactor             = "cofactor"
	SubtypeCholine              = "choline"
	SubtypeFluorogenicGlycoside = "fluorogenic_glycoside"
	SubtypeDye                  = "dye"
)

// Ledger accumulates the annotation tokens removed from a name, grouped by
// flag category. Token order within a category is removal order; duplicates
// are kept.
type Ledger struct {
	tokens map[string][]string

	// Oligo holds the oligonucleotide bookkeeping recorded by the oligo
	// parser alongside the token categories.
	Oligo OligoFlags
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{tokens: make(map[string][]string)}
}

// Add appends tokens to a flag category.
func (l *Ledger) Add(category string, tokens ...string) {
	if len(tokens) == 0 {
		return
	}
	l.tokens[category] = append(l.tokens[category], tokens...)
}

// Get returns the tokens recorded for a category, in removal order.
func (l *Ledger) Get(category string) []string {
	return l.tokens[category]
}

// Has reports whether at least one token was recorded for a category.
func (l *Ledger) Has(category string) bool {
	return len(l.tokens[category]) > 0
}

// Flat renders the ledger as "<category>:<token>" pairs joined by "|".
// Categories appear in the fixed flatOrder, tokens in removal order.
func (l *Ledger) Flat() string {
	var parts []string
	for _, key := range flatOrder {
		for _, token := range l.tokens[key] {
			parts = append(parts, key+":"+token)
		}
	}
	return strings.Join(parts, "|")
}

// MarshalJSON renders the ledger as a plain category-to-tokens object. The
// oligo bookkeeping entries are merged in under their oligo_* keys once the
// oligo parser has run.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(l.tokens)+5)
	for k, v := range l.tokens {
		out[k] = v
	}
	if l.Oligo.Present {
		out["oligo"] = 1
		out["oligo_type"] = l.Oligo.Type
		out["oligo_mods"] = l.Oligo.Mods
		out["oligo_roles"] = l.Oligo.Roles
		out["oligo_len_total"] = l.Oligo.LenTotal
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the ledger from its marshaled object form, so
// records survive a round trip through checkpoint JSON.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.tokens = make(map[string][]string, len(raw))
	l.Oligo = OligoFlags{}
	for key, value := range raw {
		switch key {
		case "oligo":
			l.Oligo.Present = true
		case "oligo_type":
			if err := json.Unmarshal(value, &l.Oligo.Type); err != nil {
				return err
			}
		case "oligo_mods":
			if err := json.Unmarshal(value, &l.Oligo.Mods); err != nil {
				return err
			}
		case "oligo_roles":
			if err := json.Unmarshal(value, &l.Oligo.Roles); err != nil {
				return err
			}
		case "oligo_len_total":
			if err := json.Unmarshal(value, &l.Oligo.LenTotal); err != nil {
				return err
			}
		default:
			var tokens []string
			if err := json.Unmarshal(value, &tokens); err != nil {
				return err
			}
			l.tokens[key] = tokens
		}
	}
	return nil
}

// OligoFlags carries the oligonucleotide bookkeeping attached to the ledger.
// Present is true once the oligo parser has run, even when it found no
// sequences.
type OligoFlags struct {
	Present  bool     `json:"present"`
	Type     string   `json:"type,omitempty"`
	Mods     []string `json:"mods,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	LenTotal int      `json:"len_total"`
}

// Flat renders the oligo bookkeeping as "oligo_type:T|oligo_mod:M|...|
// oligo_role:R|...|oligo_len_total:N". Empty when the parser never ran.
func (o *OligoFlags) Flat() string {
	var parts []string
	if o.Type != "" {
		parts = append(parts, "oligo_type:"+o.Type)
	}
	for _, mod := range o.Mods {
		parts = append(parts, "oligo_mod:"+mod)
	}
	for _, role := range o.Roles {
		parts = append(parts, "oligo_role:"+role)
	}
	if o.Present {
		parts = append(parts, "oligo_len_total:"+strconv.Itoa(o.LenTotal))
	}
	return strings.Join(parts, "|")
}

// PeptideInfo describes a peptide classification.
type PeptideInfo struct {
	Type        string   `json:"type"`
	Composition string   `json:"composition,omitempty"`
	Residues    []string `json:"residues,omitempty"`
}

// Sequence is one nucleotide sequence recovered from an oligo name.
type Sequence struct {
	Role   string `json:"role"`
	Seq    string `json:"seq"`
	Length int    `json:"length"`
}

// Mods lists the synthesis modifications of an oligo by position.
type Mods struct {
	FivePrime  []string `json:"five_prime"`
	ThreePrime []string `json:"three_prime"`
	Internal   []string `json:"internal"`
	Backbone   string   `json:"backbone"`
}

// OligoInfo describes an oligonucleotide classification.
type OligoInfo struct {
	Type      string     `json:"type"`
	Subtype   string     `json:"subtype"`
	Sequences []Sequence `json:"sequences"`
	Mods      Mods       `json:"mods"`
}

// SmallMoleculeInfo describes a small-molecule classification. Subtype is
// empty unless a guard pattern matched.
type SmallMoleculeInfo struct {
	Subtype string `json:"subtype,omitempty"`
}

// NormalizationRecord is the result of normalizing one input name.
type NormalizationRecord struct {
	InputName            string `json:"input_name"`
	NormalizedName       string `json:"normalized_name"`
	SearchName           string `json:"search_name"`
	SearchOverrideReason string `json:"search_override_reason"`
	Category             string `json:"category"`
	Status               string `json:"status"`

	Peptide       *PeptideInfo       `json:"peptide_info,omitempty"`
	Oligo         *OligoInfo         `json:"oligo_info,omitempty"`
	SmallMolecule *SmallMoleculeInfo `json:"small_molecule_info,omitempty"`

	Flags *Ledger `json:"flags"`

	RemovedTokensFlat string `json:"removed_tokens_flat"`
	OligoTokensFlat   string `json:"oligo_tokens_flat"`

	FlagIsotope         bool `json:"flag_isotope"`
	FlagFluorophore     bool `json:"flag_fluorophore"`
	FlagBiotin          bool `json:"flag_biotin"`
	FlagSalt            bool `json:"flag_salt"`
	FlagHydrate         bool `json:"flag_hydrate"`
	FlagChromophore     bool `json:"flag_chromophore"`
	FlagNoise           bool `json:"flag_noise"`
	FlagOligo           bool `json:"flag_oligo"`
	FlagEmptyAfterClean bool `json:"flag_empty_after_clean"`
}

// New returns a record for one input name with an empty ledger.
func New(inputName string) *NormalizationRecord {
	return &NormalizationRecord{
		InputName: inputName,
		Status:    StatusOK,
		Flags:     NewLedger(),
	}
}

// SetPeptide assigns the peptide payload and category.
func (r *NormalizationRecord) SetPeptide(info *PeptideInfo) {
	r.setPayload(CategoryPeptide, info, nil, nil)
}

// SetOligo assigns the oligonucleotide payload and category.
func (r *NormalizationRecord) SetOligo(info *OligoInfo) {
	r.setPayload(CategoryOligonucleotide, nil, info, nil)
}

// SetSmallMolecule assigns the small-molecule payload and category.
func (r *NormalizationRecord) SetSmallMolecule(info *SmallMoleculeInfo) {
	r.setPayload(CategorySmallMolecule, nil, nil, info)
}

// setPayload is the single place that writes category and payload, so that
// exactly one payload is live at any time.
func (r *NormalizationRecord) setPayload(category string, p *PeptideInfo, o *OligoInfo, s *SmallMoleculeInfo) {
	r.Category = category
	r.Peptide = p
	r.Oligo = o
	r.SmallMolecule = s
}

// Finalize computes the flattened flag strings and the derived booleans from
// the ledger. Call once, after the last stage has written its tokens.
func (r *NormalizationRecord) Finalize() {
	r.RemovedTokensFlat = r.Flags.Flat()
	r.OligoTokensFlat = r.Flags.Oligo.Flat()

	r.FlagIsotope = r.Flags.Has(FlagIsotope)
	r.FlagFluorophore = r.Flags.Has(FlagFluorophore)
	r.FlagBiotin = r.Flags.Has(FlagBiotin)
	r.FlagSalt = r.Flags.Has(FlagSalt)
	r.FlagHydrate = r.Flags.Has(FlagHydrate)
	r.FlagChromophore = r.Flags.Has(FlagChromophore)
	r.FlagNoise = r.Flags.Has(FlagNoise)
	r.FlagOligo = r.Flags.Oligo.Present
	r.FlagEmptyAfterClean = r.Status == StatusEmptyAfterClean
}
