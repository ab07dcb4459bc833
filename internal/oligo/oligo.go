// Package oligo detects oligonucleotide names and parses sequences, role
// annotations and synthesis modifications out of them.
package oligo

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/valpere/chemnorm/internal/record"
	"github.com/valpere/chemnorm/internal/strip"
)

// keywords flag a name as potentially oligonucleotide. They are matched as
// whole words against the lowercased text.
var keywords = []string{
	"oligo",
	"oligonucleotide",
	"primer",
	"probe",
	"aptamer",
	"sirna",
	"shrna",
	"mirna",
	"antisense",
	"sense",
	"aso",
	"morpholino",
	"gapmer",
	"lna",
	"grna",
	"sgrna",
	"crrna",
	"tracrrna",
	"ribo",
	"g-block",
	"gene fragment",
	"dna",
	"rna",
	"guide",
	"target",
	"protospacer",
	"pam",
}

var keywordSet = buildKeywordSet()

func buildKeywordSet() map[string]bool {
	m := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		m[k] = true
	}
	return m
}

// IsKeyword reports whether token is an oligonucleotide keyword. The
// peptide detector consults this to keep nucleotide vocabulary out of its
// residue scan.
func IsKeyword(token string) bool {
	return keywordSet[strings.ToLower(token)]
}

var (
	keywordRe      = regexp.MustCompile(`\b(?:` + strings.Join(keywords, `|`) + `)\b`)
	slashModRe     = regexp.MustCompile(`/([^/]+)/`)
	primeMarkRe    = regexp.MustCompile(`5['′]|3['′]`)
	fiveDashRe     = regexp.MustCompile(`5['′]?-(\w{1,6})-`)
	threeDashRe    = regexp.MustCompile(`-(\w{1,6})-3['′]?`)
	barePrimeRe    = regexp.MustCompile(`5['′]?|3['′]?`)
	psWordRe       = regexp.MustCompile(`(?i)\bps\b`)
	candidateSeqRe = regexp.MustCompile(`(?i)\b[ACGTURYKMSWBDHVN]{8,}\b`)
	roleRe         = regexp.MustCompile(`(?i)(sense|antisense|guide|tracrrna|crrna)[:\s]+([-ACGTURYKMSWBDHVN\s]+)`)
	remainingSeqRe = regexp.MustCompile(`(?i)[ACGTURYKMSWBDHVN*-]{8,}`)
)

// nonNucRe scrubs strand bodies before validation and is case sensitive:
// lowercase letters read as overhang or chemistry annotations and drop out
// instead of counting as sequence. aminoLetterRe rejects candidates that
// read as protein abbreviations, including the otherwise legal degenerate
// code M.
var (
	nonNucRe      = regexp.MustCompile(`[^ACGTURYKMSWBDHVN]`)
	aminoLetterRe = regexp.MustCompile(`[EFILMPQZ]`)
)

// ValidSequence reports whether seq is a plausible nucleotide sequence:
// IUPAC nucleotide letters only, at least eight of them, at least 60%
// concrete bases and at most 40% degenerate codes.
func ValidSequence(seq string) bool {
	seq = strings.ToUpper(seq)
	if nonNucRe.MatchString(seq) {
		return false
	}
	if len(seq) < 8 {
		return false
	}
	bases, degens := 0, 0
	for _, c := range seq {
		if strings.ContainsRune("ACGTU", c) {
			bases++
		}
		if strings.ContainsRune("RYSWKMBDHVN", c) {
			degens++
		}
	}
	if float64(bases)/float64(len(seq)) < 0.6 {
		return false
	}
	if float64(degens)/float64(len(seq)) > 0.4 {
		return false
	}
	return !aminoLetterRe.MatchString(seq)
}

// HasSignal reports whether text carries an oligonucleotide hint: a
// keyword, a vendor slash tag, a 5'/3' prime mark, or a sequence run that
// passes ValidSequence.
func HasSignal(text string) bool {
	if keywordRe.MatchString(strings.ToLower(text)) {
		return true
	}
	if slashModRe.MatchString(text) || primeMarkRe.MatchString(text) {
		return true
	}
	for _, seq := range candidateSeqRe.FindAllString(text, -1) {
		if ValidSequence(seq) {
			return true
		}
	}
	return false
}

// Parse extracts sequences, strand roles and synthesis modifications from
// an oligonucleotide name. The returned text has every recognized segment
// blanked so later stages operate on residual words only. Fluorophore and
// biotin names found inside modification tags are ledgered, and the oligo
// bookkeeping flags are filled in on the ledger.
func Parse(text string, ledger *record.Ledger) (string, *record.OligoInfo) {
	mods := record.Mods{
		FivePrime:  []string{},
		ThreePrime: []string{},
		Internal:   []string{},
	}
	sequences := []record.Sequence{}
	var roles []string
	origLower := strings.ToLower(text)

	// Vendor tags such as /5Phos/, /3Bio/ and /iBiodT/.
	for _, m := range slashModRe.FindAllStringSubmatch(text, -1) {
		token := m[1]
		switch {
		case strings.HasPrefix(token, "5"):
			mod := token[1:]
			mods.FivePrime = append(mods.FivePrime, mod)
			if strings.Contains(strings.ToLower(mod), "bio") {
				ledger.Add(record.FlagBiotin, mod)
			}
		case strings.HasPrefix(token, "3"):
			mod := token[1:]
			mods.ThreePrime = append(mods.ThreePrime, mod)
			if strings.Contains(strings.ToLower(mod), "bio") {
				ledger.Add(record.FlagBiotin, mod)
			}
		default:
			mods.Internal = append(mods.Internal, token)
		}
		if strip.HasFluorophore(token) {
			ledger.Add(record.FlagFluorophore, token)
		}
		text = strings.ReplaceAll(text, "/"+token+"/", " ")
	}

	// Dash-attached end modifications, 5'-FAM- and -BHQ1-3'.
	text = fiveDashRe.ReplaceAllStringFunc(text, func(m string) string {
		token := fiveDashRe.FindStringSubmatch(m)[1]
		mods.FivePrime = append(mods.FivePrime, token)
		if strip.HasFluorophore(token) {
			ledger.Add(record.FlagFluorophore, token)
		}
		if strings.HasPrefix(strings.ToLower(token), "bio") {
			ledger.Add(record.FlagBiotin, token)
		}
		return ""
	})
	text = threeDashRe.ReplaceAllStringFunc(text, func(m string) string {
		token := threeDashRe.FindStringSubmatch(m)[1]
		mods.ThreePrime = append(mods.ThreePrime, token)
		if strip.HasFluorophore(token) {
			ledger.Add(record.FlagFluorophore, token)
		}
		if strings.HasPrefix(strings.ToLower(token), "bio") {
			ledger.Add(record.FlagBiotin, token)
		}
		return ""
	})
	text = barePrimeRe.ReplaceAllString(text, "")

	if strings.Contains(text, "*") || psWordRe.MatchString(text) {
		mods.Backbone = record.BackbonePS
	} else {
		mods.Backbone = record.BackbonePO
	}

	// Role-annotated strands. Matches come from the text before any strand
	// is blanked, so a replacement cannot hide a later role.
	for _, m := range roleRe.FindAllStringSubmatch(text, -1) {
		role := strings.ToLower(m[1])
		cleaned := nonNucRe.ReplaceAllString(m[2], "")
		if ValidSequence(cleaned) {
			sequences = append(sequences, record.Sequence{Role: role, Seq: cleaned, Length: len(cleaned)})
			roles = append(roles, role)
		}
		text = strings.ReplaceAll(text, m[0], " ")
	}

	// Sequence runs left without an explicit role.
	for _, seqMatch := range remainingSeqRe.FindAllString(text, -1) {
		cleaned := nonNucRe.ReplaceAllString(seqMatch, "")
		if ValidSequence(cleaned) {
			role := "sense"
			if len(roles) > 0 {
				role = "seq" + strconv.Itoa(len(roles)+1)
			}
			sequences = append(sequences, record.Sequence{Role: role, Seq: cleaned, Length: len(cleaned)})
			roles = append(roles, role)
		}
		text = strings.ReplaceAll(text, seqMatch, " ")
	}

	totalLen := 0
	var concat strings.Builder
	for _, s := range sequences {
		totalLen += s.Length
		concat.WriteString(s.Seq)
	}
	joined := concat.String()
	hasU := strings.Contains(joined, "U")
	hasT := strings.Contains(joined, "T")

	oligoType := record.OligoTypeUnknown
	switch {
	case hasU && !hasT:
		oligoType = record.OligoTypeRNA
	case hasT && !hasU:
		oligoType = record.OligoTypeDNA
	}
	switch {
	case strings.Contains(origLower, "sirna") ||
		(slices.Contains(roles, "sense") && slices.Contains(roles, "antisense")):
		oligoType = record.OligoTypeSiRNA
	case containsAny(origLower, "grna", "sgrna", "crrna", "tracrrna"):
		oligoType = record.OligoTypeCRISPR
	case containsAny(origLower, "aso", "antisense") || mods.Backbone == record.BackbonePS:
		oligoType = record.OligoTypeASO
	}

	subtype := "NONE"
	switch {
	case strings.Contains(origLower, "aptamer"):
		subtype = "aptamer"
	case strings.Contains(origLower, "primer"):
		subtype = "primer"
	case strings.Contains(origLower, "probe"):
		subtype = "probe"
	}

	info := &record.OligoInfo{
		Type:      oligoType,
		Subtype:   subtype,
		Sequences: sequences,
		Mods:      mods,
	}

	flat := make([]string, 0, len(mods.FivePrime)+len(mods.ThreePrime)+len(mods.Internal))
	flat = append(flat, mods.FivePrime...)
	flat = append(flat, mods.ThreePrime...)
	flat = append(flat, mods.Internal...)
	ledger.Oligo = record.OligoFlags{
		Present:  true,
		Type:     oligoType,
		Mods:     flat,
		Roles:    roles,
		LenTotal: totalLen,
	}

	return text, info
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
