package issues

import (
	"testing"

	"github.com/valpere/chemnorm/internal/pipeline"
	"github.com/valpere/chemnorm/internal/record"
)

func TestCheck_OligoMissed(t *testing.T) {
	records := []*record.NormalizationRecord{
		{InputName: "custom antisense compound", Category: record.CategorySmallMolecule},
	}

	findings := Check(records)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Code != CodeOligoMissed {
		t.Errorf("expected %s, got %s", CodeOligoMissed, findings[0].Code)
	}
	if findings[0].Row != 0 {
		t.Errorf("expected row 0, got %d", findings[0].Row)
	}
}

func TestCheck_GuardedSubtypeNotMissed(t *testing.T) {
	records := []*record.NormalizationRecord{
		{
			InputName:     "3',5'-cAMP",
			Category:      record.CategorySmallMolecule,
			SmallMolecule: &record.SmallMoleculeInfo{Subtype: record.SubtypeCyclicNucleotide},
		},
	}

	findings := Check(records)
	if len(findings) != 0 {
		t.Errorf("expected no findings for a guarded subtype, got %+v", findings)
	}
}

func TestCheck_PlainSmallMolecule(t *testing.T) {
	records := []*record.NormalizationRecord{
		{InputName: "aspirin", Category: record.CategorySmallMolecule},
	}

	findings := Check(records)
	if len(findings) != 0 {
		t.Errorf("expected no findings, got %+v", findings)
	}
}

func TestCheck_OligoParseFailed(t *testing.T) {
	records := []*record.NormalizationRecord{
		{
			InputName: "custom DNA oligo",
			Category:  record.CategoryOligonucleotide,
			Oligo:     &record.OligoInfo{Type: record.OligoTypeUnknown},
		},
		{
			InputName: "broken record",
			Category:  record.CategoryOligonucleotide,
		},
	}

	findings := Check(records)
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(findings))
	}
	for i, f := range findings {
		if f.Code != CodeOligoParseFailed {
			t.Errorf("finding %d: expected %s, got %s", i, CodeOligoParseFailed, f.Code)
		}
	}
	if findings[1].Row != 1 {
		t.Errorf("expected second finding on row 1, got %d", findings[1].Row)
	}
}

func TestCheck_OligoModUnparsed(t *testing.T) {
	rec := &record.NormalizationRecord{
		InputName: "/5FAM/ACGTACGTACGT",
		Category:  record.CategoryOligonucleotide,
		Oligo: &record.OligoInfo{
			Type:      record.OligoTypeDNA,
			Sequences: []record.Sequence{{Role: "sense", Seq: "ACGTACGTACGT", Length: 12}},
			Mods:      record.Mods{FivePrime: []string{"FAM"}},
		},
		Flags: record.NewLedger(),
	}

	findings := Check([]*record.NormalizationRecord{rec})
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Code != CodeOligoModUnparsed {
		t.Errorf("expected %s, got %s", CodeOligoModUnparsed, findings[0].Code)
	}
}

func TestCheck_ModsLedgeredNoFinding(t *testing.T) {
	ledger := record.NewLedger()
	ledger.Oligo = record.OligoFlags{Present: true, Type: record.OligoTypeDNA, Mods: []string{"FAM"}, LenTotal: 12}

	rec := &record.NormalizationRecord{
		InputName: "/5FAM/ACGTACGTACGT",
		Category:  record.CategoryOligonucleotide,
		Oligo: &record.OligoInfo{
			Type:      record.OligoTypeDNA,
			Sequences: []record.Sequence{{Role: "sense", Seq: "ACGTACGTACGT", Length: 12}},
			Mods:      record.Mods{FivePrime: []string{"FAM"}},
		},
		Flags: ledger,
	}

	findings := Check([]*record.NormalizationRecord{rec})
	if len(findings) != 0 {
		t.Errorf("expected no findings, got %+v", findings)
	}
}

func TestCheck_OligoLenSuspect(t *testing.T) {
	makeOligo := func(length int) *record.NormalizationRecord {
		return &record.NormalizationRecord{
			InputName: "oligo",
			Category:  record.CategoryOligonucleotide,
			Oligo: &record.OligoInfo{
				Type:      record.OligoTypeDNA,
				Sequences: []record.Sequence{{Role: "sense", Seq: "N", Length: length}},
			},
		}
	}

	tests := []struct {
		length int
		want   bool
	}{
		{4, true},
		{250, true},
		{8, false},
		{20, false},
		{200, false},
	}

	for _, tt := range tests {
		findings := Check([]*record.NormalizationRecord{makeOligo(tt.length)})
		got := false
		for _, f := range findings {
			if f.Code == CodeOligoLenSuspect {
				got = true
			}
		}
		if got != tt.want {
			t.Errorf("length %d: suspect=%v, want %v", tt.length, got, tt.want)
		}
	}
}

func TestCheck_PipelineRecordsClean(t *testing.T) {
	inputs := []string{
		"siRNA sense ACGUACGUACGUACGUACGU; antisense ACUACGUACGUACGUACGUA",
		"aspirin",
		"Histamine",
	}

	var records []*record.NormalizationRecord
	for _, input := range inputs {
		records = append(records, pipeline.Normalize(input))
	}

	findings := Check(records)
	if len(findings) != 0 {
		t.Errorf("expected no findings for well-formed inputs, got %+v", findings)
	}
}

func TestCheck_PipelineOligoWithoutSequence(t *testing.T) {
	records := []*record.NormalizationRecord{pipeline.Normalize("custom DNA oligo")}

	findings := Check(records)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Code != CodeOligoParseFailed {
		t.Errorf("expected %s, got %s", CodeOligoParseFailed, findings[0].Code)
	}
}

func TestCodesByRow(t *testing.T) {
	findings := []Finding{
		{Row: 0, Code: CodeOligoParseFailed},
		{Row: 0, Code: CodeOligoLenSuspect},
		{Row: 2, Code: CodeOligoMissed},
	}

	codes := CodesByRow(findings)
	if codes[0] != "oligo_parse_failed|oligo_len_suspect" {
		t.Errorf("unexpected row 0 codes %q", codes[0])
	}
	if codes[2] != "oligo_missed" {
		t.Errorf("unexpected row 2 codes %q", codes[2])
	}
	if _, ok := codes[1]; ok {
		t.Error("expected no codes for row 1")
	}
}
