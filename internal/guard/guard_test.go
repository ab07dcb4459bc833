package guard

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantSubtype string
		wantText    string
	}{
		{"bare nucleotide", "ATP", "nucleotide", "ATP"},
		{"radiolabeled nucleotide", "33P-gammaATP", "nucleotide", "33P-gammaATP"},
		{"substituted nucleotide", "2-mesATP", "nucleotide", "2-mesATP"},
		{"substituted diphosphate", "2-mesADP", "nucleotide", "2-mesADP"},
		{"cyclic wins over nucleotide", "cAMP", "cyclic_nucleotide", "cAMP"},
		{"cyclic inosine analog", "cIMP", "cyclic_nucleotide", "cIMP"},
		{"cyclic dinucleotide", "c-di-GMP", "cyclic_nucleotide", "c-di-GMP"},
		{"cgamp with primes", "2'3'-cGAMP", "cyclic_nucleotide", "cGAMP"},
		{"cofactor", "acetyl CoA", "cofactor", "acetyl CoA"},
		{"cofactor spelled out", "malonyl coenzyme a", "cofactor", "malonyl coenzyme a"},
		{"choline ester", "acetyl choline", "choline", "acetyl choline"},
		{"fused choline", "phosphocholine", "choline", "phosphocholine"},
		{"glycoside abbreviation", "4-mu-glcNAc", "fluorogenic_glycoside", "4-mu-glcNAc"},
		{"glycoside spelled out", "4-methylumbelliferyl N-acetyl-beta-d-glucosaminide", "fluorogenic_glycoside", "4-methylumbelliferyl N-acetyl-beta-d-glucosaminide"},
		{"phenoxazine dye", "10-acetyl-3,7-dihydroxyphenoxazin", "dye", "10-acetyl-3,7-dihydroxyphenoxazin"},
		{"plain small molecule", "histamine", "", "histamine"},
		{"resin support", "polymer support resin", "", "polymer support resin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subtype, text := Detect(tt.input)
			if subtype != tt.wantSubtype || text != tt.wantText {
				t.Errorf("Detect(%q) = (%q, %q), want (%q, %q)",
					tt.input, subtype, text, tt.wantSubtype, tt.wantText)
			}
		})
	}
}

func TestIsCyclicNucleotide(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"camp", "cAMP", true},
		{"primed camp", "3',5'-cAMP", true},
		{"spelled cyclic", "cyclic gmp", true},
		{"dinucleotide", "c-di-AMP", true},
		{"cgamp", "cGAMP", true},
		{"linear nucleotide", "CTP", false},
		{"embedded camp", "campaign", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCyclicNucleotide(tt.input); got != tt.expected {
				t.Errorf("IsCyclicNucleotide(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCanonicalizeCyclicNucleotide(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already canonical", "cAMP", "cAMP"},
		{"lowercase with primes", "3',5'-camp", "3',5'-cAMP"},
		{"spelled out", "cyclic amp", "cAMP"},
		{"spelled out with primes", "3',5'-cyclic AMP", "3',5'-cAMP"},
		{"dinucleotide", "c-di-gmp", "c-di-GMP"},
		{"fused dinucleotide", "cdigmp", "c-di-GMP"},
		{"cgamp", "2'3'-cgamp", "cGAMP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalizeCyclicNucleotide(tt.input); got != tt.expected {
				t.Errorf("CanonicalizeCyclicNucleotide(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
