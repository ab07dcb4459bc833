package canon

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "plain name untouched",
			input:    "histamine",
			expected: "histamine",
		},
		{
			name:     "micro sign folded to u",
			input:    "10 µM caffeine",
			expected: "10 uM caffeine",
		},
		{
			name:     "greek mu folded to u",
			input:    "5 μM stock",
			expected: "5 uM stock",
		},
		{
			name:     "fullwidth characters folded",
			input:    "５ＡＳＡ",
			expected: "5ASA",
		},
		{
			name:     "superscript mass number folded",
			input:    "[¹²⁵I]iodobenzene",
			expected: "[125I]iodobenzene",
		},
		{
			name:     "zero width space removed",
			input:    "hista​mine",
			expected: "histamine",
		},
		{
			name:     "byte order mark removed",
			input:    "\uFEFFcaffeine",
			expected: "caffeine",
		},
		{
			name:     "non breaking space becomes space",
			input:    "sodium chloride",
			expected: "sodium chloride",
		},
		{
			name:     "whitespace collapsed and trimmed",
			input:    "  histamine \t dihydrochloride  ",
			expected: "histamine dihydrochloride",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(tt.input)
			if result != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFixSpacing(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "primes semicolons locants and hanging brace",
			input:    "5 ' ; 1,3 -diol 1,2- (diol); 1,2- {",
			expected: "5'; 1,3-diol 1,2-(diol); 1,2-{",
		},
		{
			name:     "colon composition",
			input:    "poly Glu : Tyr",
			expected: "poly Glu:Tyr",
		},
		{
			name:     "spaced hyphen in code name",
			input:    "8 - oh dpat",
			expected: "8-oh dpat",
		},
		{
			name:     "plus between ions",
			input:    "Na + Cl",
			expected: "Na+Cl",
		},
		{
			name:     "digit comma and closing paren",
			input:    "1 ,2 )",
			expected: "1,2)",
		},
		{
			name:     "nested bracket padding",
			input:    "[{ A } ]",
			expected: "[{A}]",
		},
		{
			name:     "semicolon list",
			input:    "alpha ; beta ;gamma",
			expected: "alpha; beta; gamma",
		},
		{
			name:     "numeric semicolon list",
			input:    "1 ; 2 ; 3",
			expected: "1; 2; 3",
		},
		{
			name:     "slash ratio",
			input:    "1 / 2 / 3",
			expected: "1/2/3",
		},
		{
			name:     "hyphen chain",
			input:    "A - B - C",
			expected: "A-B-C",
		},
		{
			name:     "colon chain",
			input:    "A : B : C",
			expected: "A:B:C",
		},
		{
			name:     "plus chain",
			input:    "A + B + C",
			expected: "A+B+C",
		},
		{
			name:     "numeric enumeration tightened",
			input:    "1, 2,3",
			expected: "1,2,3",
		},
		{
			name:     "word list comma keeps one space",
			input:    "( A , B )",
			expected: "(A, B)",
		},
		{
			name:     "apostrophe clings to digit",
			input:    "5 'prime",
			expected: "5'prime",
		},
		{
			name:     "unicode prime clings to word",
			input:    "word ′ prime",
			expected: "word′prime",
		},
		{
			name:     "trailing hyphen attached",
			input:    "chloro -",
			expected: "chloro-",
		},
		{
			name:     "locant pair before suffix",
			input:    "1,2 -diol",
			expected: "1,2-diol",
		},
		{
			name:     "trailing semicolon",
			input:    "A ;",
			expected: "A;",
		},
		{
			name:     "mixed punctuation in parens",
			input:    "(1 ,2 ;3 )",
			expected: "(1,2; 3)",
		},
		{
			name:     "braced numeric pair",
			input:    "{ 1 , 2 }",
			expected: "{1,2}",
		},
		{
			name:     "en dash folded to hyphen",
			input:    "alpha – beta",
			expected: "alpha-beta",
		},
		{
			name:     "comma with digit on one side untouched",
			input:    "dpat ,5",
			expected: "dpat ,5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FixSpacing(tt.input)
			if result != tt.expected {
				t.Errorf("FixSpacing(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// FixSpacing must be a fixpoint on its own output, otherwise repeated
// canonicalization passes in the pipeline would drift.
func TestFixSpacingIdempotent(t *testing.T) {
	inputs := []string{
		"5 ' ; 1,3 -diol 1,2- (diol); 1,2- {",
		"( A , B )",
		"alpha ; beta ;gamma",
		"N , N-dimethyl 1 . 5",
		"8 - oh dpat",
	}
	for _, input := range inputs {
		once := FixSpacing(input)
		twice := FixSpacing(once)
		if once != twice {
			t.Errorf("FixSpacing not idempotent on %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "unicode then spacing",
			input:    "poly Glu : Tyr",
			expected: "poly Glu:Tyr",
		},
		{
			name:     "micro and padding",
			input:    "10 µM ( stock )",
			expected: "10 uM (stock)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Clean(tt.input)
			if result != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, result, tt.expected)
			}
			if again := Clean(result); again != result {
				t.Errorf("Clean not idempotent on %q: got %q then %q", tt.input, result, again)
			}
		})
	}
}
