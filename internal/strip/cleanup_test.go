package strip

import "testing"

func TestCleanup(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "comma and decimal spacing", input: "N , N-dimethyl 1 . 5", expected: "N, N-dimethyl 1.5"},
		{name: "doubled hyphen collapses", input: "a--b", expected: "a-b"},
		{name: "mixed connector run keeps last", input: "a-/b", expected: "a/b"},
		{name: "stranded connectors after removal", input: "a -   - b", expected: "a-b"},
		{name: "edge connectors trimmed", input: " - histamine - ", expected: "histamine"},
		{name: "leading connector run trimmed", input: "--amp", expected: "amp"},
		{name: "empty brackets vanish", input: "( )", expected: ""},
		{name: "plain name untouched", input: "aspirin", expected: "aspirin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cleanup(tt.input)
			if got != tt.expected {
				t.Errorf("Cleanup(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRemoveHangingBrackets(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "doubled square brackets", input: "[[ampa]]", expected: "[ampa]"},
		{name: "doubled unclosed opener", input: "[[ampa", expected: "ampa"},
		{name: "leading closer dropped", input: "] dslet", expected: " dslet"},
		{name: "trailing opener dropped", input: "dslet [", expected: "dslet "},
		{name: "unmatched leading paren", input: "(abc", expected: "abc"},
		{name: "unmatched trailing paren", input: "abc)", expected: "abc"},
		{name: "nested empty pairs collapse", input: "[( )]", expected: " "},
		{name: "isolated bracket blanked", input: "a ( b", expected: "a   b"},
		{name: "adjacent isolated brackets blanked", input: "x ] [ y", expected: "x     y"},
		{name: "balanced pair kept", input: "a (b) c", expected: "a (b) c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := removeHangingBrackets(tt.input)
			if got != tt.expected {
				t.Errorf("removeHangingBrackets(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
