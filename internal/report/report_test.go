package report

import (
	"strings"
	"testing"

	"github.com/valpere/chemnorm/internal/issues"
)

func sampleFindings() []issues.Finding {
	return []issues.Finding{
		{Row: 0, Code: issues.CodeOligoParseFailed, Detail: `oligonucleotide "custom DNA oligo" has no parsed sequences`},
		{Row: 3, Code: issues.CodeOligoLenSuspect, Detail: "total sequence length 4 outside the plausible synthesis range"},
	}
}

func TestMarkdown_NoFindings(t *testing.T) {
	md := Markdown(nil, 10)

	if !strings.Contains(md, "Records checked: 10") {
		t.Errorf("expected record count, got %q", md)
	}
	if !strings.Contains(md, "No issues found.") {
		t.Errorf("expected clean-report message, got %q", md)
	}
	if strings.Contains(md, "## Findings") {
		t.Error("expected no findings table")
	}
}

func TestMarkdown_WithFindings(t *testing.T) {
	md := Markdown(sampleFindings(), 12)

	if !strings.Contains(md, "## Summary") {
		t.Error("expected summary section")
	}
	if !strings.Contains(md, "- oligo_parse_failed: 1") {
		t.Errorf("expected parse-failed count, got:\n%s", md)
	}
	if !strings.Contains(md, "- oligo_len_suspect: 1") {
		t.Errorf("expected len-suspect count, got:\n%s", md)
	}
	if !strings.Contains(md, "| 0 | oligo_parse_failed |") {
		t.Errorf("expected findings table row, got:\n%s", md)
	}
	if !strings.Contains(md, "| 3 | oligo_len_suspect |") {
		t.Errorf("expected second table row, got:\n%s", md)
	}
}

func TestMarkdown_EscapesPipesInDetail(t *testing.T) {
	findings := []issues.Finding{
		{Row: 1, Code: issues.CodeOligoMissed, Detail: `input "a|b" carries an oligo signal`},
	}

	md := Markdown(findings, 2)
	if !strings.Contains(md, `a\|b`) {
		t.Errorf("expected escaped pipe in detail, got:\n%s", md)
	}
}

func TestHTML(t *testing.T) {
	out := HTML(sampleFindings(), 12)

	if !strings.Contains(out, "<h1") {
		t.Errorf("expected heading markup, got %q", out)
	}
	if !strings.Contains(out, "<table>") {
		t.Errorf("expected table markup, got %q", out)
	}
	if !strings.Contains(out, "oligo_parse_failed") {
		t.Error("expected finding code in output")
	}
}

func TestPlainText(t *testing.T) {
	out := PlainText(sampleFindings(), 12)

	if strings.ContainsAny(out, "<>") {
		t.Errorf("expected tags stripped, got %q", out)
	}
	if !strings.Contains(out, "Normalization issue report") {
		t.Error("expected report title")
	}
	if !strings.Contains(out, "oligo_len_suspect") {
		t.Error("expected finding code")
	}
}
