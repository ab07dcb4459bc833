// Package report renders issue findings as Markdown, HTML and plain text.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/valpere/chemnorm/internal/issues"
)

var codeOrder = []string{
	issues.CodeOligoMissed,
	issues.CodeOligoParseFailed,
	issues.CodeOligoModUnparsed,
	issues.CodeOligoLenSuspect,
}

// Markdown renders findings as a document with summary counts and a
// findings table. total is the number of records that were checked.
func Markdown(findings []issues.Finding, total int) string {
	var b strings.Builder
	b.WriteString("# Normalization issue report\n\n")
	fmt.Fprintf(&b, "Records checked: %d\n\n", total)

	if len(findings) == 0 {
		b.WriteString("No issues found.\n")
		return b.String()
	}

	counts := make(map[string]int)
	for _, f := range findings {
		counts[f.Code]++
	}

	b.WriteString("## Summary\n\n")
	for _, code := range codeOrder {
		if counts[code] > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", code, counts[code])
		}
	}

	b.WriteString("\n## Findings\n\n")
	b.WriteString("| Row | Code | Detail |\n")
	b.WriteString("|----:|------|--------|\n")
	for _, f := range findings {
		fmt.Fprintf(&b, "| %d | %s | %s |\n", f.Row, f.Code, escapeCell(f.Detail))
	}
	return b.String()
}

// HTML renders the findings report as a standalone HTML fragment.
func HTML(findings []issues.Finding, total int) string {
	return toHTML(Markdown(findings, total))
}

// PlainText renders the findings report for console output.
func PlainText(findings []issues.Finding, total int) string {
	return stripTags(toHTML(Markdown(findings, total)))
}

func toHTML(md string) string {
	opts := html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	}
	renderer := html.NewRenderer(opts)
	ext := parser.CommonExtensions | parser.Attributes
	p := parser.NewWithExtensions(ext)
	doc := p.Parse([]byte(md))
	return string(markdown.Render(doc, renderer))
}

// escapeCell keeps raw input names from breaking the table markup.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func stripTags(htmlContent string) string {
	var result bytes.Buffer
	inTag := false

	for _, ch := range htmlContent {
		switch ch {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				result.WriteRune(ch)
			}
		}
	}

	return result.String()
}
