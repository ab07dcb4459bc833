/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valpere/chemnorm/internal/csvio"
	"github.com/valpere/chemnorm/internal/issues"
	"github.com/valpere/chemnorm/internal/record"
	"github.com/valpere/chemnorm/internal/report"
)

var (
	checkInputFile    string
	checkOutputFile   string
	checkReportFile   string
	checkMarkdownFile string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check normalized names for oligo handling issues",
	Long: `Normalize the input_name column of a CSV file and flag rows whose
oligonucleotide handling looks wrong: missed oligo signals, parse
failures, unledgered modifications and implausible total lengths.

Without --report or --markdown the findings are printed to the console.

Example:
  chemnorm check -i names.csv
  chemnorm check -i names.csv --report issues.html --markdown issues.md
  chemnorm check -i names.csv -o issues.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := csvio.ReadNames(checkInputFile)
		if err != nil {
			return err
		}
		records := normalizeNames(names)
		findings := issues.Check(records)

		if checkMarkdownFile != "" {
			md := report.Markdown(findings, len(records))
			if err := os.WriteFile(checkMarkdownFile, []byte(md), 0644); err != nil {
				return fmt.Errorf("failed to write Markdown report: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Markdown report: %s\n", checkMarkdownFile)
		}
		if checkReportFile != "" {
			html := report.HTML(findings, len(records))
			if err := os.WriteFile(checkReportFile, []byte(html), 0644); err != nil {
				return fmt.Errorf("failed to write HTML report: %w", err)
			}
			fmt.Fprintf(os.Stderr, "HTML report: %s\n", checkReportFile)
		}
		if checkOutputFile != "" {
			if err := writeIssueCodes(checkOutputFile, records, findings); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Issue codes: %s\n", checkOutputFile)
		}

		if checkMarkdownFile == "" && checkReportFile == "" {
			fmt.Print(report.PlainText(findings, len(records)))
		}
		return nil
	},
}

// writeIssueCodes writes one row per input with the pipe-joined issue codes.
func writeIssueCodes(path string, records []*record.NormalizationRecord, findings []issues.Finding) error {
	codes := issues.CodesByRow(findings)

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, []string{"input_name", "category", "issues"})
	for i, rec := range records {
		rows = append(rows, []string{rec.InputName, rec.Category, codes[i]})
	}

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

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkInputFile, "input", "i", "", "Input CSV file (required)")
	checkCmd.Flags().StringVarP(&checkOutputFile, "output", "o", "", "Write per-row issue codes CSV")
	checkCmd.Flags().StringVar(&checkReportFile, "report", "", "Write HTML report to file")
	checkCmd.Flags().StringVar(&checkMarkdownFile, "markdown", "", "Write Markdown report to file")

	checkCmd.MarkFlagRequired("input")
}
