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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/chemnorm/internal/pipeline"
	"github.com/valpere/chemnorm/internal/record"
)

var nameJSON bool

var nameCmd = &cobra.Command{
	Use:   "name <raw-name>",
	Short: "Normalize a single compound name",
	Long: `Normalize one compound name and print the resulting record.

The name is cleaned, classified as a peptide, an oligonucleotide or a
small molecule, and the removed annotation tokens are reported.

Example:
  chemnorm name "[3H] 8 - oh dpat"
  chemnorm name --json "biotinylated peptide"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec := pipeline.Normalize(strings.Join(args, " "))

		if nameJSON {
			data, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal record: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Input name:      %s\n", rec.InputName)
		fmt.Printf("Normalized name: %s\n", rec.NormalizedName)
		fmt.Printf("Search name:     %s\n", rec.SearchName)
		if rec.SearchOverrideReason != "" {
			fmt.Printf("Search override: %s\n", rec.SearchOverrideReason)
		}
		fmt.Printf("Category:        %s\n", rec.Category)
		fmt.Printf("Status:          %s\n", rec.Status)
		if payload := payloadJSON(rec); payload != "" {
			fmt.Printf("Payload:         %s\n", payload)
		}
		if rec.RemovedTokensFlat != "" {
			fmt.Printf("Removed tokens:  %s\n", rec.RemovedTokensFlat)
		}
		if rec.OligoTokensFlat != "" {
			fmt.Printf("Oligo tokens:    %s\n", rec.OligoTokensFlat)
		}
		return nil
	},
}

// payloadJSON renders the live classification payload as one-line JSON,
// empty when the payload carries no detail.
func payloadJSON(rec *record.NormalizationRecord) string {
	var v any
	switch {
	case rec.Peptide != nil:
		v = rec.Peptide
	case rec.Oligo != nil:
		v = rec.Oligo
	case rec.SmallMolecule != nil:
		v = rec.SmallMolecule
	}
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	if s := string(data); s != "{}" {
		return s
	}
	return ""
}

func init() {
	rootCmd.AddCommand(nameCmd)

	nameCmd.Flags().BoolVar(&nameJSON, "json", false, "Print the full record as JSON")
}
