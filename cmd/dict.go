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
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/chemnorm/internal"
	"github.com/valpere/chemnorm/internal/csvio"
	"github.com/valpere/chemnorm/internal/dict"
	"github.com/valpere/chemnorm/internal/store"
)

var dictDBPath string

var dictCmd = &cobra.Command{
	Use:   "dict",
	Short: "Manage the compound synonym dictionary",
	Long: `Build, list, and export the synonym dictionary.

The dictionary maps every known synonym of an annotated compound to one
canonical name, merging isotope-labeled variants with their parent
compound by InChIKey skeleton.`,
}

var (
	dictBuildInputFile string
	dictBuildExclude   []string
)

var dictBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the dictionary from an annotated CSV",
	Long: `Build synonym entries from a CSV produced by "chemnorm annotate" and
persist them in the dictionary table.

Example:
  chemnorm dict build -i annotated.csv
  chemnorm dict build -i annotated.csv --exclude water --exclude ammonia`,
	RunE: func(cmd *cobra.Command, args []string) error {
		header, rows, err := csvio.ReadTable(dictBuildInputFile)
		if err != nil {
			return err
		}

		col := make(map[string]int, len(header))
		for i, h := range header {
			col[strings.ToLower(strings.TrimSpace(h))] = i
		}
		for _, name := range []string{"search_name", "pubchem_cid", "inchi_key", "iupac_name", "synonyms"} {
			if _, ok := col[name]; !ok {
				return fmt.Errorf("missing required column %q in %s", name, dictBuildInputFile)
			}
		}
		field := func(row []string, name string) string {
			idx, ok := col[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return row[idx]
		}

		dictRows := make([]dict.Row, 0, len(rows))
		for _, row := range rows {
			dictRows = append(dictRows, dict.Row{
				SearchName: field(row, "search_name"),
				Compound: internal.CompoundRecord{
					CID:              field(row, "pubchem_cid"),
					CanonicalSMILES:  field(row, "canonical_smiles"),
					InChI:            field(row, "inchi"),
					InChIKey:         field(row, "inchi_key"),
					MolecularFormula: field(row, "molecular_formula"),
					MolecularWeight:  field(row, "molecular_weight"),
					IUPACName:        field(row, "iupac_name"),
					Synonyms:         field(row, "synonyms"),
				},
			})
		}

		exclusions := append(append([]string{}, dict.DefaultExclusions...), dictBuildExclude...)
		entries := dict.Build(dictRows, exclusions)

		db, err := openStore(resolveDBPath(dictDBPath))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		ctx := context.Background()
		for _, e := range entries {
			err := db.PutDictionaryEntry(ctx, store.DictionaryEntry{
				Synonym:           e.Synonym,
				CanonicalName:     e.CanonicalName,
				CID:               e.CID,
				InChIKey:          e.InChIKey,
				MergeIndex:        e.MergeIndex,
				ReferenceSynonyms: e.ReferenceSynonyms,
			})
			if err != nil {
				return fmt.Errorf("failed to save dictionary entry %q: %w", e.Synonym, err)
			}
		}

		fmt.Printf("Built dictionary: %d entries from %d annotated rows.\n", len(entries), len(rows))
		return nil
	},
}

var dictListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all dictionary entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(resolveDBPath(dictDBPath))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		entries, err := db.ListDictionaryEntries(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list dictionary: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("Dictionary is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSYNONYM\tCANONICAL\tCID\tMERGE\tINCHIKEY")
		for _, e := range entries {
			synonym := e.Synonym
			if len(synonym) > 40 {
				synonym = synonym[:37] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				e.ID, synonym, e.CanonicalName, e.CID, e.MergeIndex, e.InChIKey)
		}
		return w.Flush()
	},
}

var dictExportFile string

var dictExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the dictionary as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(resolveDBPath(dictDBPath))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		entries, err := db.ListDictionaryEntries(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list dictionary: %w", err)
		}

		exported := make([]dict.Entry, len(entries))
		for i, e := range entries {
			exported[i] = dict.Entry{
				Synonym:           e.Synonym,
				CanonicalName:     e.CanonicalName,
				CID:               e.CID,
				InChIKey:          e.InChIKey,
				MergeIndex:        e.MergeIndex,
				ReferenceSynonyms: e.ReferenceSynonyms,
			}
		}

		f, err := os.Create(dictExportFile)
		if err != nil {
			return fmt.Errorf("failed to create output CSV: %w", err)
		}
		defer f.Close()

		if err := dict.ExportCSV(f, exported); err != nil {
			return fmt.Errorf("failed to export dictionary: %w", err)
		}
		fmt.Printf("Exported %d dictionary entries: %s\n", len(exported), dictExportFile)
		return nil
	},
}

var dictDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a dictionary entry by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(resolveDBPath(dictDBPath))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.DeleteDictionaryEntry(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to delete dictionary entry: %w", err)
		}
		fmt.Printf("Deleted dictionary entry: %s\n", args[0])
		return nil
	},
}

var dictClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all dictionary entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(resolveDBPath(dictDBPath))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		n, err := db.ClearDictionary(context.Background())
		if err != nil {
			return fmt.Errorf("failed to clear dictionary: %w", err)
		}
		fmt.Printf("Cleared %d dictionary entries.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dictCmd)

	dictCmd.PersistentFlags().StringVar(&dictDBPath, "db", "", "Database path (default ./data/chemnorm.db)")

	dictBuildCmd.Flags().StringVarP(&dictBuildInputFile, "input", "i", "", "Annotated CSV file (required)")
	dictBuildCmd.Flags().StringSliceVar(&dictBuildExclude, "exclude", nil, "Extra generic names excluded as merge targets (repeatable)")
	dictBuildCmd.MarkFlagRequired("input")

	dictExportCmd.Flags().StringVarP(&dictExportFile, "output", "o", "", "Output CSV file (required)")
	dictExportCmd.MarkFlagRequired("output")

	dictCmd.AddCommand(dictBuildCmd)
	dictCmd.AddCommand(dictListCmd)
	dictCmd.AddCommand(dictExportCmd)
	dictCmd.AddCommand(dictDeleteCmd)
	dictCmd.AddCommand(dictClearCmd)
}
