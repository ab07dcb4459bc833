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
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/chemnorm/internal/annotate"
	"github.com/valpere/chemnorm/internal/csvio"
	"github.com/valpere/chemnorm/internal/pubchem"
	"github.com/valpere/chemnorm/internal/store"
)

var (
	annotateInputFile   string
	annotateOutputFile  string
	annotateBaseURL     string
	annotateWorkers     int
	annotateTimeout     time.Duration
	annotateMaxAttempts int
	annotateDBPath      string
	annotateNoCache     bool
	annotateFuzzy       float64
)

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Normalize names and resolve them against PubChem",
	Long: `Normalize every name in the input_name column of a CSV file, resolve
the cleaned names against the PubChem PUG REST API, and write the
records with their compound properties to the output CSV.

Resolved compounds are cached in the SQLite lookup cache, so rerunning
an interrupted job only fetches the names that are still missing.

Example:
  chemnorm annotate -i names.csv -o annotated.csv
  chemnorm annotate -i names.csv -o annotated.csv --workers 8 --no-cache`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if annotateInputFile == annotateOutputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		names, err := csvio.ReadNames(annotateInputFile)
		if err != nil {
			return err
		}
		records := normalizeNames(names)

		ctx := context.Background()

		// Open store for the lookup cache.
		var db *store.Store
		if !annotateNoCache {
			if path := resolveDBPath(annotateDBPath); path != "" {
				db, err = openStore(path)
				if err != nil {
					return fmt.Errorf("failed to open database: %w", err)
				}
				defer db.Close()
			}
		}

		// Resolver config: file/env values first, explicit flags win.
		cfg := pubchem.DefaultConfig()
		if err := viper.UnmarshalKey("pubchem", &cfg); err != nil {
			return fmt.Errorf("failed to load resolver config: %w", err)
		}
		if cmd.Flags().Changed("base-url") {
			cfg.BaseURL = annotateBaseURL
		}
		if cmd.Flags().Changed("timeout") {
			cfg.Timeout = annotateTimeout
		}
		if cmd.Flags().Changed("max-attempts") {
			cfg.MaxAttempts = annotateMaxAttempts
		}
		client := pubchem.NewClient(cfg)

		ann := annotate.New(client, db, resolveWorkers(annotateWorkers))
		if annotateFuzzy > 0 {
			ann.SetFuzzyThreshold(annotateFuzzy)
		}
		compounds := ann.Annotate(ctx, records)

		if err := csvio.WriteAnnotated(annotateOutputFile, records, compounds); err != nil {
			return err
		}

		resolved := 0
		for _, c := range compounds {
			if !pubchem.IsSentinel(c.CID) {
				resolved++
			}
		}
		fmt.Printf("Annotated %d names (%d resolved): %s\n", len(records), resolved, annotateOutputFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(annotateCmd)

	annotateCmd.Flags().StringVarP(&annotateInputFile, "input", "i", "", "Input CSV file (required)")
	annotateCmd.Flags().StringVarP(&annotateOutputFile, "output", "o", "", "Output CSV file (required)")
	annotateCmd.Flags().StringVar(&annotateBaseURL, "base-url", "", "PubChem PUG REST base URL (default from config)")
	annotateCmd.Flags().IntVar(&annotateWorkers, "workers", 0, "Concurrent lookup workers (default from config)")
	annotateCmd.Flags().DurationVar(&annotateTimeout, "timeout", 10*time.Second, "HTTP timeout per request")
	annotateCmd.Flags().IntVar(&annotateMaxAttempts, "max-attempts", 3, "Total attempts per request including the first (1 = no retries)")
	annotateCmd.Flags().StringVar(&annotateDBPath, "db", "", "Lookup cache database path (default ./data/chemnorm.db)")
	annotateCmd.Flags().BoolVar(&annotateNoCache, "no-cache", false, "Disable the lookup cache")
	annotateCmd.Flags().Float64Var(&annotateFuzzy, "fuzzy", 0, "Fuzzy cache match threshold in (0,1]; 0 disables")

	annotateCmd.MarkFlagRequired("input")
	annotateCmd.MarkFlagRequired("output")
}
