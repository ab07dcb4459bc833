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
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valpere/chemnorm/internal/csvio"
	"github.com/valpere/chemnorm/internal/pipeline"
	"github.com/valpere/chemnorm/internal/record"
	"github.com/valpere/chemnorm/internal/store"
)

var (
	cleanInputFile  string
	cleanOutputFile string
	cleanDBPath     string
	cleanNoCache    bool
	cleanResume     string
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Normalize a CSV of compound names",
	Long: `Normalize every name in the input_name column of a CSV file and write
the flattened records to the output CSV.

A checkpoint ID is printed at the start of each run. If the job is
interrupted, use --resume with that ID to skip already-normalized rows.

Example:
  chemnorm clean -i names.csv -o cleaned.csv
  chemnorm clean -i names.csv -o cleaned.csv --resume run_6f3a0c1e`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cleanInputFile == cleanOutputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		names, err := csvio.ReadNames(cleanInputFile)
		if err != nil {
			return err
		}

		ctx := context.Background()

		// Open store for checkpoint support.
		var db *store.Store
		if !cleanNoCache {
			if path := resolveDBPath(cleanDBPath); path != "" {
				db, err = openStore(path)
				if err != nil {
					return fmt.Errorf("failed to open database: %w", err)
				}
				defer db.Close()
			}
		}

		// Load or create checkpoint.
		var checkpointID string
		completedRows := make(map[int]string)

		if cleanResume != "" {
			if db == nil {
				return fmt.Errorf("--resume requires the checkpoint database (--no-cache disabled)")
			}
			if _, cpErr := db.GetCheckpoint(ctx, cleanResume); cpErr != nil {
				return fmt.Errorf("failed to load checkpoint: %w", cpErr)
			}
			checkpointID = cleanResume
			rows, cpErr := db.GetCheckpointRows(ctx, checkpointID)
			if cpErr != nil {
				return fmt.Errorf("failed to load checkpoint rows: %w", cpErr)
			}
			completedRows = rows
			fmt.Fprintf(os.Stderr, "Resuming checkpoint %s (%d rows already done)\n", checkpointID, len(completedRows))
		} else if db != nil {
			checkpointID, err = db.CreateCheckpoint(ctx, cleanInputFile, cleanOutputFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to create checkpoint: %v\n", err)
			} else {
				fmt.Fprintf(os.Stderr, "Checkpoint ID: %s (use --resume %s to resume if interrupted)\n", checkpointID, checkpointID)
			}
		}

		records := make([]*record.NormalizationRecord, len(names))
		for i, name := range names {
			// Use checkpoint data when resuming.
			if recordJSON, done := completedRows[i]; done {
				var restored record.NormalizationRecord
				if jsonErr := json.Unmarshal([]byte(recordJSON), &restored); jsonErr == nil {
					records[i] = &restored
					continue
				}
				fmt.Fprintf(os.Stderr, "Warning: unreadable checkpoint row %d, renormalizing\n", i)
			}

			rec := pipeline.Normalize(name)
			records[i] = rec

			if db != nil && checkpointID != "" {
				if data, marshalErr := json.Marshal(rec); marshalErr == nil {
					_ = db.SaveCheckpointRow(ctx, checkpointID, i, string(data))
				}
			}
		}

		if err := csvio.WriteRecords(cleanOutputFile, records); err != nil {
			return err
		}

		// Mark checkpoint complete.
		if db != nil && checkpointID != "" {
			_ = db.CompleteCheckpoint(ctx, checkpointID)
		}

		fmt.Printf("Normalized %d names: %s\n", len(records), cleanOutputFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().StringVarP(&cleanInputFile, "input", "i", "", "Input CSV file (required)")
	cleanCmd.Flags().StringVarP(&cleanOutputFile, "output", "o", "", "Output CSV file (required)")
	cleanCmd.Flags().StringVar(&cleanDBPath, "db", "", "Checkpoint database path (default ./data/chemnorm.db)")
	cleanCmd.Flags().BoolVar(&cleanNoCache, "no-cache", false, "Disable checkpointing")
	cleanCmd.Flags().StringVar(&cleanResume, "resume", "", "Resume from checkpoint ID (printed at start of original run)")

	cleanCmd.MarkFlagRequired("input")
	cleanCmd.MarkFlagRequired("output")
}
