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
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/valpere/chemnorm/internal/pipeline"
	"github.com/valpere/chemnorm/internal/record"
	"github.com/valpere/chemnorm/internal/store"
)

// resolveDBPath returns the flag value when set, otherwise the configured
// database path.
func resolveDBPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return viper.GetString("db")
}

// resolveWorkers returns the flag value when positive, otherwise the
// configured worker count.
func resolveWorkers(flagValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return viper.GetInt("workers")
}

// openStore opens the SQLite store, creating the parent directory first.
func openStore(path string) (*store.Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return store.New(path)
}

// normalizeNames runs the normalization pipeline over a batch of input names.
func normalizeNames(names []string) []*record.NormalizationRecord {
	records := make([]*record.NormalizationRecord, len(names))
	for i, name := range names {
		records[i] = pipeline.Normalize(name)
	}
	return records
}
