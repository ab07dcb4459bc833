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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/chemnorm/internal/pubchem"
	"github.com/valpere/chemnorm/internal/vocab"
)

var version = "0.1.0"

var (
	cfgFile   string
	vocabFile string
)

var rootCmd = &cobra.Command{
	Use:   "chemnorm",
	Short: "Chemical compound name normalizer",
	Long: `Normalize vendor compound names for PubChem lookup.

chemnorm strips radiolabels, fluorophores, salts and vendor noise out of
compound names, classifies each name as a peptide, an oligonucleotide or
a small molecule, and resolves the cleaned names against the PubChem
PUG REST API.

Use "chemnorm name --help" for single-name normalization options.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := vocabFile
		if path == "" {
			path = viper.GetString("vocab")
		}
		if path == "" {
			return nil
		}
		m, err := vocab.Load(path)
		if err != nil {
			return err
		}
		m.Apply()
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is $HOME/.chemnorm.yaml)")
	rootCmd.PersistentFlags().StringVar(&vocabFile, "vocab", "", "Vocabulary manifest with extra noise, salt and fluorophore terms")
}

// initConfig loads the config file and the CHEMNORM_* environment overrides.
func initConfig() {
	viper.SetDefault("db", "./data/chemnorm.db")
	viper.SetDefault("pubchem.base_url", pubchem.DefaultBaseURL)
	viper.SetDefault("workers", 4)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".chemnorm")
	}

	viper.SetEnvPrefix("CHEMNORM")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
