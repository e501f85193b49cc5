// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scilit CLI.
// scilit reconciles bibliographic metadata extracted from documents
// against external catalogue APIs and maintains the provider result
// cache.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwaldhauer/scilit/internal/secrets"
	"github.com/mwaldhauer/scilit/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the scilit CLI.
var rootCmd = &cobra.Command{
	Use:   "scilit",
	Short: "Bibliographic metadata reconciliation",
	Long: `scilit takes the metadata extracted from a document — usually a noisy
title, a few author names, maybe a DOI or ISBN — and reconciles it against
CrossRef, OpenAlex, Google Books, Open Library, and the K10plus union
catalogue. Provider answers are scored against the extracted data and
merged into a single canonical record.

Provider responses are cached (SQLite by default, Redis optionally) so
repeated runs over the same document library stay fast and polite.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./scilit.yaml or ~/.config/scilit/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("scilit")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "scilit"))
		}
	}

	viper.SetEnvPrefix("SCILIT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the full configuration from the config file and
// environment, then fills API credentials from the secrets directory.
func loadConfig() types.Config {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: invalid config: %v\n", err)
	}
	secrets.Apply(&cfg.Enrich, loadedSecrets)
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
