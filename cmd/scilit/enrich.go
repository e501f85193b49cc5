// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/mwaldhauer/scilit/internal/cache"
	"github.com/mwaldhauer/scilit/internal/enrich"
	"github.com/mwaldhauer/scilit/pkg/types"
)

const defaultUserAgent = "scilit/0.1"

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Reconcile extracted metadata against catalogue APIs",
	Long: `Enrich takes extracted metadata (title, authors, and optionally a DOI or
ISBN) and queries the enabled providers concurrently. Each answer is
scored against the input; a strong match replaces the record wholesale,
weaker matches contribute individual fields.`,
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().String("title", "", "extracted title")
	enrichCmd.Flags().StringSlice("author", nil, "extracted author (repeatable)")
	enrichCmd.Flags().String("doi", "", "DOI, bare or as URL")
	enrichCmd.Flags().String("isbn", "", "ISBN-10 or ISBN-13, separators allowed")
	enrichCmd.Flags().String("providers", "", "comma-separated providers to use (default: all)")
	enrichCmd.Flags().Bool("json", false, "output the record as JSON")
	enrichCmd.Flags().String("out", "", "write the record as a YAML sidecar file")
	enrichCmd.Flags().Bool("no-cache", false, "bypass the provider result cache")

	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	authors, _ := cmd.Flags().GetStringSlice("author")
	doi, _ := cmd.Flags().GetString("doi")
	isbn, _ := cmd.Flags().GetString("isbn")

	basic := types.Record{
		Title:   title,
		Authors: authors,
		DOI:     doi,
		ISBN:    isbn,
	}
	if enrich.BuildQuerySpec(basic).IsEmpty() {
		return fmt.Errorf("provide at least one of --title, --author, --doi, --isbn")
	}

	cfg := loadConfig()
	if cfg.Enrich.UserAgent == "" {
		cfg.Enrich.UserAgent = defaultUserAgent
	}
	if providers, _ := cmd.Flags().GetString("providers"); providers != "" {
		cfg.Enrich.Providers = providerSet(providers)
	}

	var store cache.Store
	if noCache, _ := cmd.Flags().GetBool("no-cache"); !noCache {
		s, err := cache.Open(cfg.Cache)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: cache unavailable: %v\n", err)
		} else {
			store = s
			defer store.Close()
		}
	}

	timeout := cfg.Enrich.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	deps := enrich.Deps{
		Client: &http.Client{Timeout: timeout + 5*time.Second},
		Cache:  store,
		Config: cfg.Enrich,
		Log:    os.Stderr,
	}

	record := enrich.New(deps).Enrich(cmd.Context(), basic)

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := writeSidecar(out, record); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", out)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	}

	printRecord(os.Stdout, record)
	return nil
}

// providerSet parses a comma-separated provider list into an enable
// map. Providers not named stay absent and are never queried.
func providerSet(list string) map[string]bool {
	enabled := make(map[string]bool)
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(strings.ToLower(name))
		if name != "" {
			enabled[name] = true
		}
	}
	return enabled
}

// writeSidecar exports the record as a YAML file next to the document.
func writeSidecar(path string, record types.Record) error {
	data, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding sidecar: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing sidecar: %w", err)
	}
	return nil
}

// printRecord renders the record as aligned key/value lines.
func printRecord(w *os.File, r types.Record) {
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "%-12s %s\n", label+":", value)
		}
	}

	row("Title", r.Title)
	row("Authors", strings.Join(r.Authors, "; "))
	if r.Year > 0 {
		row("Year", fmt.Sprintf("%d", r.Year))
	}
	row("Journal", r.Journal)
	row("Publisher", r.Publisher)
	row("DOI", r.DOI)
	row("ISBN", r.ISBN)
	row("ISSN", r.ISSN)
	if r.PageCount > 0 {
		row("Pages", fmt.Sprintf("%d", r.PageCount))
	}
	row("Language", r.Language)
	row("Type", r.WorkType)
	if r.CitedByCount > 0 {
		row("Citations", fmt.Sprintf("%d", r.CitedByCount))
	}
	if r.IsOpenAccess {
		row("Open Access", "yes")
	}
	row("Keywords", strings.Join(r.Keywords, ", "))
	if r.Abstract != "" {
		abstract := r.Abstract
		if len(abstract) > 300 {
			abstract = abstract[:300] + "…"
		}
		row("Abstract", abstract)
	}
}
