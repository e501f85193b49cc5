// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: googlebooks-api-key, openalex-email, crossref-mailto.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwaldhauer/scilit/pkg/types"
)

// Key file names recognized by Load and Apply.
const (
	KeyGoogleBooks   = "googlebooks-api-key"
	KeyOpenAlexEmail = "openalex-email"
	KeyCrossRefMail  = "crossref-mailto"
)

var knownKeys = map[string]bool{
	KeyGoogleBooks:   true,
	KeyOpenAlexEmail: true,
	KeyCrossRefMail:  true,
}

// Load reads the recognized key files in dir and returns a map of filename to
// trimmed contents. A missing directory or missing files are not errors; Load
// returns an empty map. Unreadable files and files that are not recognized
// key names produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !knownKeys[name] {
			fmt.Fprintf(os.Stderr, "warning: ignoring unrecognized secret %s\n", name)
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply copies known secrets into the enrichment config. Values already
// set on the config (from flags or the config file) win over secret
// files. The CrossRef mailto doubles as the polite-pool address for
// OpenAlex when no dedicated email is configured.
func Apply(cfg *types.EnrichConfig, secrets map[string]string) {
	if cfg.GoogleBooksAPIKey == "" {
		cfg.GoogleBooksAPIKey = secrets[KeyGoogleBooks]
	}
	if cfg.Mailto == "" {
		cfg.Mailto = secrets[KeyCrossRefMail]
	}
	if cfg.Mailto == "" {
		cfg.Mailto = secrets[KeyOpenAlexEmail]
	}
}
