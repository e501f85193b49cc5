// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwaldhauer/scilit/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the provider result cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached provider responses",
	Long: `Clear removes cached provider responses. With --provider only that
provider's entries are purged; otherwise the whole cache is emptied.`,
	RunE: runCacheClear,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry counts",
	RunE:  runCacheStats,
}

func init() {
	cacheClearCmd.Flags().String("provider", "", "only clear entries for this provider")

	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store, err := cache.Open(cfg.Cache)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer store.Close()

	prefix := ""
	if provider, _ := cmd.Flags().GetString("provider"); provider != "" {
		prefix = provider + ":"
	}

	removed, err := store.Clear(cmd.Context(), prefix)
	if err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	fmt.Printf("Removed %d cache entries\n", removed)
	return nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store, err := cache.Open(cfg.Cache)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer store.Close()

	sqlite, ok := store.(*cache.SQLiteStore)
	if !ok {
		return fmt.Errorf("cache stats are only available for the sqlite backend")
	}

	live, expired, err := sqlite.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading cache stats: %w", err)
	}
	fmt.Printf("Live entries:    %d\n", live)
	fmt.Printf("Expired entries: %d\n", expired)
	return nil
}
