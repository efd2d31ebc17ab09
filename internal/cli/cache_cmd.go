package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parecli/pare/internal/config"
	"github.com/parecli/pare/internal/logging"
	"github.com/parecli/pare/internal/rules"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the rule resolution cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache location, size, and validity",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		st := rules.CacheInfo(cacheSearchDirs())
		fmt.Printf("cache path: %s\n", st.Path)
		if !st.Exists {
			fmt.Println("status: not present")
			return
		}
		fmt.Printf("size: %d bytes\n", st.Size)
		if st.Version == 0 {
			fmt.Println("status: unreadable")
			return
		}
		fmt.Printf("version: %d\n", st.Version)
		fmt.Printf("rules: %d\n", st.Rules)
		fmt.Printf("valid: %v\n", st.Valid)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the cache file and force a rebuild on next run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dirs := cacheSearchDirs()
		if err := rules.InvalidateCache(dirs); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "[pare] cache cleared: %s\n", rules.CachePath(dirs))
		return nil
	},
}

var cacheRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the cache from the rule directories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dirs := cacheSearchDirs()
		if err := rules.InvalidateCache(dirs); err != nil {
			return err
		}
		resolved := rules.DiscoverWithCache(dirs, logging.GetLogger("cache"))
		fmt.Fprintf(os.Stderr, "[pare] cache rebuilt: %d rules\n", len(resolved))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd, cacheClearCmd, cacheRebuildCmd)
	rootCmd.AddCommand(cacheCmd)
}

func cacheSearchDirs() []string {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	return searchDirs(cfg)
}
