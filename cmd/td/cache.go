package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jfeld/taskdeck/internal/model"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Local cache management",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-resource sync state",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := setup()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx := cmd.Context()
		st, err := a.engine.EnsureFresh(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if st == nil {
			fmt.Println("Cache: unavailable (disabled, no token, or storage error)")
			return
		}

		states, err := st.SyncStates(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		count, err := st.CountTasks(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Database: %s\n", a.settings.CacheDBPath)
		fmt.Printf("Cached tasks: %d\n\n", count)
		fmt.Printf("%-12s %-7s %s\n", "RESOURCE", "DIRTY", "LAST SYNCED")
		for _, s := range states {
			synced := "never"
			if s.LastSyncedAt != nil {
				synced = s.LastSyncedAt.Local().Format("2006-01-02 15:04:05")
			}
			dirty := "no"
			if s.Dirty {
				dirty = "yes"
			}
			fmt.Printf("%-12s %-7s %s\n", s.Resource, dirty, synced)
		}
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Wipe the local cache",
	Long: `Wipe every cached record and reset sync state.

The next read performs a full resync. Remote data is not touched.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := setup()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := a.engine.ClearAll(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing cache: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Cache cleared.")
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Force a resync of the local cache",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := setup()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := a.requireToken(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx := cmd.Context()
		a.engine.MarkDirty(ctx, model.CoreKinds...)
		st, err := a.engine.EnsureFresh(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if st == nil {
			fmt.Fprintf(os.Stderr, "Error: cache unavailable\n")
			os.Exit(1)
		}

		count, err := st.CountTasks(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Synced. %d tasks cached.\n", count)
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(syncCmd)
}
