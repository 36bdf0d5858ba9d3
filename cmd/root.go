package cmd

import (
	"github.com/spf13/cobra"

	"github.com/brightmath/brightmath/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "brightmath",
	Short: "Adaptive math mastery engine",
	Long:  "Brightmath is an adaptive assessment and mastery tracking service for elementary math (grades 1-5).",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides BRIGHTMATH_DB env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then BRIGHTMATH_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
