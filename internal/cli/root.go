// Package cli wires the commands of the ayon-deps tool.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global connection flags, overriding the environment.
	flagServer string
	flagAPIKey string
)

// rootCmd is the root command for ayon-deps.
var rootCmd = &cobra.Command{
	Use:     "ayon-deps",
	Version: "dev",
	Short:   "Dependency package builder for addon bundles",
	Long: `ayon-deps assembles pinned dependency packages for addon bundles.

It merges the dependency manifests of every addon in a bundle over the
installer baseline, resolves concrete versions, and records the minimal
package set the baseline does not already provide.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// SetVersion sets the version printed by the version flag.
func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "Server URL (defaults to AYON_SERVER_URL)")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "Service API key (defaults to AYON_API_KEY)")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(listenCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the ayon-deps version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(os.Stdout, rootCmd.Version)
		},
	}
	rootCmd.AddCommand(versionCmd)
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}
