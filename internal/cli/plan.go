package cli

import (
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/Asgard118/ayon-dependencies-tool/internal/bundle"
)

var (
	planBundle      string
	planPlatform    string
	planSynchronize bool
	planManifests   []string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what a build would do without writing anything",
	Long: `Show what a build would do without writing anything.

Resolves the bundle exactly like create and prints the pinned modules and the
ordered operations, but never creates a package, updates the bundle or
touches the lock.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, err := newEngine()
		if err != nil {
			return err
		}

		locals, err := loadLocalManifests(planManifests)
		if err != nil {
			return err
		}

		ctx := clog.WithLogger(cmd.Context(), clog.DefaultLogger())
		result, err := engine.Build(ctx, bundle.BuildRequest{
			Bundle:         planBundle,
			Platform:       planPlatform,
			Synchronize:    planSynchronize,
			DryRun:         true,
			LocalManifests: locals,
		})
		if err != nil {
			printError(err)
			return err
		}

		if result.Reused {
			printSuccess(fmt.Sprintf("existing dependency package for %s still applicable, nothing to do", planBundle))
			return nil
		}

		printHeader(fmt.Sprintf("Package %s would pin", result.Package.Filename))
		for _, name := range sortedKeys(result.Package.PythonModules) {
			printDetail("%s %s", name, result.Package.PythonModules[name])
		}
		if len(result.Operations) == 0 {
			printLine("no operations needed")
			return nil
		}
		printHeader("Operations")
		for _, op := range result.Operations {
			printDetail("%s", op)
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVarP(&planBundle, "bundle-name", "b", "", "Bundle to plan for (required)")
	planCmd.Flags().StringVarP(&planPlatform, "platform", "p", defaultPlatform(), "Target platform (windows, linux, darwin)")
	planCmd.Flags().BoolVar(&planSynchronize, "synchronize", false, "Also plan uninstalls for packages no longer needed")
	planCmd.Flags().StringSliceVar(&planManifests, "manifest", nil, "Local manifest file to merge in (repeatable)")
	_ = planCmd.MarkFlagRequired("bundle-name")
}
