package cli

import (
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/Asgard118/ayon-dependencies-tool/internal/bundle"
)

var (
	createBundle      string
	createPlatform    string
	createSynchronize bool
	createDryRun      bool
	createSkipUpdate  bool
	createUpdate      bool
	createUpdateScope []string
	createExtras      []string
	createManifests   []string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Build a dependency package for a bundle",
	Long: `Build a dependency package for a bundle.

Fetches the bundle's addon manifests and the installer baseline from the
server, merges and resolves them, and records the resulting package unless
--dry-run is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, err := newEngine()
		if err != nil {
			return err
		}

		locals, err := loadLocalManifests(createManifests)
		if err != nil {
			return err
		}

		ctx := clog.WithLogger(cmd.Context(), clog.DefaultLogger())
		result, err := engine.Build(ctx, bundle.BuildRequest{
			Bundle:           createBundle,
			Platform:         createPlatform,
			Synchronize:      createSynchronize,
			DryRun:           createDryRun,
			SkipBundleUpdate: createSkipUpdate,
			Update:           createUpdate,
			UpdateScope:      createUpdateScope,
			Extras:           createExtras,
			LocalManifests:   locals,
		})
		if err != nil {
			printError(err)
			return err
		}

		if result.Reused {
			printSuccess(fmt.Sprintf("existing dependency package for %s still applicable", createBundle))
			return nil
		}

		if createDryRun {
			printWarning(fmt.Sprintf("dry run: %s not created", result.Package.Filename))
		} else {
			printSuccess(fmt.Sprintf("created %s", result.Package.Filename))
		}

		printHeader("Pinned modules")
		for _, name := range sortedKeys(result.Package.PythonModules) {
			printDetail("%s %s", name, result.Package.PythonModules[name])
		}
		if len(result.Operations) > 0 {
			printHeader("Planned operations")
			for _, op := range result.Operations {
				printDetail("%s", op)
			}
		}
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&createBundle, "bundle-name", "b", "", "Bundle to build for (required)")
	createCmd.Flags().StringVarP(&createPlatform, "platform", "p", defaultPlatform(), "Target platform (windows, linux, darwin)")
	createCmd.Flags().BoolVar(&createSynchronize, "synchronize", false, "Also plan uninstalls for packages no longer needed")
	createCmd.Flags().BoolVar(&createDryRun, "dry-run", false, "Compute the package without writing anything")
	createCmd.Flags().BoolVar(&createSkipUpdate, "skip-bundle-update", false, "Create the package without assigning it to the bundle")
	createCmd.Flags().BoolVarP(&createUpdate, "update", "u", false, "Resolve fresh instead of reusing locked versions")
	createCmd.Flags().StringSliceVar(&createUpdateScope, "update-package", nil, "Limit --update to the named packages (repeatable)")
	createCmd.Flags().StringSliceVar(&createExtras, "extras", nil, "Optional dependency groups to include (repeatable)")
	createCmd.Flags().StringSliceVar(&createManifests, "manifest", nil, "Local manifest file to merge in (repeatable)")
	_ = createCmd.MarkFlagRequired("bundle-name")
}
