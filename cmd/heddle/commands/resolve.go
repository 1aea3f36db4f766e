package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.heddle.dev/heddle/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the dependency graph and refresh the lock artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}

			components, teardown, err := c.components(cmd.Context())
			if err != nil {
				return err
			}
			defer teardown()

			dir, _ := cmd.Flags().GetString("path")
			rg, err := components.App.Resolve(cmd.Context(), dir, cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cfg.FetchDepsOnly {
				_, _ = fmt.Fprintf(out, "%s: %d dependencies fetched\n", rg.Root, len(rg.Packages))
				return nil
			}
			_, _ = fmt.Fprintf(out, "%s: %d dependencies resolved\n", rg.Root, len(rg.Packages))
			return nil
		},
	}

	cmd.Flags().BoolP("dev", "d", false, "Include dev-dependencies and dev-addresses of the root")
	cmd.Flags().Bool("test", false, "Record test mode for downstream compilation")
	cmd.Flags().Bool("doc", false, "Record documentation generation for downstream tooling")
	cmd.Flags().Bool("abi", false, "Record ABI generation for downstream tooling")
	cmd.Flags().BoolP("force", "f", false, "Ignore the lock artifact and re-resolve")
	cmd.Flags().Bool("fetch-deps-only", false, "Stop once dependency sources are on disk")
	cmd.Flags().Bool("deps-as-root", false, "Treat every package as a root, making dev edges live everywhere")
	cmd.Flags().String("lock-file", "", "Override the lock artifact location")
	cmd.Flags().String("install-dir", "", "Override where build artifacts land")
	cmd.Flags().String("edition", "", "Default edition for manifests that leave it unset")
	cmd.Flags().String("flavor", "", "Default flavor for manifests that leave it unset")
	cmd.Flags().StringToString("named-addresses", nil, "Extra named address assignments as name=0x... pairs")
	cmd.Flags().String("warnings", "", "Warning policy: report, suppress or error")
	cmd.Flags().Int("parallelism", 0, "Bound on concurrent fetch and expansion work (0 uses all CPUs)")

	return cmd
}

// buildConfig collects the resolution options from the parsed flags. Flags a
// command does not define simply stay at their zero value.
func buildConfig(cmd *cobra.Command) (domain.BuildConfig, error) {
	flags := cmd.Flags()

	dev, _ := flags.GetBool("dev")
	test, _ := flags.GetBool("test")
	docs, _ := flags.GetBool("doc")
	abis, _ := flags.GetBool("abi")
	force, _ := flags.GetBool("force")
	fetchOnly, _ := flags.GetBool("fetch-deps-only")
	depsAsRoot, _ := flags.GetBool("deps-as-root")
	skipGit, _ := flags.GetBool("skip-fetch-latest-git-deps")
	lockFile, _ := flags.GetString("lock-file")
	installDir, _ := flags.GetString("install-dir")
	edition, _ := flags.GetString("edition")
	flavor, _ := flags.GetString("flavor")
	named, _ := flags.GetStringToString("named-addresses")
	warnings, _ := flags.GetString("warnings")
	parallelism, _ := flags.GetInt("parallelism")

	cfg := domain.BuildConfig{
		DevMode:                  dev,
		TestMode:                 test,
		GenerateDocs:             docs,
		GenerateABIs:             abis,
		InstallDir:               installDir,
		ForceRecompilation:       force,
		LockFile:                 lockFile,
		AdditionalNamedAddresses: named,
		FetchDepsOnly:            fetchOnly,
		SkipFetchLatestGitDeps:   skipGit,
		DefaultEdition:           edition,
		DefaultFlavor:            flavor,
		DepsAsRoot:               depsAsRoot,
		Parallelism:              parallelism,
	}

	switch policy := domain.WarningPolicy(warnings); policy {
	case "", domain.WarnReport, domain.WarnSuppress, domain.WarnError:
		cfg.Warnings = policy
	default:
		return cfg, zerr.With(zerr.New("unknown warning policy"), "warnings", warnings)
	}

	return cfg, nil
}
