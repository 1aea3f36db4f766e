package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.heddle.dev/heddle/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the resolved dependency graph",
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

			if target, _ := cmd.Flags().GetString("dependents"); target != "" {
				return writeDependents(cmd.OutOrStdout(), rg, target)
			}
			writeGraph(cmd.OutOrStdout(), rg)
			return nil
		},
	}

	cmd.Flags().BoolP("dev", "d", false, "Include dev-dependencies and dev-addresses of the root")
	cmd.Flags().Bool("deps-as-root", false, "Treat every package as a root, making dev edges live everywhere")
	cmd.Flags().BoolP("force", "f", false, "Ignore the lock artifact and re-resolve")
	cmd.Flags().String("lock-file", "", "Override the lock artifact location")
	cmd.Flags().StringToString("named-addresses", nil, "Extra named address assignments as name=0x... pairs")
	cmd.Flags().String("warnings", "", "Warning policy: report, suppress or error")
	cmd.Flags().String("dependents", "", "Print only the packages declaring the named package")

	return cmd
}

// writeGraph renders the dependency relation as one edge per line. Edges come
// out sorted, so the same graph always prints the same text.
func writeGraph(w io.Writer, rg *domain.ResolvedGraph) {
	_, _ = fmt.Fprintf(w, "root: %s\n", rg.Root)
	for _, e := range rg.Graph.Edges() {
		if e.Dev {
			_, _ = fmt.Fprintf(w, "%s -> %s [dev]\n", e.From, e.To)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s -> %s\n", e.From, e.To)
	}
}

// writeDependents prints every package declaring pkg, one name per line.
func writeDependents(w io.Writer, rg *domain.ResolvedGraph, pkg string) error {
	target := domain.NewInternedString(pkg)
	if !rg.Graph.Contains(target) {
		return zerr.With(domain.ErrPackageNotFound, "package", pkg)
	}
	for _, from := range rg.Graph.Neighbors(target, domain.Incoming) {
		_, _ = fmt.Fprintf(w, "%s\n", from)
	}
	return nil
}
