// Package commands implements the CLI commands for the heddle dependency
// manager.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.heddle.dev/heddle/internal/app"
	"go.heddle.dev/heddle/internal/build"
)

// ComponentProvider builds the application components. It runs after flag
// parsing, so adapter nodes see the parsed values through viper. The returned
// function tears the components down.
type ComponentProvider func(ctx context.Context) (*app.Components, func(), error)

// CLI represents the command line interface for heddle.
type CLI struct {
	provider ComponentProvider
	rootCmd  *cobra.Command
}

// New creates a new CLI instance with the given component provider.
func New(provider ComponentProvider) *CLI {
	rootCmd := &cobra.Command{
		Use:           "heddle",
		Short:         "Dependency resolution and lock management for package builds",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("path", "p", ".", "Path to the root package directory")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().String("cache-dir", "", "Directory for fetched dependency sources")
	rootCmd.PersistentFlags().Bool("skip-fetch-latest-git-deps", false, "Reuse existing git checkouts without contacting the remote")

	// The adapter nodes read these via viper when the component graph boots.
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("cache-dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
	_ = viper.BindPFlag("skip-fetch-latest-git-deps", rootCmd.PersistentFlags().Lookup("skip-fetch-latest-git-deps"))

	c := &CLI{
		provider: provider,
		rootCmd:  rootCmd,
	}

	rootCmd.AddCommand(c.newResolveCmd())
	rootCmd.AddCommand(c.newGraphCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// components boots the application through the provider. The teardown flushes
// progress output before releasing the components.
func (c *CLI) components(ctx context.Context) (*app.Components, func(), error) {
	components, cleanup, err := c.provider(ctx)
	if err != nil {
		return nil, nil, err
	}
	teardown := func() {
		if closer, ok := components.Tracer.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		cleanup()
	}
	return components, teardown, nil
}
