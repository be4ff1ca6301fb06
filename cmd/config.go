package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/pageview/internal/config"
	"github.com/oakwood-commons/pageview/pkg/settings"
)

// configCmd groups configuration subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect " + settings.CliBinaryName + " configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the merged configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := config.ResolvePath(settings.FromContextOrDefault(cmd.Context()).ConfigFile)
		cfg, err := config.Load(path)
		if err != nil {
			return usageError{err: err}
		}
		out, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var configDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Show the built-in default configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := cmd.OutOrStdout().Write(config.DefaultConfigYAML())
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show which config file is loaded",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := config.ResolvePath(settings.FromContextOrDefault(cmd.Context()).ConfigFile)
		if path == "" {
			path = "(built-in defaults)"
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}
