package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/pageview/internal/formatter"
	"github.com/oakwood-commons/pageview/pkg/settings"
)

var versionOutput string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if versionOutput == "json" {
			return formatter.WriteJSON(cmd.OutOrStdout(), versionData())
		}
		fmt.Fprintln(cmd.OutOrStdout(), versionString())
		return nil
	},
}

func versionData() map[string]any {
	info := settings.VersionInformation
	return map[string]any{
		"name":       settings.CliBinaryName,
		"version":    info.BuildVersion,
		"commit":     info.Commit,
		"build_time": info.BuildTime,
		"go_version": runtime.Version(),
	}
}

// versionString is the human readable version for `version` and --version.
func versionString() string {
	info := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)",
		settings.CliBinaryName, info.BuildVersion, info.Commit, info.BuildTime, runtime.Version())
}

func init() { //nolint:gochecknoinits
	versionCmd.Flags().StringVarP(&versionOutput, "output", "o", "text", "output format: text|json")
}
