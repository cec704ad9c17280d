// Package hsctl implements the homeserver operator CLI.
package hsctl

import (
	"io"

	"github.com/dmitrijs2005/homeserver/internal/server/config"
	"github.com/spf13/cobra"
)

// NewRootCmd returns the hsctl command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hsctl",
		Short:         "Homeserver operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "homeserver config file (JSON or YAML)")

	rootCmd.AddCommand(
		generateSigningKeyCmd(),
		hashPasswordCmd(),
		routesCmd(),
		registerUserCmd(),
	)
	return rootCmd
}

// loadConfig reads the homeserver configuration named by --config, or the
// defaults when none is given.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Load(nil)
	}
	return config.Load([]string{"-c", path})
}

func writeLine(w io.Writer, s string) error {
	_, err := io.WriteString(w, s+"\n")
	return err
}
