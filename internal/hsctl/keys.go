package hsctl

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/homeserver/internal/cryptox"
	"github.com/spf13/cobra"
)

func generateSigningKeyCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "generate-signing-key",
		Short: "Generate an ed25519 signing key",
		Long:  "Generate an ed25519 signing key in the homeserver key file format. Without --output the key is written to stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := cryptox.GenerateSigningKey()
			if err != nil {
				return err
			}

			if output == "" {
				return cryptox.WriteSigningKey(cmd.OutOrStdout(), key)
			}

			f, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
			if err != nil {
				return fmt.Errorf("create key file: %w", err)
			}
			if err := cryptox.WriteSigningKey(f, key); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			return writeLine(cmd.OutOrStdout(), fmt.Sprintf("wrote %s to %s", key.KeyID(), output))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "key file to create; refuses to overwrite")
	return cmd
}
