package hsctl

import (
	"fmt"

	"github.com/dmitrijs2005/homeserver/internal/common"
	"github.com/dmitrijs2005/homeserver/internal/logging"
	"github.com/dmitrijs2005/homeserver/internal/server/storage"
	"github.com/dmitrijs2005/homeserver/internal/server/users"
	"github.com/spf13/cobra"
)

func registerUserCmd() *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "register-user <localpart>",
		Short: "Create a local account directly in the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			pw, err := getPassword(cmd, fromStdin)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			ctx := cmd.Context()
			store, err := storage.Open(ctx, storage.Config{
				Engine:   cfg.DatabaseEngine,
				Source:   cfg.DatabasePath,
				MaxConns: cfg.DatabaseMaxConns,
			}, logging.Discard())
			if err != nil {
				return err
			}
			defer store.Close()

			svc := users.NewService(users.NewSQLRepository(store), cfg.ServerName)
			user, err := svc.Register(ctx, args[0], string(pw))
			if err != nil {
				return err
			}
			return writeLine(cmd.OutOrStdout(), fmt.Sprintf("registered %s", user.ID))
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the password from the first line of stdin")
	return cmd
}
