package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/erazemk/scantrack/internal/config"
	"github.com/erazemk/scantrack/internal/db"
	"github.com/erazemk/scantrack/internal/model"
	"github.com/erazemk/scantrack/internal/tracker"
)

func newPasswordCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Manage the shared admin password",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "reset [password]",
		Short: "Set the admin password without knowing the current one",
		Long: `Set the admin password directly in the database. Without an argument the
password is reset to the default "` + model.DefaultAdminPassword + `".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := model.DefaultAdminPassword
			if len(args) == 1 {
				password = args[0]
			}

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			database, err := db.Open(cfg.DB)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.Migrate(database); err != nil {
				return err
			}
			if err := tracker.ResetAdminPassword(cmd.Context(), database, password); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Admin password reset in %s.\n", cfg.DB)
			return nil
		},
	})
	return cmd
}
