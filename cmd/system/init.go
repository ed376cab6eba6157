package system

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mediscribe/mediscribe_backend/config"
	"github.com/mediscribe/mediscribe_backend/pkg/database"
)

func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the databases listed in server.databases",
		Long: `Connect to the postgres maintenance database and create every database named
in server.databases that does not exist yet. Run "system migrate" afterwards to
create the prescription and medication tables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			fmt.Printf("Creating databases %v...\n", cfg.Server.Databases)
			err = database.InitializeDatabases(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize databases: %w", err)
			}
			fmt.Println("Databases ready.")
			return nil
		},
	}

	return cmd
}
