package system

import "github.com/spf13/cobra"

func NewSystemCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "system",
		Short: "Database setup and CLI documentation",
	}

	cmd.AddCommand(NewInitCommand(), NewMigrateCommand(), NewGenDocsCommand())

	return cmd
}
