package pipeline

import "github.com/spf13/cobra"

func NewPipelineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run the prescription pipeline outside the server",
	}

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewCheckCommand())

	return cmd
}
