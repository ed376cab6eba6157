package http

import "github.com/spf13/cobra"

func NewHTTPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the prescription API",
		Long: `Serve the prescription API: uploads run the OCR, correction,
translation and speech pipeline, and records, images and audio are read back over /api.`,
	}

	cmd.AddCommand(NewStartCommand())

	return cmd
}
