package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/mediscribe/mediscribe_backend/cmd/http"
	pipelinecmd "github.com/mediscribe/mediscribe_backend/cmd/pipeline"
	systemcmd "github.com/mediscribe/mediscribe_backend/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "mediscribe",
	Short: "MediScribe turns handwritten prescriptions into spoken Urdu instructions.",
	Long: `MediScribe reads a photographed prescription, standardizes the medications
it finds, writes patient instructions in Urdu and voices them as audio.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
	rootCmd.AddCommand(pipelinecmd.NewPipelineCommand())
}
