package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mediscribe/mediscribe_backend/config"
	"github.com/mediscribe/mediscribe_backend/pkg/elevenlabs"
	"github.com/mediscribe/mediscribe_backend/pkg/gemini"
)

// pinger is satisfied by both vendor clients.
type pinger interface {
	Ping(ctx context.Context) error
}

func NewCheckCommand() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that the Gemini and ElevenLabs credentials are usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			services := []struct {
				name   string
				hasKey bool
				client pinger
			}{
				{"Gemini", cfg.Gemini.APIKey != "", gemini.New(cfg.Gemini)},
				{"ElevenLabs", cfg.ElevenLabs.APIKey != "", elevenlabs.New(cfg.ElevenLabs)},
			}

			out := cmd.OutOrStdout()
			var errs []error
			for _, s := range services {
				if !s.hasKey {
					fmt.Fprintf(out, "%-10s  missing API key\n", s.name)
					errs = append(errs, fmt.Errorf("%s API key is not configured", s.name))
					continue
				}
				if offline {
					fmt.Fprintf(out, "%-10s  API key configured\n", s.name)
					continue
				}

				ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
				err := s.client.Ping(ctx)
				cancel()
				if err != nil {
					fmt.Fprintf(out, "%-10s  unreachable: %v\n", s.name, err)
					errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
					continue
				}
				fmt.Fprintf(out, "%-10s  ok\n", s.name)
			}

			return errors.Join(errs...)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Only check that keys are present")

	return cmd
}
