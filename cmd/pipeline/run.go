package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mediscribe/mediscribe_backend/config"
	"github.com/mediscribe/mediscribe_backend/internal/app"
	"github.com/mediscribe/mediscribe_backend/internal/pipeline"
	"github.com/mediscribe/mediscribe_backend/pkg/elevenlabs"
	"github.com/mediscribe/mediscribe_backend/pkg/gemini"
	"github.com/mediscribe/mediscribe_backend/pkg/logs"
	"github.com/mediscribe/mediscribe_backend/pkg/storage"
)

func NewRunCommand() *cobra.Command {
	var (
		imagePath string
		outPath   string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process a local prescription image without the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			data, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}

			audio, err := storage.NewLocal(cfg.Storage.AudioDir)
			if err != nil {
				return err
			}

			runner, err := app.NewRunner(cfg, gemini.New(cfg.Gemini), elevenlabs.New(cfg.ElevenLabs), audio, logs.New(cfg))
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			out := cmd.OutOrStdout()
			res, err := runner.Run(ctx, pipeline.Job{
				UniqueID: uuid.NewString(),
				Image: pipeline.Image{
					Name:     filepath.Base(imagePath),
					MIMEType: storage.ContentTypeOf(imagePath),
					Data:     data,
				},
			}, progressRecorder(out))
			if err != nil {
				return err
			}

			audioFile := filepath.Join(audio.Dir(), res.AudioPath)
			if outPath != "" {
				if err := moveFile(audioFile, outPath); err != nil {
					return fmt.Errorf("failed to move audio to %s: %w", outPath, err)
				}
				audioFile = outPath
			}

			printResult(out, res, audioFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "Path to the prescription image")
	cmd.Flags().StringVar(&outPath, "out", "", "Where to write the audio (defaults to the audio directory)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Maximum time for the whole run")
	_ = cmd.MarkFlagRequired("image")

	return cmd
}

// progressRecorder prints each checkpoint instead of persisting it.
func progressRecorder(w io.Writer) pipeline.Recorder {
	return pipeline.RecorderFunc(func(_ context.Context, cp pipeline.Checkpoint) error {
		if cp.Err != nil {
			fmt.Fprintf(w, "%s: failed: %v\n", cp.Stage.Label(), cp.Err)
			return nil
		}
		if cp.Stage == pipeline.StageDone {
			fmt.Fprintf(w, "%s: done\n", pipeline.StageSynthesis.Label())
			return nil
		}
		fmt.Fprintf(w, "%s: done\n", cp.Stage.Label())
		return nil
	})
}

func printResult(w io.Writer, res *pipeline.Result, audioFile string) {
	fmt.Fprintln(w)
	if res.PatientName != "" {
		fmt.Fprintf(w, "Patient: %s\n", res.PatientName)
	}
	fmt.Fprintf(w, "Extracted text:\n%s\n\n", res.RawText)

	fmt.Fprintf(w, "Medications (%d):\n", len(res.Medications))
	for i, m := range res.Medications {
		fmt.Fprintf(w, "  %d. %s | %s | %s (%s confidence)\n", i+1, m.Name, m.Dose, m.Schedule, m.Confidence)
	}
	if res.SpecialInstructions != "" {
		fmt.Fprintf(w, "Special instructions: %s\n", res.SpecialInstructions)
	}

	fmt.Fprintf(w, "\nUrdu instructions:\n%s\n\n", res.UrduText)
	fmt.Fprintf(w, "Audio: %s\n", audioFile)
}

// moveFile renames src to dst, copying across filesystems when a rename is
// not possible.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
