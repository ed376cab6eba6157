package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mediscribe/mediscribe_backend/internal/schema"
)

const (
	instrumentationName = "github.com/mediscribe/mediscribe_backend/internal/pipeline"

	AudioContentType = "audio/mpeg"
	audioExtension   = ".mp3"
)

// Image is the uploaded prescription as handed to the vision stage.
type Image struct {
	Name     string
	MIMEType string
	Data     []byte
}

// DraftMedication is a medication line as read from the image, before
// correction.
type DraftMedication struct {
	Name       string
	Dose       string
	Schedule   string
	Confidence string
}

// Extraction is the output of the vision stage.
type Extraction struct {
	RawText             string
	Medications         []DraftMedication
	PatientName         string
	SpecialInstructions string
}

// TranslationRequest carries what the translator needs to write instructions.
type TranslationRequest struct {
	Medications []schema.Medication
	PatientName string
}

type Vision interface {
	Extract(ctx context.Context, img Image) (*Extraction, error)
}

type Corrector interface {
	Correct(ctx context.Context, drafts []DraftMedication) ([]schema.Medication, error)
}

type Translator interface {
	Translate(ctx context.Context, req TranslationRequest) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// AudioStore persists synthesized audio under a key.
type AudioStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
}

// Checkpoint is the outcome of one stage. Only the fields owned by Stage are
// set; Err is non-nil exactly when Status is failed.
type Checkpoint struct {
	Stage       Stage
	Status      schema.Status
	RawText     string
	Medications []schema.Medication
	UrduText    string
	AudioPath   string
	Err         error
}

// Recorder commits a checkpoint. It must return only after the checkpoint
// is durable.
type Recorder interface {
	Record(ctx context.Context, cp Checkpoint) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, cp Checkpoint) error

func (f RecorderFunc) Record(ctx context.Context, cp Checkpoint) error { return f(ctx, cp) }

// Job identifies one run.
type Job struct {
	UniqueID string
	Image    Image
}

// Result collects everything a successful run produced.
type Result struct {
	RawText             string
	Medications         []schema.Medication
	UrduText            string
	AudioPath           string
	PatientName         string
	SpecialInstructions string
}

// Deps wires the stage implementations.
type Deps struct {
	Vision      Vision
	Corrector   Corrector
	Translator  Translator
	Synthesizer Synthesizer
	Audio       AudioStore
	Logger      *slog.Logger
}

// Runner executes the stages strictly in order.
type Runner struct {
	vision      Vision
	corrector   Corrector
	translator  Translator
	synthesizer Synthesizer
	audio       AudioStore
	log         *slog.Logger

	tracer        trace.Tracer
	stageDuration metric.Float64Histogram
	runs          metric.Int64Counter
}

func New(d Deps) (*Runner, error) {
	if d.Vision == nil || d.Corrector == nil || d.Translator == nil || d.Synthesizer == nil || d.Audio == nil {
		return nil, errors.New("pipeline: all stage dependencies are required")
	}
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}

	meter := otel.Meter(instrumentationName)
	stageDuration, _ := meter.Float64Histogram(
		"pipeline_stage_duration_ms",
		metric.WithDescription("Duration of a single pipeline stage"),
		metric.WithUnit("ms"),
	)
	runs, _ := meter.Int64Counter(
		"pipeline_runs_total",
		metric.WithDescription("Pipeline runs by final status"),
		metric.WithUnit("{run}"),
	)

	return &Runner{
		vision:        d.Vision,
		corrector:     d.Corrector,
		translator:    d.Translator,
		synthesizer:   d.Synthesizer,
		audio:         d.Audio,
		log:           log,
		tracer:        otel.Tracer(instrumentationName),
		stageDuration: stageDuration,
		runs:          runs,
	}, nil
}

// AudioKey is the storage key of the audio generated for a record.
func AudioKey(uniqueID string) string {
	return uniqueID + audioExtension
}

// Run executes OCR, correction, translation and synthesis for job, handing a
// checkpoint to rec after every stage. A stage failure is recorded and
// returned as *StageError. A Recorder failure is returned as is and stops
// the run without touching earlier checkpoints.
func (r *Runner) Run(ctx context.Context, job Job, rec Recorder) (*Result, error) {
	ctx, span := r.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("prescription.unique_id", job.UniqueID),
	))
	defer span.End()

	res, err := r.run(ctx, job, rec)

	status := schema.StatusCompleted
	if err != nil {
		status = schema.StatusFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	r.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status.String())))

	return res, err
}

func (r *Runner) run(ctx context.Context, job Job, rec Recorder) (*Result, error) {
	res := &Result{}
	log := r.log.With("unique_id", job.UniqueID)

	// OCR
	var extraction *Extraction
	err := r.stage(ctx, StageOCR, func(ctx context.Context) error {
		ext, err := r.vision.Extract(ctx, job.Image)
		if err != nil {
			return err
		}
		if ext == nil || strings.TrimSpace(ext.RawText) == "" {
			return ErrNoText
		}
		extraction = ext
		return nil
	})
	if err != nil {
		return nil, r.fail(ctx, rec, StageOCR, err)
	}
	res.RawText = strings.TrimSpace(extraction.RawText)
	res.PatientName = strings.TrimSpace(extraction.PatientName)
	res.SpecialInstructions = strings.TrimSpace(extraction.SpecialInstructions)
	if err := rec.Record(ctx, Checkpoint{Stage: StageOCR, Status: schema.StatusProcessing, RawText: res.RawText}); err != nil {
		return nil, fmt.Errorf("record %s: %w", StageOCR, err)
	}
	log.Info("text extracted", "stage", StageOCR, "draft_medications", len(extraction.Medications))

	// Correction
	err = r.stage(ctx, StageCorrection, func(ctx context.Context) error {
		meds, err := r.corrector.Correct(ctx, extraction.Medications)
		if err != nil {
			return err
		}
		res.Medications = meds
		return nil
	})
	if err != nil {
		return nil, r.fail(ctx, rec, StageCorrection, err)
	}
	if err := rec.Record(ctx, Checkpoint{Stage: StageCorrection, Status: schema.StatusProcessing, Medications: res.Medications}); err != nil {
		return nil, fmt.Errorf("record %s: %w", StageCorrection, err)
	}
	log.Info("medications standardized", "stage", StageCorrection, "medications", len(res.Medications))

	// Translation
	err = r.stage(ctx, StageTranslation, func(ctx context.Context) error {
		text, err := r.translator.Translate(ctx, TranslationRequest{
			Medications: res.Medications,
			PatientName: res.PatientName,
		})
		if err != nil {
			return err
		}
		text = CleanForSpeech(text)
		if text == "" {
			return ErrEmptyTranslation
		}
		res.UrduText = text
		return nil
	})
	if err != nil {
		return nil, r.fail(ctx, rec, StageTranslation, err)
	}
	if err := rec.Record(ctx, Checkpoint{Stage: StageTranslation, Status: schema.StatusProcessing, UrduText: res.UrduText}); err != nil {
		return nil, fmt.Errorf("record %s: %w", StageTranslation, err)
	}
	log.Info("urdu instructions generated", "stage", StageTranslation, "chars", len([]rune(res.UrduText)))

	// Synthesis
	key := AudioKey(job.UniqueID)
	err = r.stage(ctx, StageSynthesis, func(ctx context.Context) error {
		audio, err := r.synthesizer.Synthesize(ctx, res.UrduText)
		if err != nil {
			return err
		}
		if len(audio) == 0 {
			return ErrEmptyAudio
		}
		if err := r.audio.Put(ctx, key, AudioContentType, bytes.NewReader(audio), int64(len(audio))); err != nil {
			return fmt.Errorf("store audio: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, r.fail(ctx, rec, StageSynthesis, err)
	}
	res.AudioPath = key
	if err := rec.Record(ctx, Checkpoint{Stage: StageDone, Status: schema.StatusCompleted, AudioPath: key}); err != nil {
		// No record points at the audio, e.g. the row was deleted mid-run.
		if delErr := r.audio.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			log.Warn("failed to remove unreferenced audio", "audio_path", key, "error", delErr)
		}
		return nil, fmt.Errorf("record %s: %w", StageDone, err)
	}
	log.Info("pipeline completed", "stage", StageDone, "audio_path", key)

	return res, nil
}

// stage runs fn inside a span and records its duration.
func (r *Runner) stage(ctx context.Context, s Stage, fn func(context.Context) error) error {
	ctx, span := r.tracer.Start(ctx, "pipeline."+s.String())
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	r.stageDuration.Record(ctx, elapsed, metric.WithAttributes(
		attribute.String("stage", s.String()),
		attribute.String("outcome", outcome),
	))
	return err
}

// fail records the failed checkpoint. The stage error is returned even when
// recording it fails, joined with the recorder error.
func (r *Runner) fail(ctx context.Context, rec Recorder, s Stage, cause error) error {
	stageErr := &StageError{Stage: s, Err: cause}
	r.log.Warn("pipeline stage failed", "stage", s, "error", cause)

	// The failure must be persisted even if the request context is gone.
	recCtx := context.WithoutCancel(ctx)
	if err := rec.Record(recCtx, Checkpoint{Stage: s, Status: schema.StatusFailed, Err: stageErr}); err != nil {
		return errors.Join(stageErr, fmt.Errorf("record %s failure: %w", s, err))
	}
	return stageErr
}
