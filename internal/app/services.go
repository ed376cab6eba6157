package app

import (
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/mediscribe/mediscribe_backend/config"
	"github.com/mediscribe/mediscribe_backend/internal/agent"
	"github.com/mediscribe/mediscribe_backend/internal/pipeline"
	"github.com/mediscribe/mediscribe_backend/internal/repo"
	"github.com/mediscribe/mediscribe_backend/internal/service/prescription"
	"github.com/mediscribe/mediscribe_backend/pkg/elevenlabs"
	"github.com/mediscribe/mediscribe_backend/pkg/events"
	"github.com/mediscribe/mediscribe_backend/pkg/gemini"
	"github.com/mediscribe/mediscribe_backend/pkg/storage"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvidePrescriptionRepo,
		ProvideRunner,
		ProvidePrescriptionService,
	),
)

func ProvidePrescriptionRepo(db *gorm.DB) *repo.Prescriptions {
	return repo.NewPrescriptions(db)
}

func ProvideRunner(
	cfg *config.Config,
	gem *gemini.Client,
	tts *elevenlabs.Client,
	buckets *storage.Buckets,
	log *slog.Logger,
) (*pipeline.Runner, error) {
	return NewRunner(cfg, gem, tts, buckets.Audio, log)
}

// NewRunner assembles the four stages over the vendor clients. It is shared
// by the server and the standalone pipeline command.
func NewRunner(
	cfg *config.Config,
	gem *gemini.Client,
	tts *elevenlabs.Client,
	audio pipeline.AudioStore,
	log *slog.Logger,
) (*pipeline.Runner, error) {
	return pipeline.New(pipeline.Deps{
		Vision:      agent.NewVision(gem, log),
		Corrector:   pipeline.NewPharmacist(cfg.Pharmacy.DrugAliases, cfg.Pharmacy.Abbreviations),
		Translator:  agent.NewLinguist(gem),
		Synthesizer: agent.NewSpeaker(tts),
		Audio:       audio,
		Logger:      log,
	})
}

func ProvidePrescriptionService(
	cfg *config.Config,
	store *repo.Prescriptions,
	runner *pipeline.Runner,
	buckets *storage.Buckets,
	pub events.Publisher,
	log *slog.Logger,
) prescription.Service {
	return prescription.New(prescription.Deps{
		Store:     store,
		Runner:    runner,
		Buckets:   buckets,
		Publisher: pub,
		Storage:   cfg.Storage,
		Logger:    log,
	})
}
