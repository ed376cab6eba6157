package prescription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mediscribe/mediscribe_backend/config"
	"github.com/mediscribe/mediscribe_backend/internal/pipeline"
	"github.com/mediscribe/mediscribe_backend/internal/repo"
	"github.com/mediscribe/mediscribe_backend/internal/schema"
	"github.com/mediscribe/mediscribe_backend/pkg/events"
	"github.com/mediscribe/mediscribe_backend/pkg/storage"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type UploadRequest struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Asset is an open stored file. Body must be closed by the caller.
type Asset struct {
	Body        io.ReadCloser
	Name        string
	ContentType string
	Size        int64
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	// Upload stores the image, creates the record and runs the pipeline.
	// When a stage fails the persisted record is returned together with a
	// *pipeline.StageError.
	Upload(ctx context.Context, req UploadRequest) (*schema.Prescription, error)
	List(ctx context.Context) ([]schema.Prescription, error)
	Get(ctx context.Context, uniqueID string) (*schema.Prescription, error)
	Delete(ctx context.Context, uniqueID string) error
	OpenImage(ctx context.Context, name string) (*Asset, error)
	OpenAudio(ctx context.Context, name string) (*Asset, error)
	Ready(ctx context.Context) error
}

type Store interface {
	Create(ctx context.Context, p *schema.Prescription) error
	List(ctx context.Context) ([]schema.Prescription, error)
	GetByUniqueID(ctx context.Context, uniqueID string) (*schema.Prescription, error)
	DeleteByUniqueID(ctx context.Context, uniqueID string) (*schema.Prescription, error)
	ApplyCheckpoint(ctx context.Context, uniqueID string, cp pipeline.Checkpoint) error
	Ping(ctx context.Context) error
}

type Runner interface {
	Run(ctx context.Context, job pipeline.Job, rec pipeline.Recorder) (*pipeline.Result, error)
}

type Deps struct {
	Store     Store
	Runner    Runner
	Buckets   *storage.Buckets
	Publisher events.Publisher
	Storage   config.StorageConfig
	Logger    *slog.Logger
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type prescriptionService struct {
	store     Store
	runner    Runner
	images    storage.Store
	audio     storage.Store
	publisher events.Publisher
	allowed   map[string]bool
	maxBytes  int64
	log       *slog.Logger
}

func New(d Deps) Service {
	allowed := make(map[string]bool, len(d.Storage.AllowedExtensions))
	for _, ext := range d.Storage.AllowedExtensions {
		allowed[strings.TrimPrefix(strings.ToLower(ext), ".")] = true
	}
	pub := d.Publisher
	if pub == nil {
		pub = events.Nop{}
	}
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return &prescriptionService{
		store:     d.Store,
		runner:    d.Runner,
		images:    d.Buckets.Images,
		audio:     d.Buckets.Audio,
		publisher: pub,
		allowed:   allowed,
		maxBytes:  int64(d.Storage.MaxUploadBytes()),
		log:       log,
	}
}

func (s *prescriptionService) Upload(ctx context.Context, req UploadRequest) (*schema.Prescription, error) {
	data, contentType, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	imageKey := uuid.NewString() + "_" + SecureFilename(req.FileName, "."+extension(req.FileName))
	if err := s.images.Put(ctx, imageKey, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	rec := &schema.Prescription{
		UniqueID:  uuid.NewString(),
		ImagePath: imageKey,
		Status:    schema.StatusPending,
		Stage:     pipeline.StageUploaded.String(),
	}
	if err := s.store.Create(ctx, rec); err != nil {
		if delErr := s.images.Delete(context.WithoutCancel(ctx), imageKey); delErr != nil {
			s.log.Warn("failed to remove orphaned image", "image", imageKey, "error", delErr)
		}
		return nil, err
	}
	log := s.log.With("unique_id", rec.UniqueID)
	log.Info("prescription uploaded", "image", imageKey, "bytes", len(data))

	_, runErr := s.runner.Run(ctx, pipeline.Job{
		UniqueID: rec.UniqueID,
		Image:    pipeline.Image{Name: imageKey, MIMEType: contentType, Data: data},
	}, s.recorder(rec.UniqueID))

	saved, err := s.store.GetByUniqueID(context.WithoutCancel(ctx), rec.UniqueID)
	if err != nil {
		return nil, errors.Join(runErr, fmt.Errorf("reload prescription: %w", err))
	}
	if runErr != nil {
		log.Warn("prescription processing failed", "stage", saved.Stage, "error", runErr)
		return saved, runErr
	}
	return saved, nil
}

func (s *prescriptionService) validate(req UploadRequest) ([]byte, string, error) {
	if strings.TrimSpace(req.FileName) == "" {
		return nil, "", fmt.Errorf("%w: no file selected", ErrInvalidUpload)
	}
	ext := extension(req.FileName)
	if !s.allowed[ext] {
		return nil, "", fmt.Errorf("%w: file type %q is not allowed", ErrInvalidUpload, ext)
	}
	if req.Size > s.maxBytes {
		return nil, "", fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidUpload, s.maxBytes)
	}
	if req.Body == nil {
		return nil, "", fmt.Errorf("%w: no file provided", ErrInvalidUpload)
	}

	data, err := io.ReadAll(io.LimitReader(req.Body, s.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: file is empty", ErrInvalidUpload)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, "", fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidUpload, s.maxBytes)
	}

	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("%w: content type %q is not an image", ErrInvalidUpload, contentType)
	}
	return data, contentType, nil
}

// recorder commits checkpoints and announces them once committed.
func (s *prescriptionService) recorder(uniqueID string) pipeline.Recorder {
	return pipeline.RecorderFunc(func(ctx context.Context, cp pipeline.Checkpoint) error {
		if err := s.store.ApplyCheckpoint(ctx, uniqueID, cp); err != nil {
			return err
		}
		ev := events.StatusChanged{
			UniqueID: uniqueID,
			Status:   cp.Status.String(),
			Stage:    cp.Stage.String(),
		}
		if cp.Err != nil {
			ev.Error = cp.Err.Error()
		}
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.log.Warn("failed to publish status change", "unique_id", uniqueID, "stage", cp.Stage, "error", err)
		}
		return nil
	})
}

func (s *prescriptionService) List(ctx context.Context) ([]schema.Prescription, error) {
	return s.store.List(ctx)
}

func (s *prescriptionService) Get(ctx context.Context, uniqueID string) (*schema.Prescription, error) {
	p, err := s.store.GetByUniqueID(ctx, uniqueID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *prescriptionService) Delete(ctx context.Context, uniqueID string) error {
	p, err := s.store.DeleteByUniqueID(ctx, uniqueID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	// Best-effort asset removal (the record is already gone)
	if err := s.images.Delete(ctx, p.ImagePath); err != nil {
		s.log.Warn("failed to remove image", "unique_id", uniqueID, "image", p.ImagePath, "error", err)
	}
	if p.AudioPath != nil && *p.AudioPath != "" {
		if err := s.audio.Delete(ctx, *p.AudioPath); err != nil {
			s.log.Warn("failed to remove audio", "unique_id", uniqueID, "audio", *p.AudioPath, "error", err)
		}
	}
	s.log.Info("prescription deleted", "unique_id", uniqueID)
	return nil
}

func (s *prescriptionService) OpenImage(ctx context.Context, name string) (*Asset, error) {
	return open(ctx, s.images, name, "")
}

func (s *prescriptionService) OpenAudio(ctx context.Context, name string) (*Asset, error) {
	return open(ctx, s.audio, name, pipeline.AudioContentType)
}

func (s *prescriptionService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func open(ctx context.Context, st storage.Store, name, contentType string) (*Asset, error) {
	body, info, err := st.Open(ctx, name)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidKey):
			return nil, ErrInvalidName
		case errors.Is(err, storage.ErrNotFound):
			return nil, ErrAssetNotFound
		}
		return nil, err
	}
	if contentType == "" {
		contentType = info.ContentType
	}
	if contentType == "" {
		contentType = storage.ContentTypeOf(name)
	}
	return &Asset{Body: body, Name: name, ContentType: contentType, Size: info.Size}, nil
}
