package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/mediscribe/mediscribe_backend/internal/pipeline"
	"github.com/mediscribe/mediscribe_backend/internal/schema"
	"github.com/mediscribe/mediscribe_backend/internal/service/prescription"
)

type PrescriptionHandler struct {
	svc prescription.Service
}

func NewPrescriptionHandler(svc prescription.Service) *PrescriptionHandler {
	return &PrescriptionHandler{svc: svc}
}

// POST /upload
// Multipart field "file". Runs the whole pipeline before responding.
func (h *PrescriptionHandler) Upload(c fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file field is required")
	}

	f, err := fh.Open()
	if err != nil {
		slog.ErrorContext(c.Context(), "open multipart file", "error", err)
		return internalError(c)
	}
	defer f.Close()

	record, err := h.svc.Upload(c.Context(), prescription.UploadRequest{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		if errors.Is(err, prescription.ErrInvalidUpload) {
			return badRequest(c, err.Error())
		}
		if stage, isStage := pipeline.FailedStage(err); isStage && record != nil {
			slog.WarnContext(c.Context(), "prescription processing failed",
				"unique_id", record.UniqueID, "stage", stage, "error", err)
			return badGateway(c, record, err.Error())
		}
		slog.ErrorContext(c.Context(), "upload prescription", "error", err)
		return internalError(c)
	}

	return created(c, record)
}

// GET /prescriptions
func (h *PrescriptionHandler) List(c fiber.Ctx) error {
	list, err := h.svc.List(c.Context())
	if err != nil {
		slog.ErrorContext(c.Context(), "list prescriptions", "error", err)
		return internalError(c)
	}
	if list == nil {
		list = []schema.Prescription{}
	}
	return ok(c, fiber.Map{
		"prescriptions": list,
		"count":         len(list),
	})
}

// GET /prescriptions/:unique_id
func (h *PrescriptionHandler) Get(c fiber.Ctx) error {
	record, err := h.svc.Get(c.Context(), c.Params("unique_id"))
	if err != nil {
		if errors.Is(err, prescription.ErrNotFound) {
			return notFound(c, "prescription not found")
		}
		slog.ErrorContext(c.Context(), "get prescription", "error", err)
		return internalError(c)
	}
	return ok(c, record)
}

// DELETE /prescriptions/:unique_id
func (h *PrescriptionHandler) Delete(c fiber.Ctx) error {
	if err := h.svc.Delete(c.Context(), c.Params("unique_id")); err != nil {
		if errors.Is(err, prescription.ErrNotFound) {
			return notFound(c, "prescription not found")
		}
		slog.ErrorContext(c.Context(), "delete prescription", "error", err)
		return internalError(c)
	}
	return ok(c, fiber.Map{"message": "prescription deleted"})
}
