package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/mediscribe/mediscribe_backend/internal/service/prescription"
)

type AssetHandler struct {
	svc prescription.Service
}

func NewAssetHandler(svc prescription.Service) *AssetHandler {
	return &AssetHandler{svc: svc}
}

// GET /image/:name
func (h *AssetHandler) Image(c fiber.Ctx) error {
	return h.serve(c, h.svc.OpenImage)
}

// GET /audio/:name
func (h *AssetHandler) Audio(c fiber.Ctx) error {
	return h.serve(c, h.svc.OpenAudio)
}

func (h *AssetHandler) serve(c fiber.Ctx, open func(context.Context, string) (*prescription.Asset, error)) error {
	asset, err := open(c.Context(), c.Params("name"))
	if err != nil {
		switch {
		case errors.Is(err, prescription.ErrInvalidName):
			return badRequest(c, "invalid file name")
		case errors.Is(err, prescription.ErrAssetNotFound):
			return notFound(c, "file not found")
		}
		slog.ErrorContext(c.Context(), "open asset", "name", c.Params("name"), "error", err)
		return internalError(c)
	}

	c.Set(fiber.HeaderContentType, asset.ContentType)
	// Body is closed once the stream has been written.
	return c.SendStream(asset.Body, int(asset.Size))
}
