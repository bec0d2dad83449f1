package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/crosspost/internal/repository"
	"go.uber.org/zap"
)

type MediaLinkHandler struct {
	repo   repository.MediaLinkRepository
	logger *zap.Logger
}

func NewMediaLinkHandler(repo repository.MediaLinkRepository, logger *zap.Logger) *MediaLinkHandler {
	return &MediaLinkHandler{repo: repo, logger: logger.Named("media_link_handler")}
}

func (h *MediaLinkHandler) ListLinks(c *fiber.Ctx) error {
	links, err := h.repo.List(c.Context())
	if err != nil {
		h.logger.Error("failed to list media links", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Unable to list media links")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"links": links,
	})
}
