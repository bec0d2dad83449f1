package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	job "github.com/maheshrc27/crosspost/internal/jobs"
	"github.com/maheshrc27/crosspost/internal/queue"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/service"
	"go.uber.org/zap"
)

type QueueHandler struct {
	s             service.QueueService
	repo          repository.QueueRepository
	runner        queue.Runner
	AsynqClient   *asynq.Client
	retentionDays int
	logger        *zap.Logger
}

// NewQueueHandler serves the queue endpoints. Runs are enqueued on asynq
// when a client is given, otherwise they execute inline.
func NewQueueHandler(
	s service.QueueService,
	repo repository.QueueRepository,
	runner queue.Runner,
	asynqClient *asynq.Client,
	retentionDays int,
	logger *zap.Logger) *QueueHandler {
	return &QueueHandler{
		s:             s,
		repo:          repo,
		runner:        runner,
		AsynqClient:   asynqClient,
		retentionDays: retentionDays,
		logger:        logger.Named("queue_handler"),
	}
}

func (h *QueueHandler) Status(c *fiber.Ctx) error {
	overview, err := h.s.Overview(c.Context())
	if err != nil {
		h.logger.Error("failed to read queue status", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Unable to read queue status")
	}
	return c.Status(fiber.StatusOK).JSON(overview)
}

// ListItems returns the whole queue, or only pending items with ?pending=true.
func (h *QueueHandler) ListItems(c *fiber.Ctx) error {
	list := h.repo.List
	if c.QueryBool("pending", false) {
		list = h.repo.ListUnposted
	}

	items, err := list(c.Context())
	if err != nil {
		h.logger.Error("failed to list queue", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Unable to list queue")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"items": items,
	})
}

func (h *QueueHandler) TriggerRun(c *fiber.Ctx) error {
	h.logger.Info("posting run requested", zap.String("operator", Operator(c)))

	if h.AsynqClient != nil {
		info, err := queue.EnqueueRun(h.AsynqClient, queue.RunPostingPayload{Trigger: "api"}, 0)
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return errorResponse(c, fiber.StatusConflict, "A posting run is already queued")
		}
		if err != nil {
			h.logger.Error("failed to enqueue posting run", zap.Error(err))
			return errorResponse(c, fiber.StatusInternalServerError, "Error scheduling posting run")
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"message": "Posting run queued",
			"task_id": info.ID,
		})
	}

	summary, err := h.runner.Run(c.UserContext())
	if errors.Is(err, job.ErrRunInProgress) {
		return errorResponse(c, fiber.StatusConflict, err.Error())
	}
	if err != nil {
		h.logger.Error("posting run failed", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}

// Cleanup removes posted items older than ?days (default RETENTION_DAYS).
func (h *QueueHandler) Cleanup(c *fiber.Ctx) error {
	days := c.QueryInt("days", h.retentionDays)
	if days < 0 {
		return errorResponse(c, fiber.StatusBadRequest, "days must not be negative")
	}

	removed, err := h.repo.CleanupOlderThan(c.Context(), days)
	if err != nil {
		h.logger.Error("queue cleanup failed", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Unable to clean up queue")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"removed": removed,
		"days":    days,
	})
}
