package lead

import (
	"errors"

	"lead-sync/core/logger"
	"lead-sync/feature/lead/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler handles HTTP requests for leads.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the lead and sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	leads := app.Group("/leads")
	leads.Post("/", h.HandleCreateLead)
	leads.Get("/:id", h.HandleGetLead)
	leads.Put("/:id", h.HandleUpdateLead)

	sync := app.Group("/sync")
	sync.Post("/leads", h.HandleSyncLeads)
	sync.Get("/errors", h.HandleListErrors)
}

// HandleCreateLead creates a lead and dispatches its synchronization.
// @Summary Create Lead
// @Description Create a lead; change capture schedules an asynchronous sync.
// @Tags leads
// @Accept json
// @Produce json
// @Param lead body models.Lead true "Lead"
// @Success 201 {object} models.Lead "Created Lead"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 503 {object} map[string]string "Scheduling Unavailable"
// @Router /leads [post]
func (h *Handler) HandleCreateLead(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var lead models.Lead
	if err := c.BodyParser(&lead); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid lead payload"})
	}

	if err := h.service.CreateLead(c.Context(), &lead); err != nil {
		l.Error("Lead creation failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(lead)
}

// HandleGetLead returns one lead.
// @Summary Get Lead
// @Tags leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} models.Lead "Lead"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /leads/{id} [get]
func (h *Handler) HandleGetLead(c *fiber.Ctx) error {
	lead, err := h.service.GetLead(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "lead not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(lead)
}

// HandleUpdateLead updates a lead; the change filter decides whether the
// update warrants a sync.
// @Summary Update Lead
// @Tags leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param lead body models.Lead true "Lead"
// @Success 200 {object} models.Lead "Updated Lead"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 503 {object} map[string]string "Scheduling Unavailable"
// @Router /leads/{id} [put]
func (h *Handler) HandleUpdateLead(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var lead models.Lead
	if err := c.BodyParser(&lead); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid lead payload"})
	}
	lead.ID = c.Params("id")

	if err := h.service.UpdateLead(c.Context(), &lead); err != nil {
		l.Error("Lead update failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(lead)
}

type syncRequest struct {
	IDs []string `json:"ids"`
}

// HandleSyncLeads dispatches a sync run for explicit lead identifiers.
// @Summary Sync Leads
// @Description Enqueue a synchronization run for the given lead IDs.
// @Tags sync
// @Accept json
// @Produce json
// @Param request body syncRequest true "Lead IDs"
// @Success 202 {object} map[string]string "Scheduling Handle"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 503 {object} map[string]string "Scheduling Unavailable"
// @Router /sync/leads [post]
func (h *Handler) HandleSyncLeads(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req syncRequest
	if err := c.BodyParser(&req); err != nil || len(req.IDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ids required"})
	}

	handle, err := h.service.SyncByIDs(c.Context(), req.IDs)
	if err != nil {
		l.Error("Sync dispatch failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"handle": handle.ID})
}

// HandleListErrors returns recent entries from the durable sync error log.
// @Summary List Sync Errors
// @Tags sync
// @Produce json
// @Param limit query int false "Max rows (default 50)"
// @Success 200 {array} models.SyncErrorLog "Sync Errors"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/errors [get]
func (h *Handler) HandleListErrors(c *fiber.Ctx) error {
	rows, err := h.service.ListErrors(c.Context(), c.QueryInt("limit", 50))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(rows)
}
