package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"label-designer/internal/common/metrics"
	"label-designer/internal/designer/mapper"
	"label-designer/internal/designer/models"
	"label-designer/internal/designer/service"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// ============================================================
// Designer Handler
// ============================================================

// TemplateStore: библиотека шаблонов, которой пользуется HTTP слой.
type TemplateStore interface {
	Save(ctx context.Context, t *models.Template) error
	Get(ctx context.Context, id string) (*models.Template, error)
	List(ctx context.Context) ([]models.Template, error)
	Delete(ctx context.Context, id string) error
}

type DesignerHandler struct {
	sessions  *service.SessionManager
	templates TemplateStore
	renderer  *mapper.Renderer
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
}

func NewDesignerHandler(sessions *service.SessionManager, templates TemplateStore, m *metrics.Metrics, logger *zap.Logger) *DesignerHandler {
	return &DesignerHandler{
		sessions:  sessions,
		templates: templates,
		renderer:  mapper.NewRenderer(),
		metrics:   m,
		log:       logger,
		now:       time.Now,
	}
}

// Register вешает маршруты редактора на router (обычно группа /api/v1).
func (h *DesignerHandler) Register(r fiber.Router) {
	r.Post("/sessions", h.CreateSession)
	r.Get("/sessions/:id", h.GetSession)
	r.Delete("/sessions/:id", h.DeleteSession)
	r.Patch("/sessions/:id/label", h.PatchLabel)
	r.Put("/sessions/:id/zoom", h.PutZoom)
	r.Put("/sessions/:id/selection", h.PutSelection)

	r.Post("/sessions/:id/elements", h.AddElement)
	r.Patch("/sessions/:id/elements/:eid", h.PatchElement)
	r.Post("/sessions/:id/elements/:eid/move", h.MoveElement)
	r.Post("/sessions/:id/elements/:eid/resize", h.ResizeElement)
	r.Post("/sessions/:id/elements/:eid/data-field", h.InsertDataField)
	r.Post("/sessions/:id/commands/:cmd", h.Command)

	r.Post("/sessions/:id/pointer", h.Pointer)
	r.Post("/sessions/:id/keys", h.Keys)

	r.Get("/sessions/:id/export", h.Export)
	r.Post("/sessions/:id/load", h.Load)
	r.Post("/sessions/:id/import-svg", h.ImportSVG)

	r.Get("/sessions/:id/canvas.svg", h.Canvas)
	r.Get("/sessions/:id/preview.svg", h.Preview)
	r.Get("/sessions/:id/preview/compatibility", h.Compatibility)

	r.Post("/sessions/:id/templates", h.SaveTemplate)
	r.Get("/templates", h.ListTemplates)
	r.Get("/templates/:tid", h.GetTemplate)
	r.Delete("/templates/:tid", h.DeleteTemplate)

	r.Get("/data-fields", h.DataFields)
}

// ============================================================
// Helpers
// ============================================================

type stateResponse struct {
	ID    string           `json:"id"`
	State service.Snapshot `json:"state"`
}

// session достаёт сессию из :id; при отсутствии сразу пишет 404.
func (h *DesignerHandler) session(c fiber.Ctx) (*service.Session, bool, error) {
	id := c.Params("id")
	sess, err := h.sessions.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return nil, false, c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		}
		h.log.Error("get session", zap.String("session", id), zap.Error(err))
		return nil, false, c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return sess, true, nil
}

func snapshot(sess *service.Session) service.Snapshot {
	var snap service.Snapshot
	sess.Do(func(store *service.Store, canvas *service.Controller) {
		snap = service.TakeSnapshot(store, canvas)
	})
	return snap
}

func decodeBody(c fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return errors.New("empty body")
	}
	if err := json.Unmarshal(c.Body(), dst); err != nil {
		return errors.New("invalid json")
	}
	return nil
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func notFound(c fiber.Ctx, msg string) error {
	return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": msg})
}

func (h *DesignerHandler) syncSessionGauge() {
	h.metrics.SetSessions(h.sessions.Count())
}
