package handlers

import (
	"context"
	"errors"
	"net/http"

	"label-designer/internal/designer/models"
	"label-designer/internal/designer/repository"
	"label-designer/internal/designer/service"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// ============================================================
// Sessions
// ============================================================

type createSessionRequest struct {
	TemplateID string `json:"templateId"`
}

// CreateSession открывает новую сессию, при необходимости сразу загружая шаблон.
func (h *DesignerHandler) CreateSession(c fiber.Ctx) error {
	var req createSessionRequest
	if len(c.Body()) > 0 {
		if err := decodeBody(c, &req); err != nil {
			return badRequest(c, err.Error())
		}
	}

	var tmpl *models.Template
	if req.TemplateID != "" {
		t, err := h.templates.Get(context.Background(), req.TemplateID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFound(c, "template not found")
			}
			h.log.Error("load template", zap.String("template", req.TemplateID), zap.Error(err))
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		}
		tmpl = t
	}

	sess := h.sessions.Create()
	if tmpl != nil {
		sess.Do(func(store *service.Store, _ *service.Controller) {
			store.LoadFromData(tmpl.Data)
		})
	}
	h.syncSessionGauge()
	h.log.Info("session created", zap.String("session", sess.ID), zap.String("template", req.TemplateID))

	return c.Status(http.StatusCreated).JSON(stateResponse{ID: sess.ID, State: snapshot(sess)})
}

func (h *DesignerHandler) GetSession(c fiber.Ctx) error {
	sess, ok, err := h.session(c)
	if !ok {
		return err
	}
	return c.JSON(stateResponse{ID: sess.ID, State: snapshot(sess)})
}

func (h *DesignerHandler) DeleteSession(c fiber.Ctx) error {
	if !h.sessions.Delete(c.Params("id")) {
		return notFound(c, "session not found")
	}
	h.syncSessionGauge()
	return c.SendStatus(http.StatusNoContent)
}

// PatchLabel сливает изменения конфигурации этикетки. Шаг сетки и порог
// поднимаются до минимумов; недопустимые размеры (не больше нуля или
// больше MaxLabelMM) отклоняются.
func (h *DesignerHandler) PatchLabel(c fiber.Ctx) error {
	sess, ok, err := h.session(c)
	if !ok {
		return err
	}

	var patch models.LabelPatch
	if err := decodeBody(c, &patch); err != nil {
		return badRequest(c, err.Error())
	}
	if patch.Orientation != nil && *patch.Orientation != models.Portrait && *patch.Orientation != models.Landscape {
		return badRequest(c, "invalid orientation")
	}

	clampLabelPatch(&patch)

	valid := true
	sess.Do(func(store *service.Store, _ *service.Controller) {
		if !store.Label().Apply(patch).Valid() {
			valid = false
			return
		}
		store.SetLabel(patch)
	})
	if !valid {
		return badRequest(c, "invalid label config")
	}
	h.metrics.Operation("set_label", true)
	return c.JSON(stateResponse{ID: sess.ID, State: snapshot(sess)})
}

// Минимумы, которые редактор выставляет до setLabel.
const (
	minGridMM          = 1.0
	minSnapThresholdMM = 0.5
)

// clampLabelPatch поднимает шаг сетки и порог магнитов до минимумов редактора.
func clampLabelPatch(p *models.LabelPatch) {
	if p.GridMM != nil {
		v := max(minGridMM, *p.GridMM)
		p.GridMM = &v
	}
	if p.SnapThreshold != nil {
		v := max(minSnapThresholdMM, *p.SnapThreshold)
		p.SnapThreshold = &v
	}
}

type zoomRequest struct {
	Zoom *float64 `json:"zoom"`
}

func (h *DesignerHandler) PutZoom(c fiber.Ctx) error {
	sess, ok, err := h.session(c)
	if !ok {
		return err
	}

	var req zoomRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	if req.Zoom == nil {
		return badRequest(c, "zoom required")
	}

	sess.Do(func(store *service.Store, _ *service.Controller) {
		store.SetZoom(*req.Zoom)
	})
	h.metrics.Operation("set_zoom", true)
	return c.JSON(stateResponse{ID: sess.ID, State: snapshot(sess)})
}

type selectionRequest struct {
	ID *string `json:"id"`
}

// PutSelection выделяет элемент; {"id": null} снимает выделение.
func (h *DesignerHandler) PutSelection(c fiber.Ctx) error {
	sess, ok, err := h.session(c)
	if !ok {
		return err
	}

	var req selectionRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	found := true
	sess.Do(func(store *service.Store, _ *service.Controller) {
		if req.ID == nil || *req.ID == "" {
			store.SetSelected("")
			return
		}
		if _, found = store.Element(*req.ID); found {
			store.SetSelected(*req.ID)
		}
	})
	if !found {
		return notFound(c, "element not found")
	}
	return c.JSON(stateResponse{ID: sess.ID, State: snapshot(sess)})
}

// ============================================================
// Commands
// ============================================================

type commandResponse struct {
	Applied bool             `json:"applied"`
	State   service.Snapshot `json:"state"`
}

// commands: операции без аргументов, применяемые к выделению или сессии.
var commands = map[string]func(store *service.Store) bool{
	"delete": func(s *service.Store) bool { return s.DeleteSelected() },
	"duplicate": func(s *service.Store) bool {
		_, ok := s.DuplicateSelected()
		return ok
	},
	"forward":  func(s *service.Store) bool { return s.BringForward() },
	"backward": func(s *service.Store) bool { return s.SendBackward() },
	"clear": func(s *service.Store) bool {
		s.Clear()
		return true
	},
	"toggle-grid": func(s *service.Store) bool {
		s.ToggleGrid()
		return true
	},
	"toggle-magnets": func(s *service.Store) bool {
		s.ToggleMagnets()
		return true
	},
	"zoom-in": func(s *service.Store) bool {
		s.ZoomIn()
		return true
	},
	"zoom-out": func(s *service.Store) bool {
		s.ZoomOut()
		return true
	},
	"clear-guides": func(s *service.Store) bool {
		s.ClearGuides()
		return true
	},
}

func (h *DesignerHandler) Command(c fiber.Ctx) error {
	name := c.Params("cmd")
	cmd, known := commands[name]
	if !known {
		return notFound(c, "unknown command")
	}

	sess, ok, err := h.session(c)
	if !ok {
		return err
	}

	var resp commandResponse
	sess.Do(func(store *service.Store, canvas *service.Controller) {
		resp.Applied = cmd(store)
		resp.State = service.TakeSnapshot(store, canvas)
	})
	h.metrics.Operation(name, resp.Applied)
	return c.JSON(resp)
}

// ============================================================
// Pointer & keyboard
// ============================================================

type pointerRequest struct {
	Phase     string  `json:"phase"`  // down, move, up, cancel, background
	Target    string  `json:"target"` // element, handle
	ElementID string  `json:"elementId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Button    int     `json:"button"`
}

type eventResponse struct {
	Handled bool             `json:"handled"`
	State   service.Snapshot `json:"state"`
}

// Pointer прогоняет событие указателя через контроллер сессии.
func (h *DesignerHandler) Pointer(c fiber.Ctx) error {
	sess, ok, err := h.session(c)
	if !ok {
		return err
	}

	var req pointerRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ev := service.PointerEvent{X: req.X, Y: req.Y, Button: req.Button}

	var (
		resp  eventResponse
		phase = true
	)
	sess.Do(func(store *service.Store, canvas *service.Controller) {
		switch req.Phase {
		case "down":
			if req.Target == "handle" {
				resp.Handled = canvas.PressHandle(req.ElementID, ev)
			} else {
				resp.Handled = canvas.PressElement(req.ElementID, ev)
			}
		case "move":
			resp.Handled = canvas.Move(ev)
		case "up", "cancel":
			resp.Handled = canvas.Drag().Mode != service.DragIdle
			canvas.Release()
		case "background":
			canvas.PressBackground(ev)
			resp.Handled = true
		default:
			phase = false
			return
		}
		resp.State = service.TakeSnapshot(store, canvas)
	})
	if !phase {
		return badRequest(c, "unknown pointer phase")
	}
	h.metrics.Operation("pointer_"+req.Phase, resp.Handled)
	return c.JSON(resp)
}

func (h *DesignerHandler) Keys(c fiber.Ctx) error {
	sess, ok, err := h.session(c)
	if !ok {
		return err
	}

	var ev service.KeyEvent
	if err := decodeBody(c, &ev); err != nil {
		return badRequest(c, err.Error())
	}

	var resp eventResponse
	sess.Do(func(store *service.Store, canvas *service.Controller) {
		resp.Handled = canvas.KeyDown(ev)
		resp.State = service.TakeSnapshot(store, canvas)
	})
	h.metrics.Operation("key", resp.Handled)
	return c.JSON(resp)
}
