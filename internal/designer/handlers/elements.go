package handlers

import (
	"net/http"

	"label-designer/internal/designer/models"
	"label-designer/internal/designer/service"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Elements
// ============================================================

type addElementRequest struct {
	Type string `json:"type"`
}

type elementResponse struct {
	Element models.Element   `json:"element"`
	State   service.Snapshot `json:"state"`
}

// AddElement добавляет элемент по умолчанию поверх остальных и выделяет его.
func (h *DesignerHandler) AddElement(c fiber.Ctx) error {
	sess, ok, err := h.session(c)
	if !ok {
		return err
	}

	var req addElementRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	t, err := models.ParseElementType(req.Type)
	if err != nil {
		return badRequest(c, "unknown element type")
	}

	var resp elementResponse
	sess.Do(func(store *service.Store, canvas *service.Controller) {
		resp.Element, _ = store.AddElement(t)
		resp.State = service.TakeSnapshot(store, canvas)
	})
	h.metrics.Operation("add_element", true)
	return c.Status(http.StatusCreated).JSON(resp)
}

func (h *DesignerHandler) PatchElement(c fiber.Ctx) error {
	var patch models.ElementPatch
	if err := decodeBody(c, &patch); err != nil {
		return badRequest(c, err.Error())
	}
	clampElementPatch(&patch)
	return h.mutateElement(c, "update_element", func(store *service.Store, id string) bool {
		return store.UpdateElement(id, patch)
	})
}

// clampElementPatch держит размеры и прозрачность в допустимых пределах:
// w >= 1, h >= 0, opacity в [0, 1].
func clampElementPatch(p *models.ElementPatch) {
	if p.W != nil {
		v := max(service.MinElementWidthMM, *p.W)
		p.W = &v
	}
	if p.H != nil {
		v := max(0, *p.H)
		p.H = &v
	}
	if p.Opacity != nil {
		v := min(1, max(0, *p.Opacity))
		p.Opacity = &v
	}
}

type moveRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// MoveElement сдвигает элемент на (dx, dy) мм с привязкой к сетке и магнитам.
func (h *DesignerHandler) MoveElement(c fiber.Ctx) error {
	var req moveRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	return h.mutateElement(c, "move_element", func(store *service.Store, id string) bool {
		return store.MoveElement(id, req.DX, req.DY)
	})
}

func (h *DesignerHandler) ResizeElement(c fiber.Ctx) error {
	var patch models.SizePatch
	if err := decodeBody(c, &patch); err != nil {
		return badRequest(c, err.Error())
	}
	return h.mutateElement(c, "resize_element", func(store *service.Store, id string) bool {
		return store.ResizeElement(id, patch)
	})
}

type dataFieldRequest struct {
	Field string `json:"field"`
}

// InsertDataField дописывает {field} в текстовый элемент.
func (h *DesignerHandler) InsertDataField(c fiber.Ctx) error {
	var req dataFieldRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	if !models.IsDataField(req.Field) {
		return badRequest(c, "unknown data field")
	}

	sess, ok, err := h.session(c)
	if !ok {
		return err
	}

	id := c.Params("eid")
	var (
		el    models.Element
		found bool
		state service.Snapshot
	)
	sess.Do(func(store *service.Store, canvas *service.Controller) {
		if el, found = store.Element(id); !found {
			return
		}
		store.InsertDataField(id, req.Field)
		state = service.TakeSnapshot(store, canvas)
	})
	if !found {
		return notFound(c, "element not found")
	}
	if el.Type() != models.TypeText {
		return badRequest(c, "data fields bind to text elements only")
	}
	h.metrics.Operation("insert_data_field", true)
	return c.JSON(stateResponse{ID: sess.ID, State: state})
}

// mutateElement применяет fn к элементу :eid; на отсутствующий элемент отвечает 404.
func (h *DesignerHandler) mutateElement(c fiber.Ctx, op string, fn func(store *service.Store, id string) bool) error {
	sess, ok, err := h.session(c)
	if !ok {
		return err
	}

	id := c.Params("eid")
	var (
		applied bool
		state   service.Snapshot
	)
	sess.Do(func(store *service.Store, canvas *service.Controller) {
		applied = fn(store, id)
		state = service.TakeSnapshot(store, canvas)
	})
	h.metrics.Operation(op, applied)
	if !applied {
		return notFound(c, "element not found")
	}
	return c.JSON(stateResponse{ID: sess.ID, State: state})
}
