package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"label-designer/internal/designer/mapper"
	"label-designer/internal/designer/service"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// ============================================================
// Rendering
// ============================================================

const svgContentType = "image/svg+xml"

// Canvas отдаёт SVG полотна редактора с сеткой, выделением и направляющими.
func (h *DesignerHandler) Canvas(c fiber.Ctx) error {
	sess, ok, err := h.session(c)
	if !ok {
		return err
	}

	snap := snapshot(sess)
	scene := &mapper.Scene{
		Label:    snap.Label,
		Elements: snap.Elements,
		Guides:   snap.Guides,
		Zoom:     snap.Zoom,
	}
	if snap.SelectedID != nil {
		scene.SelectedID = *snap.SelectedID
	}

	start := time.Now()
	svg, err := h.renderer.RenderCanvas(scene)
	if err != nil {
		h.log.Error("render canvas", zap.String("session", sess.ID), zap.Error(err))
		h.metrics.OperationError("render_canvas")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "render failed"})
	}
	h.metrics.ObserveRender("canvas", time.Since(start).Seconds())

	c.Set(fiber.HeaderContentType, svgContentType)
	return c.SendString(svg)
}

// Preview рисует печатный вид. Параметры: zoom, guidelines, data.<field>.
func (h *DesignerHandler) Preview(c fiber.Ctx) error {
	sess, ok, err := h.session(c)
	if !ok {
		return err
	}

	opts := mapper.PreviewOptions{Zoom: 1, ShowGuidelines: true, Data: map[string]string{}}
	if raw := c.Query("zoom"); raw != "" {
		z, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return badRequest(c, "invalid zoom")
		}
		opts.Zoom = z
	}
	if raw := c.Query("guidelines"); raw != "" {
		show, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "invalid guidelines flag")
		}
		opts.ShowGuidelines = show
	}
	for key, value := range c.Queries() {
		if field, found := strings.CutPrefix(key, "data."); found && field != "" {
			opts.Data[field] = value
		}
	}

	var snap service.Snapshot
	sess.Do(func(store *service.Store, canvas *service.Controller) {
		snap = service.TakeSnapshot(store, canvas)
	})

	start := time.Now()
	svg, err := h.renderer.RenderPreview(snap.Label, snap.Elements, opts)
	if err != nil {
		h.log.Error("render preview", zap.String("session", sess.ID), zap.Error(err))
		h.metrics.OperationError("render_preview")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "render failed"})
	}
	h.metrics.ObserveRender("preview", time.Since(start).Seconds())

	c.Set(fiber.HeaderContentType, svgContentType)
	return c.SendString(svg)
}

func (h *DesignerHandler) Compatibility(c fiber.Ctx) error {
	sess, ok, err := h.session(c)
	if !ok {
		return err
	}
	return c.JSON(mapper.CheckThermal(snapshot(sess).Label))
}
