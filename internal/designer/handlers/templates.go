package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"label-designer/internal/designer/models"
	"label-designer/internal/designer/repository"
	"label-designer/internal/designer/service"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// ============================================================
// Template library
// ============================================================

type saveTemplateRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
}

// SaveTemplate сохраняет текущий макет сессии в библиотеку.
// Переданный id перезаписывает существующий шаблон.
func (h *DesignerHandler) SaveTemplate(c fiber.Ctx) error {
	sess, ok, err := h.session(c)
	if !ok {
		return err
	}

	var req saveTemplateRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return badRequest(c, "name required")
	}

	tmpl := models.Template{ID: req.ID, Name: req.Name, IsDefault: req.IsDefault}
	sess.Do(func(store *service.Store, _ *service.Controller) {
		tmpl.Data = store.ExportData()
	})

	if err := h.templates.Save(context.Background(), &tmpl); err != nil {
		h.log.Error("save template", zap.String("session", sess.ID), zap.String("template", tmpl.ID), zap.Error(err))
		h.metrics.OperationError("save_template")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "save failed"})
	}
	h.metrics.TemplateSaved()
	return c.Status(http.StatusCreated).JSON(tmpl)
}

func (h *DesignerHandler) ListTemplates(c fiber.Ctx) error {
	list, err := h.templates.List(context.Background())
	if err != nil {
		h.log.Error("list templates", zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(list)
}

func (h *DesignerHandler) GetTemplate(c fiber.Ctx) error {
	id := c.Params("tid")
	tmpl, err := h.templates.Get(context.Background(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "template not found")
		}
		h.log.Error("get template", zap.String("template", id), zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(tmpl)
}

func (h *DesignerHandler) DeleteTemplate(c fiber.Ctx) error {
	id := c.Params("tid")
	if err := h.templates.Delete(context.Background(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "template not found")
		}
		h.log.Error("delete template", zap.String("template", id), zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.SendStatus(http.StatusNoContent)
}

// DataFields отдаёт каталог полей для привязки текста.
func (h *DesignerHandler) DataFields(c fiber.Ctx) error {
	return c.JSON(models.DataFields)
}
