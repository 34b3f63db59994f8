package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"label-designer/internal/designer/models"
	"label-designer/internal/designer/parser"
	"label-designer/internal/designer/service"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// ============================================================
// Export / Load / Import
// ============================================================

type loadResponse struct {
	Warning string           `json:"warning,omitempty"`
	State   service.Snapshot `json:"state"`
}

// Export отдаёт TemplateData сессии; ?format=yaml, ?download=1 для вложения.
func (h *DesignerHandler) Export(c fiber.Ctx) error {
	sess, ok, err := h.session(c)
	if !ok {
		return err
	}

	format := models.FormatJSON
	if raw := c.Query("format"); raw != "" {
		f, err := models.ParseFormat(raw)
		if err != nil {
			return badRequest(c, err.Error())
		}
		format = f
	}

	var data models.TemplateData
	sess.Do(func(store *service.Store, _ *service.Controller) {
		data = store.ExportData()
	})

	out, err := models.EncodeTemplate(data, format)
	if err != nil {
		h.log.Error("export", zap.String("session", sess.ID), zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "export failed"})
	}

	contentType := fiber.MIMEApplicationJSON
	if format == models.FormatYAML {
		contentType = "application/yaml"
	}
	c.Set(fiber.HeaderContentType, contentType)

	if c.Query("download") == "1" || c.Query("download") == "true" {
		name := models.DownloadName(data.Label, h.now())
		if format == models.FormatYAML {
			name = strings.TrimSuffix(name, ".json") + ".yaml"
		}
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	}
	h.metrics.Operation("export", true)
	return c.Send(out)
}

// Load заменяет макет сессии. Повреждённые данные не отклоняются:
// загружается макет по умолчанию, а причина возвращается в warning.
func (h *DesignerHandler) Load(c fiber.Ctx) error {
	sess, ok, err := h.session(c)
	if !ok {
		return err
	}

	format := models.FormatJSON
	if raw := c.Query("format"); raw != "" {
		f, err := models.ParseFormat(raw)
		if err != nil {
			return badRequest(c, err.Error())
		}
		format = f
	} else if strings.Contains(c.Get(fiber.HeaderContentType), "yaml") {
		format = models.FormatYAML
	}

	data, decodeErr := models.DecodeTemplateFormat(c.Body(), format)

	var resp loadResponse
	sess.Do(func(store *service.Store, canvas *service.Controller) {
		store.LoadFromData(data)
		resp.State = service.TakeSnapshot(store, canvas)
	})
	if decodeErr != nil {
		h.log.Warn("load degraded", zap.String("session", sess.ID), zap.Error(decodeErr))
		resp.Warning = decodeErr.Error()
	}
	h.metrics.Operation("load", decodeErr == nil)
	return c.JSON(resp)
}

// ImportSVG принимает SVG (multipart поле file или тело запроса) и
// загружает полученные элементы в сессию.
func (h *DesignerHandler) ImportSVG(c fiber.Ctx) error {
	sess, ok, err := h.session(c)
	if !ok {
		return err
	}

	var src io.Reader
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return badRequest(c, "cannot open uploaded file")
		}
		defer f.Close()
		src = f
	} else {
		if len(c.Body()) == 0 {
			return badRequest(c, "empty body")
		}
		src = bytes.NewReader(c.Body())
	}

	data, parseErr := parser.ParseSVG(src)
	if errors.Is(parseErr, parser.ErrInvalidSVG) {
		h.metrics.OperationError("import_svg")
		return badRequest(c, "invalid svg")
	}

	var resp loadResponse
	sess.Do(func(store *service.Store, canvas *service.Controller) {
		store.LoadFromData(data)
		resp.State = service.TakeSnapshot(store, canvas)
	})
	if parseErr != nil {
		h.log.Warn("svg import partial", zap.String("session", sess.ID), zap.Error(parseErr))
		resp.Warning = parseErr.Error()
	}
	h.metrics.Operation("import_svg", true)
	return c.JSON(resp)
}
