package mapper

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"label-designer/internal/designer/models"
)

// ============================================================
// Thermal printer
// ============================================================

const (
	ThermalDPI        = 203
	ThermalMaxWidthMM = 104.0

	previewGuidelineMM = 5.0
	previewMinZoom     = 0.25
	previewMaxZoom     = 3.0
)

type LabelSize struct {
	WidthMM  float64 `json:"widthMm"`
	HeightMM float64 `json:"heightMm"`
	Name     string  `json:"name"`
}

// SupportedSizes: стандартные размеры этикеток термопринтера.
var SupportedSizes = []LabelSize{
	{WidthMM: 50, HeightMM: 30, Name: "50x30 mm"},
	{WidthMM: 60, HeightMM: 40, Name: "60x40 mm"},
	{WidthMM: 80, HeightMM: 50, Name: "80x50 mm"},
	{WidthMM: 100, HeightMM: 60, Name: "100x60 mm"},
	{WidthMM: 104, HeightMM: 70, Name: "104x70 mm"},
}

type ThermalReport struct {
	Compatible  bool       `json:"compatible"`
	DPI         int        `json:"dpi"`
	MaxWidthMM  float64    `json:"maxWidthMm"`
	MatchedSize *LabelSize `json:"matchedSize,omitempty"`
	Warning     string     `json:"warning,omitempty"`
}

// CheckThermal проверяет, помещается ли этикетка в термопринтер.
func CheckThermal(label models.LabelConfig) ThermalReport {
	report := ThermalReport{
		Compatible: label.WidthMM <= ThermalMaxWidthMM,
		DPI:        ThermalDPI,
		MaxWidthMM: ThermalMaxWidthMM,
	}
	for i := range SupportedSizes {
		size := SupportedSizes[i]
		if size.WidthMM == label.WidthMM && size.HeightMM == label.HeightMM {
			report.MatchedSize = &size
			break
		}
	}
	if !report.Compatible {
		report.Warning = fmt.Sprintf("label width %smm exceeds printer maximum %smm",
			formatFloat(label.WidthMM), formatFloat(ThermalMaxWidthMM))
	}
	return report
}

// ============================================================
// Preview Renderer
// ============================================================

type PreviewOptions struct {
	Zoom           float64
	ShowGuidelines bool
	// Data overrides catalog sample values for {field} placeholders.
	Data map[string]string
}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// BindText подставляет значения полей вместо {field}; неизвестные
// плейсхолдеры остаются как есть.
func BindText(text string, data map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		if v, ok := data[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

// RenderPreview рисует этикетку так, как она уйдёт на термопечать:
// чёрно-белые примитивы в том же порядке z, что и на полотне.
func (r *Renderer) RenderPreview(label models.LabelConfig, elements []models.Element, opts PreviewOptions) (string, error) {
	zoom := opts.Zoom
	if zoom == 0 {
		zoom = 1
	}
	zoom = math.Min(previewMaxZoom, math.Max(previewMinZoom, zoom))

	data := models.SampleData()
	for k, v := range opts.Data {
		data[k] = v
	}

	width := models.MMToPx(label.WidthMM) * zoom
	height := models.MMToPx(label.HeightMM) * zoom

	var b strings.Builder
	writeHeader(&b, width, height, "")
	b.WriteString(fmt.Sprintf(`  <rect class="paper" x="0" y="0" width="%s" height="%s" fill="#fff" />`+"\n",
		formatFloat(width), formatFloat(height)))

	if opts.ShowGuidelines {
		step := models.MMToPx(previewGuidelineMM) * zoom
		for max(width, height)/step > maxGridLines {
			step *= 2
		}
		for x := step; x < width; x += step {
			b.WriteString(fmt.Sprintf(`  <line class="guideline" x1="%s" y1="0" x2="%s" y2="%s" stroke="rgba(0,0,0,0.1)" stroke-width="1" />`+"\n",
				formatFloat(x), formatFloat(x), formatFloat(height)))
		}
		for y := step; y < height; y += step {
			b.WriteString(fmt.Sprintf(`  <line class="guideline" x1="0" y1="%s" x2="%s" y2="%s" stroke="rgba(0,0,0,0.1)" stroke-width="1" />`+"\n",
				formatFloat(y), formatFloat(width), formatFloat(y)))
		}
	}

	for _, el := range models.SortByZ(elements) {
		elem := r.renderPreviewElement(el, zoom, data)
		if elem == "" {
			continue
		}
		b.WriteString("  ")
		b.WriteString(elem)
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf(`  <rect class="border" x="0" y="0" width="%s" height="%s" fill="none" stroke="#9CA3AF" stroke-width="2" stroke-dasharray="6 3" />`+"\n",
		formatFloat(width), formatFloat(height)))
	b.WriteString(`</svg>`)
	return b.String(), nil
}

func (r *Renderer) renderPreviewElement(el models.Element, zoom float64, data map[string]string) string {
	fr := frame(el, zoom)

	var content string
	switch b := el.Body.(type) {
	case models.TextBody:
		fontSize := fontSizeOrDefault(b.FontSize) * zoom
		align := b.Align
		if align == "" {
			align = models.AlignRight
		}
		content = textNode(fr, BindText(b.Text, data), align, b.FontWeight, fontSize, "#000")

	case models.RectBody:
		content = rectNode(fr, "#f0f0f0", "#000", 1, false)

	case models.LineBody:
		sw := el.StrokeWidth
		if sw <= 0 {
			sw = 1
		}
		thickness := math.Max(1, sw*zoom)
		content = fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s" fill="#000" />`,
			formatFloat(fr.left), formatFloat(fr.top), formatFloat(fr.width), formatFloat(thickness))

	case models.QRBody:
		content = rectNode(fr, "#f8f8f8", "#000", 1, false) + captionNode(fr, "QR CODE", "#000")

	case models.BarcodeBody:
		content = rectNode(fr, "#f8f8f8", "#000", 1, false) + captionNode(fr, "BARCODE", "#000")

	case models.ImageBody:
		content = rectNode(fr, "#f8f8f8", "#666", 1, true) + captionNode(fr, "IMAGE", "#666")

	default:
		return ""
	}

	return fmt.Sprintf(`<g id="%s" data-type="%s">%s</g>`, escape(el.ID), el.Type(), content)
}
