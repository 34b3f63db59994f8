package mapper

import (
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"

	"label-designer/internal/designer/models"
)

// ============================================================
// Canvas Renderer
// ============================================================

// Scene: всё, что нужно для отрисовки полотна редактора.
type Scene struct {
	Label      models.LabelConfig
	Elements   []models.Element
	Guides     []models.MagneticGuide
	Zoom       float64
	SelectedID string
}

const (
	minStageWidthPx  = 60
	minStageHeightPx = 40
	minElementPx     = 2
	majorGridEvery   = 5
	// maxGridLines ограничивает число линий сетки на ось; при более
	// частой сетке шаг укрупняется до основных линий.
	maxGridLines = 400

	gridLineColor  = "rgba(0,0,0,0.08)"
	gridMajorColor = "rgba(0,0,0,0.12)"
	guideColor     = "rgba(239,68,68,0.7)"
	selectColor    = "#3B82F6"
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderCanvas собирает SVG полотна: сетка, элементы по z, направляющие.
func (r *Renderer) RenderCanvas(scene *Scene) (string, error) {
	if scene == nil {
		return "", fmt.Errorf("scene is nil")
	}
	zoom := scene.Zoom
	if zoom <= 0 {
		zoom = 1
	}

	width := math.Max(minStageWidthPx, models.MMToPx(scene.Label.WidthMM)*zoom)
	height := math.Max(minStageHeightPx, models.MMToPx(scene.Label.HeightMM)*zoom)

	var b strings.Builder
	writeHeader(&b, width, height, fmt.Sprintf(` data-width-mm="%s" data-height-mm="%s"`,
		formatFloat(scene.Label.WidthMM), formatFloat(scene.Label.HeightMM)))
	b.WriteString(fmt.Sprintf(`  <rect class="stage" x="0" y="0" width="%s" height="%s" fill="#fff" />`+"\n",
		formatFloat(width), formatFloat(height)))

	if scene.Label.ShowGrid && scene.Label.GridMM > 0 {
		for _, line := range r.gridLines(scene.Label.GridMM, zoom, width, height) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	for _, el := range models.SortByZ(scene.Elements) {
		elem := r.renderElement(el, zoom, el.ID == scene.SelectedID)
		if elem == "" {
			continue
		}
		b.WriteString("  ")
		b.WriteString(elem)
		b.WriteString("\n")
	}

	for _, g := range scene.Guides {
		b.WriteString("  ")
		b.WriteString(renderGuide(g, zoom, width, height))
		b.WriteString("\n")
	}

	b.WriteString(`</svg>`)
	return b.String(), nil
}

// GridStepPx returns the on-screen grid spacing, never below 1px.
func GridStepPx(gridMM, zoom float64) float64 {
	return math.Max(1, math.Round(models.MMToPx(gridMM)*zoom))
}

func (r *Renderer) gridLines(gridMM, zoom, width, height float64) []string {
	step := GridStepPx(gridMM, zoom)
	for max(width, height)/step > maxGridLines {
		step *= majorGridEvery
	}

	var out []string
	for i := 1; float64(i)*step < width; i++ {
		pos := float64(i) * step
		out = append(out, gridLine(i, pos, 0, pos, height))
	}
	for i := 1; float64(i)*step < height; i++ {
		pos := float64(i) * step
		out = append(out, gridLine(i, 0, pos, width, pos))
	}
	return out
}

func gridLine(i int, x1, y1, x2, y2 float64) string {
	class, color := "grid-line", gridLineColor
	if i%majorGridEvery == 0 {
		class, color = "grid-line major", gridMajorColor
	}
	return fmt.Sprintf(`<line class="%s" x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="1" />`,
		class, formatFloat(x1), formatFloat(y1), formatFloat(x2), formatFloat(y2), color)
}

func renderGuide(g models.MagneticGuide, zoom, width, height float64) string {
	pos := models.MMToPx(g.Position) * zoom
	if g.Type == models.GuideVertical {
		return fmt.Sprintf(`<line class="guide vertical" x1="%s" y1="0" x2="%s" y2="%s" stroke="%s" stroke-width="1" />`,
			formatFloat(pos), formatFloat(pos), formatFloat(height), guideColor)
	}
	return fmt.Sprintf(`<line class="guide horizontal" x1="0" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="1" />`,
		formatFloat(pos), formatFloat(width), formatFloat(pos), guideColor)
}

// ============================================================
// Element renderers
// ============================================================

// box is an element's pixel frame.
type box struct {
	left, top, width, height float64
}

func frame(el models.Element, zoom float64) box {
	return box{
		left:   models.MMToPx(el.X) * zoom,
		top:    models.MMToPx(el.Y) * zoom,
		width:  math.Max(minElementPx, models.MMToPx(el.W)*zoom),
		height: math.Max(minElementPx, models.MMToPx(el.H)*zoom),
	}
}

func (r *Renderer) renderElement(el models.Element, zoom float64, selected bool) string {
	fr := frame(el, zoom)
	stroke := orDefault(el.Stroke, "transparent")
	fill := orDefault(el.Fill, "transparent")
	strokeWidth := math.Max(1, el.StrokeWidth*zoom)

	var content string
	switch b := el.Body.(type) {
	case models.TextBody:
		content = textNode(fr, orDefault(b.Text, "Text"), b.Align, b.FontWeight,
			fontSizeOrDefault(b.FontSize), orDefault(el.Stroke, "#111"))

	case models.LineBody:
		mid := fr.top + fr.height/2
		content = fmt.Sprintf(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s" />`,
			formatFloat(fr.left), formatFloat(mid), formatFloat(fr.left+fr.width), formatFloat(mid),
			escape(stroke), formatFloat(strokeWidth))

	case models.RectBody:
		content = rectNode(fr, fill, stroke, strokeWidth, false)

	case models.ImageBody:
		content = rectNode(fr, nonTransparent(fill, "#F5F5F5"), stroke, strokeWidth, true)
		if b.Src != "" {
			content += imageNode(fr, b)
		} else {
			content += captionNode(fr, "Image", "#4B5563")
		}

	case models.QRBody, models.BarcodeBody:
		border, dashedWidth := stroke, strokeWidth
		if stroke == "transparent" {
			border, dashedWidth = "#94A3B8", 1
		}
		content = rectNode(fr, nonTransparent(fill, "#F7FAFF"), border, dashedWidth, true) +
			captionNode(fr, strings.ToUpper(string(el.Type())), "#4B5563")

	default:
		return ""
	}

	var g strings.Builder
	g.WriteString(fmt.Sprintf(`<g id="%s" data-type="%s"`, escape(el.ID), el.Type()))
	// геометрия в мм, чтобы импорт SVG восстановил элемент без потерь масштаба
	g.WriteString(fmt.Sprintf(` data-x="%s" data-y="%s" data-w="%s" data-h="%s" data-z="%d"`,
		formatFloat(el.X), formatFloat(el.Y), formatFloat(el.W), formatFloat(el.H), el.Z))
	if el.DataField != "" {
		g.WriteString(fmt.Sprintf(` data-field="%s"`, escape(el.DataField)))
	}
	g.WriteString(fmt.Sprintf(` opacity="%s">`, formatFloat(opacityOrDefault(el.Opacity))))
	g.WriteString(content)
	if selected {
		g.WriteString(fmt.Sprintf(`<rect class="selection" x="%s" y="%s" width="%s" height="%s" fill="none" stroke="%s" stroke-width="2" />`,
			formatFloat(fr.left), formatFloat(fr.top), formatFloat(fr.width), formatFloat(fr.height), selectColor))
	}
	g.WriteString(`</g>`)
	return g.String()
}

func rectNode(fr box, fill, stroke string, strokeWidth float64, dashed bool) string {
	var attrs string
	if stroke != "transparent" {
		attrs = fmt.Sprintf(` stroke="%s" stroke-width="%s"`, escape(stroke), formatFloat(strokeWidth))
		if dashed {
			attrs += ` stroke-dasharray="4 2"`
		}
	}
	return fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s" fill="%s"%s />`,
		formatFloat(fr.left), formatFloat(fr.top), formatFloat(fr.width), formatFloat(fr.height), escape(fill), attrs)
}

func textNode(fr box, text string, align models.Align, weight models.FontWeight, fontSizePt float64, color string) string {
	x, anchor := fr.left, "start"
	switch align {
	case models.AlignCenter:
		x, anchor = fr.left+fr.width/2, "middle"
	case models.AlignRight:
		x, anchor = fr.left+fr.width, "end"
	}
	return fmt.Sprintf(`<text x="%s" y="%s" text-anchor="%s" dominant-baseline="middle" font-size="%spt" font-weight="%s" fill="%s">%s</text>`,
		formatFloat(x), formatFloat(fr.top+fr.height/2), anchor, formatFloat(fontSizePt),
		fontWeightCSS(weight), escape(color), escape(text))
}

func captionNode(fr box, caption, color string) string {
	return fmt.Sprintf(`<text x="%s" y="%s" text-anchor="middle" dominant-baseline="middle" font-size="10px" fill="%s">%s</text>`,
		formatFloat(fr.left+fr.width/2), formatFloat(fr.top+fr.height/2), color, escape(caption))
}

func imageNode(fr box, b models.ImageBody) string {
	aspect := "xMidYMid meet"
	if b.ObjectFit == models.FitCover {
		aspect = "xMidYMid slice"
	}
	return fmt.Sprintf(`<image href="%s" x="%s" y="%s" width="%s" height="%s" preserveAspectRatio="%s" />`,
		escape(b.Src), formatFloat(fr.left), formatFloat(fr.top), formatFloat(fr.width), formatFloat(fr.height), aspect)
}

// ============================================================
// Formatting helpers
// ============================================================

func writeHeader(b *strings.Builder, width, height float64, extra string) {
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s"%s>`,
		formatFloat(width), formatFloat(height), formatFloat(width), formatFloat(height), extra))
	b.WriteString("\n")
}

func fontSizeOrDefault(pt float64) float64 {
	if pt <= 0 {
		return 12
	}
	return pt
}

func opacityOrDefault(v float64) float64 {
	if v < 0 || v > 1 || math.IsNaN(v) {
		return 1
	}
	return v
}

func fontWeightCSS(w models.FontWeight) string {
	switch w {
	case models.WeightBold:
		return "700"
	case models.WeightSemibold:
		return "600"
	}
	return "400"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func nonTransparent(s, def string) string {
	if s == "" || s == "transparent" {
		return def
	}
	return s
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// formatFloat округляет до сотых пикселя.
func formatFloat(val float64) string {
	return strconv.FormatFloat(math.Round(val*100)/100, 'f', -1, 64)
}
