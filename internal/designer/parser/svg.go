package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"label-designer/internal/designer/models"
)

// ErrInvalidSVG: документ не удалось разобрать как SVG.
var ErrInvalidSVG = errors.New("invalid svg")

// ============================================================
// XML Structures
// ============================================================

type SVG struct {
	XMLName  xml.Name `xml:"svg"`
	Width    string   `xml:"width,attr"`
	Height   string   `xml:"height,attr"`
	ViewBox  string   `xml:"viewBox,attr"`
	WidthMM  string   `xml:"data-width-mm,attr"`
	HeightMM string   `xml:"data-height-mm,attr"`
	Shapes
}

// Shapes: дочерние узлы, общие для <svg> и <g>.
type Shapes struct {
	Groups []Group `xml:"g"`
	Rects  []Rect  `xml:"rect"`
	Lines  []Line  `xml:"line"`
	Texts  []Text  `xml:"text"`
	Images []Image `xml:"image"`
}

type Group struct {
	ID        string `xml:"id,attr"`
	Class     string `xml:"class,attr"`
	DataType  string `xml:"data-type,attr"`
	DataField string `xml:"data-field,attr"`
	DataX     string `xml:"data-x,attr"`
	DataY     string `xml:"data-y,attr"`
	DataW     string `xml:"data-w,attr"`
	DataH     string `xml:"data-h,attr"`
	DataZ     string `xml:"data-z,attr"`
	Opacity   string `xml:"opacity,attr"`
	Shapes
}

type Rect struct {
	ID          string `xml:"id,attr"`
	Class       string `xml:"class,attr"`
	X           string `xml:"x,attr"`
	Y           string `xml:"y,attr"`
	Width       string `xml:"width,attr"`
	Height      string `xml:"height,attr"`
	RX          string `xml:"rx,attr"`
	Fill        string `xml:"fill,attr"`
	Stroke      string `xml:"stroke,attr"`
	StrokeWidth string `xml:"stroke-width,attr"`
	Opacity     string `xml:"opacity,attr"`
}

type Line struct {
	ID          string `xml:"id,attr"`
	Class       string `xml:"class,attr"`
	X1          string `xml:"x1,attr"`
	Y1          string `xml:"y1,attr"`
	X2          string `xml:"x2,attr"`
	Y2          string `xml:"y2,attr"`
	Stroke      string `xml:"stroke,attr"`
	StrokeWidth string `xml:"stroke-width,attr"`
	Opacity     string `xml:"opacity,attr"`
}

type Text struct {
	ID         string `xml:"id,attr"`
	Class      string `xml:"class,attr"`
	X          string `xml:"x,attr"`
	Y          string `xml:"y,attr"`
	FontSize   string `xml:"font-size,attr"`
	FontWeight string `xml:"font-weight,attr"`
	Anchor     string `xml:"text-anchor,attr"`
	Fill       string `xml:"fill,attr"`
	Content    string `xml:",chardata"`
}

type Image struct {
	ID     string `xml:"id,attr"`
	Class  string `xml:"class,attr"`
	Href   string `xml:"href,attr"`
	X      string `xml:"x,attr"`
	Y      string `xml:"y,attr"`
	Width  string `xml:"width,attr"`
	Height string `xml:"height,attr"`
}

// служебные слои полотна и превью, не являющиеся элементами
var serviceClasses = []string{"stage", "grid-line", "guide", "selection", "paper", "border", "guideline"}

// ============================================================
// Parser
// ============================================================

// ParseSVG читает SVG и собирает из него шаблон. Группы с data-type
// (так пишет полотно редактора) восстанавливаются в мм без потерь;
// прочие rect/line/text/image переводятся из пользовательских единиц.
// Нераспознанные узлы пропускаются, причины возвращаются вместе с
// результатом.
func ParseSVG(r io.Reader) (models.TemplateData, error) {
	var svg SVG
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&svg); err != nil {
		return models.TemplateData{}, fmt.Errorf("%w: %v", ErrInvalidSVG, err)
	}

	p := &svgParser{
		scale: unitScale(svg),
		seen:  make(map[string]bool),
	}

	data := models.TemplateData{Label: p.label(svg), Elements: []models.Element{}}
	p.walk(svg.Shapes)
	data.Elements = p.elements

	return data, errors.Join(p.errs...)
}

type svgParser struct {
	scale    float64 // мм на единицу пользовательской системы координат
	elements []models.Element
	seen     map[string]bool
	errs     []error
}

func (p *svgParser) label(svg SVG) models.LabelConfig {
	label := models.DefaultLabelConfig()

	w, okW := parseNumber(svg.WidthMM)
	h, okH := parseNumber(svg.HeightMM)
	if !okW || !okH {
		w, okW = lengthMM(svg.Width, p.scale)
		h, okH = lengthMM(svg.Height, p.scale)
	}
	if !okW || !okH {
		if vb, ok := parseViewBox(svg.ViewBox); ok {
			w, h = vb[2]*p.scale, vb[3]*p.scale
			okW, okH = true, true
		}
	}
	if okW && okH && w > 0 && h > 0 {
		label.WidthMM = min(w, models.MaxLabelMM)
		label.HeightMM = min(h, models.MaxLabelMM)
		label.Orientation = models.Landscape
		if h > w {
			label.Orientation = models.Portrait
		}
	}
	return label
}

func (p *svgParser) walk(s Shapes) {
	for _, g := range s.Groups {
		if isServiceNode(g.Class) {
			continue
		}
		if g.DataType != "" || classifyElementByID(g.ID) != "" {
			p.group(g)
			continue
		}
		p.walk(g.Shapes)
	}

	for _, rect := range s.Rects {
		if isServiceNode(rect.Class) {
			continue
		}
		t := classifyElementByID(rect.ID)
		if t == "" || t == models.TypeText || t == models.TypeLine {
			t = models.TypeRect
		}
		el, ok := p.newElement(t, rect.ID)
		if !ok {
			continue
		}
		p.applyRect(&el, rect)
		p.add(el)
	}

	for _, line := range s.Lines {
		if isServiceNode(line.Class) {
			continue
		}
		el, ok := p.newElement(models.TypeLine, line.ID)
		if !ok {
			continue
		}
		p.applyLine(&el, line)
		p.add(el)
	}

	for _, text := range s.Texts {
		if isServiceNode(text.Class) {
			continue
		}
		el, ok := p.newElement(models.TypeText, text.ID)
		if !ok {
			continue
		}
		p.applyText(&el, text, true)
		p.add(el)
	}

	for _, img := range s.Images {
		if isServiceNode(img.Class) {
			continue
		}
		el, ok := p.newElement(models.TypeImage, img.ID)
		if !ok {
			continue
		}
		p.applyImage(&el, img, true)
		p.add(el)
	}
}

// group восстанавливает элемент, записанный полотном как <g data-type=...>.
func (p *svgParser) group(g Group) {
	t, err := models.ParseElementType(g.DataType)
	if err != nil {
		t = classifyElementByID(g.ID)
	}
	if t == "" {
		p.errs = append(p.errs, fmt.Errorf("group %q: %w: %q", g.ID, models.ErrUnknownElementType, g.DataType))
		return
	}

	el, ok := p.newElement(t, g.ID)
	if !ok {
		return
	}

	switch t {
	case models.TypeText:
		if len(g.Texts) > 0 {
			p.applyText(&el, g.Texts[0], false)
		}
	case models.TypeLine:
		if len(g.Lines) > 0 {
			p.applyLine(&el, g.Lines[0])
		}
	case models.TypeImage:
		if len(g.Rects) > 0 {
			p.applyRect(&el, g.Rects[0])
		}
		if len(g.Images) > 0 {
			p.applyImage(&el, g.Images[0], false)
		}
	default:
		if len(g.Rects) > 0 {
			p.applyRect(&el, g.Rects[0])
		}
	}

	// data-* атрибуты в мм точнее пиксельной геометрии
	if v, ok := parseNumber(g.DataX); ok {
		el.X = v
	}
	if v, ok := parseNumber(g.DataY); ok {
		el.Y = v
	}
	if v, ok := parseNumber(g.DataW); ok {
		el.W = v
	}
	if v, ok := parseNumber(g.DataH); ok {
		el.H = v
	}
	if z, err := strconv.Atoi(g.DataZ); err == nil {
		el.Z = z
	}
	if v, ok := parseNumber(g.Opacity); ok {
		el.Opacity = v
	}
	el.DataField = g.DataField

	p.add(el)
}

func (p *svgParser) newElement(t models.ElementType, id string) (models.Element, bool) {
	if id == "" || p.seen[id] {
		id = models.NewID(string(t))
	}
	el, err := models.NewElement(t, id, len(p.elements)+1)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("element %q: %w", id, err))
		return models.Element{}, false
	}
	return el, true
}

func (p *svgParser) add(el models.Element) {
	p.seen[el.ID] = true
	p.elements = append(p.elements, el)
}

// ============================================================
// Shape mapping
// ============================================================

func (p *svgParser) applyRect(el *models.Element, r Rect) {
	el.X = p.mm(r.X, el.X)
	el.Y = p.mm(r.Y, el.Y)
	el.W = p.mm(r.Width, el.W)
	el.H = p.mm(r.Height, el.H)
	el.R = p.mm(r.RX, el.R)
	if r.Fill != "" && r.Fill != "none" {
		el.Fill = r.Fill
	}
	if r.Stroke != "" && r.Stroke != "none" {
		el.Stroke = r.Stroke
	}
	if v, ok := parseNumber(r.StrokeWidth); ok {
		el.StrokeWidth = v
	}
	if v, ok := parseNumber(r.Opacity); ok {
		el.Opacity = v
	}
}

func (p *svgParser) applyLine(el *models.Element, l Line) {
	x1, y1 := p.mm(l.X1, 0), p.mm(l.Y1, 0)
	x2, y2 := p.mm(l.X2, 0), p.mm(l.Y2, 0)

	el.X, el.W = min(x1, x2), abs(x2-x1)
	el.Y, el.H = min(y1, y2), abs(y2-y1)
	if l.Stroke != "" && l.Stroke != "none" {
		el.Stroke = l.Stroke
	}
	if v, ok := parseNumber(l.StrokeWidth); ok {
		el.StrokeWidth = v
	}
	if v, ok := parseNumber(l.Opacity); ok {
		el.Opacity = v
	}
}

// applyText переносит текст. При positioned=false геометрия берётся из
// data-* группы, координаты узла <text> игнорируются.
func (p *svgParser) applyText(el *models.Element, t Text, positioned bool) {
	body, _ := el.Body.(models.TextBody)
	body.Text = strings.TrimSpace(t.Content)
	if size, ok := fontSizePt(t.FontSize); ok {
		body.FontSize = size
	}
	switch t.FontWeight {
	case "bold", "700", "800", "900":
		body.FontWeight = models.WeightBold
	case "600":
		body.FontWeight = models.WeightSemibold
	}
	switch t.Anchor {
	case "middle":
		body.Align = models.AlignCenter
	case "end":
		body.Align = models.AlignRight
	default:
		body.Align = models.AlignLeft
	}
	el.Body = body

	if t.Fill != "" && t.Fill != "none" {
		el.Stroke = t.Fill
	}
	if positioned {
		el.X = p.mm(t.X, el.X)
		// y у <text> это базовая линия, верх рамки на высоту шрифта выше
		el.Y = max(0, p.mm(t.Y, el.Y)-ptToMM(body.FontSize))
	}
}

func (p *svgParser) applyImage(el *models.Element, img Image, positioned bool) {
	body, _ := el.Body.(models.ImageBody)
	body.Src = img.Href
	el.Body = body
	if positioned {
		el.X = p.mm(img.X, el.X)
		el.Y = p.mm(img.Y, el.Y)
		el.W = p.mm(img.Width, el.W)
		el.H = p.mm(img.Height, el.H)
	}
}

func (p *svgParser) mm(raw string, fallback float64) float64 {
	if v, ok := lengthMM(raw, p.scale); ok {
		return v
	}
	return fallback
}

// ============================================================
// Units
// ============================================================

// unitScale возвращает мм на единицу пользовательских координат.
func unitScale(svg SVG) float64 {
	vb, hasViewBox := parseViewBox(svg.ViewBox)
	if !hasViewBox || vb[2] <= 0 {
		return 1 / models.PxPerMM
	}
	if w, ok := parseNumber(svg.WidthMM); ok && w > 0 {
		// полотно редактора: px*zoom, ширина в мм записана отдельно
		return w / vb[2]
	}
	if w, ok := lengthMM(svg.Width, 1/models.PxPerMM); ok && w > 0 {
		return w / vb[2]
	}
	return 1 / models.PxPerMM
}

// lengthMM переводит SVG-длину в мм. Число без единиц умножается на scale.
func lengthMM(raw string, scale float64) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	switch {
	case strings.HasSuffix(raw, "mm"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "mm"), 64)
		return v, err == nil
	case strings.HasSuffix(raw, "cm"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "cm"), 64)
		return v * 10, err == nil
	case strings.HasSuffix(raw, "in"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "in"), 64)
		return v * 25.4, err == nil
	case strings.HasSuffix(raw, "px"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "px"), 64)
		return models.PxToMM(v), err == nil
	case strings.HasSuffix(raw, "%"):
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	return v * scale, err == nil
}

func fontSizePt(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasSuffix(raw, "pt"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "pt"), 64)
		return v, err == nil && v > 0
	case strings.HasSuffix(raw, "px"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "px"), 64)
		return v * 0.75, err == nil && v > 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	return v * 0.75, err == nil && v > 0
}

func ptToMM(pt float64) float64 {
	return pt * 25.4 / 72
}

func parseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	return v, err == nil
}

func parseViewBox(raw string) ([4]float64, bool) {
	var vb [4]float64
	parts := strings.Fields(strings.ReplaceAll(raw, ",", " "))
	if len(parts) != 4 {
		return vb, false
	}
	for i, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return vb, false
		}
		vb[i] = v
	}
	return vb, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// ============================================================
// Classification
// ============================================================

func isServiceNode(class string) bool {
	for _, c := range strings.Fields(class) {
		for _, svc := range serviceClasses {
			if c == svc {
				return true
			}
		}
	}
	return false
}

// classifyElementByID распознаёт тип по префиксу id вида "<type>_<hex>".
func classifyElementByID(id string) models.ElementType {
	prefix, _, found := strings.Cut(id, "_")
	if !found {
		return ""
	}
	t, err := models.ParseElementType(strings.ToLower(prefix))
	if err != nil {
		return ""
	}
	return t
}
