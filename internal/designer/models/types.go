package models

import (
	"errors"
	"slices"
)

// ============================================================
// Label configuration
// ============================================================

type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// LabelConfig описывает полотно этикетки: размер, сетку и магниты.
type LabelConfig struct {
	WidthMM        float64     `json:"widthMm"`
	HeightMM       float64     `json:"heightMm"`
	GridMM         float64     `json:"gridMm"`
	ShowGrid       bool        `json:"showGrid"`
	Orientation    Orientation `json:"orientation"`
	MagneticGuides bool        `json:"magneticGuides"`
	SnapThreshold  float64     `json:"snapThreshold"`
}

// DefaultLabelConfig возвращает макет 100×60 мм с сеткой 2 мм.
func DefaultLabelConfig() LabelConfig {
	return LabelConfig{
		WidthMM:        100,
		HeightMM:       60,
		GridMM:         2,
		ShowGrid:       true,
		Orientation:    Landscape,
		MagneticGuides: true,
		SnapThreshold:  2,
	}
}

// MaxLabelMM ограничивает ширину и высоту этикетки. Термопринтер
// печатает до 104 мм, больший размер не нужен ни одному макету.
const MaxLabelMM = 1000.0

// Valid reports whether the geometric invariants hold.
func (c LabelConfig) Valid() bool {
	return c.WidthMM > 0 && c.WidthMM <= MaxLabelMM &&
		c.HeightMM > 0 && c.HeightMM <= MaxLabelMM &&
		c.GridMM > 0 && c.SnapThreshold >= 0
}

// LabelPatch: частичное обновление LabelConfig; nil поля не меняются.
type LabelPatch struct {
	WidthMM        *float64     `json:"widthMm,omitempty"`
	HeightMM       *float64     `json:"heightMm,omitempty"`
	GridMM         *float64     `json:"gridMm,omitempty"`
	ShowGrid       *bool        `json:"showGrid,omitempty"`
	Orientation    *Orientation `json:"orientation,omitempty"`
	MagneticGuides *bool        `json:"magneticGuides,omitempty"`
	SnapThreshold  *float64     `json:"snapThreshold,omitempty"`
}

// Apply shallow-merges the patch. No validation happens here.
func (c LabelConfig) Apply(p LabelPatch) LabelConfig {
	if p.WidthMM != nil {
		c.WidthMM = *p.WidthMM
	}
	if p.HeightMM != nil {
		c.HeightMM = *p.HeightMM
	}
	if p.GridMM != nil {
		c.GridMM = *p.GridMM
	}
	if p.ShowGrid != nil {
		c.ShowGrid = *p.ShowGrid
	}
	if p.Orientation != nil {
		c.Orientation = *p.Orientation
	}
	if p.MagneticGuides != nil {
		c.MagneticGuides = *p.MagneticGuides
	}
	if p.SnapThreshold != nil {
		c.SnapThreshold = *p.SnapThreshold
	}
	return c
}

// ============================================================
// Elements
// ============================================================

type ElementType string

const (
	TypeText    ElementType = "text"
	TypeRect    ElementType = "rect"
	TypeLine    ElementType = "line"
	TypeImage   ElementType = "image"
	TypeQR      ElementType = "qr"
	TypeBarcode ElementType = "barcode"
)

// ElementTypes lists every element variant in palette order.
var ElementTypes = []ElementType{TypeText, TypeQR, TypeBarcode, TypeRect, TypeLine, TypeImage}

var ErrUnknownElementType = errors.New("unknown element type")

// ParseElementType проверяет строковый тип элемента.
func ParseElementType(s string) (ElementType, error) {
	for _, t := range ElementTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", ErrUnknownElementType
}

type FontWeight string

const (
	WeightNormal   FontWeight = "normal"
	WeightSemibold FontWeight = "semibold"
	WeightBold     FontWeight = "bold"
)

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

type ObjectFit string

const (
	FitContain ObjectFit = "contain"
	FitCover   ObjectFit = "cover"
)

// Body is the variant part of an element. Exactly one implementation
// exists per ElementType.
type Body interface {
	Type() ElementType
	body()
}

type TextBody struct {
	Text       string
	FontSize   float64 // pt
	FontWeight FontWeight
	Align      Align
}

type ImageBody struct {
	Src       string
	ObjectFit ObjectFit
}

type RectBody struct{}

type LineBody struct{}

type QRBody struct{}

type BarcodeBody struct{}

func (TextBody) Type() ElementType    { return TypeText }
func (ImageBody) Type() ElementType   { return TypeImage }
func (RectBody) Type() ElementType    { return TypeRect }
func (LineBody) Type() ElementType    { return TypeLine }
func (QRBody) Type() ElementType      { return TypeQR }
func (BarcodeBody) Type() ElementType { return TypeBarcode }

func (TextBody) body()    {}
func (ImageBody) body()   {}
func (RectBody) body()    {}
func (LineBody) body()    {}
func (QRBody) body()      {}
func (BarcodeBody) body() {}

// Element: позиционированный примитив этикетки. Геометрия в мм.
type Element struct {
	ID          string
	X           float64
	Y           float64
	W           float64
	H           float64
	R           float64
	Fill        string
	Stroke      string
	StrokeWidth float64
	Opacity     float64
	Z           int
	DataField   string
	Body        Body
}

// Type returns the variant tag, or "" for an element without a body.
func (e Element) Type() ElementType {
	if e.Body == nil {
		return ""
	}
	return e.Body.Type()
}

// Edges returns the six alignment candidates: left, right, h-center
// (x axis) followed by top, bottom, v-center (y axis).
func (e Element) Edges() (xs [3]float64, ys [3]float64) {
	return EdgesOf(e.X, e.Y, e.W, e.H)
}

func EdgesOf(x, y, w, h float64) (xs [3]float64, ys [3]float64) {
	xs = [3]float64{x, x + w, x + w/2}
	ys = [3]float64{y, y + h, y + h/2}
	return xs, ys
}

// ElementPatch: частичное обновление элемента. Поля варианта
// применяются только к элементу соответствующего типа.
type ElementPatch struct {
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	W           *float64 `json:"w,omitempty"`
	H           *float64 `json:"h,omitempty"`
	R           *float64 `json:"r,omitempty"`
	Fill        *string  `json:"fill,omitempty"`
	Stroke      *string  `json:"stroke,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
	Opacity     *float64 `json:"opacity,omitempty"`
	Z           *int     `json:"z,omitempty"`
	DataField   *string  `json:"dataField,omitempty"`

	Text       *string     `json:"text,omitempty"`
	FontSize   *float64    `json:"fontSize,omitempty"`
	FontWeight *FontWeight `json:"fontWeight,omitempty"`
	Align      *Align      `json:"align,omitempty"`

	Src       *string    `json:"src,omitempty"`
	ObjectFit *ObjectFit `json:"objectFit,omitempty"`
}

// Apply shallow-merges the patch into a copy of e.
func (e Element) Apply(p ElementPatch) Element {
	if p.X != nil {
		e.X = *p.X
	}
	if p.Y != nil {
		e.Y = *p.Y
	}
	if p.W != nil {
		e.W = *p.W
	}
	if p.H != nil {
		e.H = *p.H
	}
	if p.R != nil {
		e.R = *p.R
	}
	if p.Fill != nil {
		e.Fill = *p.Fill
	}
	if p.Stroke != nil {
		e.Stroke = *p.Stroke
	}
	if p.StrokeWidth != nil {
		e.StrokeWidth = *p.StrokeWidth
	}
	if p.Opacity != nil {
		e.Opacity = *p.Opacity
	}
	if p.Z != nil {
		e.Z = *p.Z
	}
	if p.DataField != nil {
		e.DataField = *p.DataField
	}

	switch b := e.Body.(type) {
	case TextBody:
		if p.Text != nil {
			b.Text = *p.Text
		}
		if p.FontSize != nil {
			b.FontSize = *p.FontSize
		}
		if p.FontWeight != nil {
			b.FontWeight = *p.FontWeight
		}
		if p.Align != nil {
			b.Align = *p.Align
		}
		e.Body = b
	case ImageBody:
		if p.Src != nil {
			b.Src = *p.Src
		}
		if p.ObjectFit != nil {
			b.ObjectFit = *p.ObjectFit
		}
		e.Body = b
	}
	return e
}

// SizePatch is the resize payload; nil keeps the current value.
type SizePatch struct {
	W *float64 `json:"w,omitempty"`
	H *float64 `json:"h,omitempty"`
}

// ============================================================
// Factory
// ============================================================

// Default position of a freshly added element.
const (
	DefaultElementX = 5.0
	DefaultElementY = 5.0
)

// NewElement собирает элемент с умолчаниями для типа.
func NewElement(t ElementType, id string, z int) (Element, error) {
	el := Element{
		ID:      id,
		X:       DefaultElementX,
		Y:       DefaultElementY,
		W:       30,
		H:       10,
		Opacity: 1,
		Z:       z,
	}

	switch t {
	case TypeText:
		el.W, el.H = 40, 12
		el.Body = TextBody{Text: "Text", FontSize: 12, Align: AlignLeft}
	case TypeLine:
		el.W, el.H = 40, 0
		el.Stroke = "#111"
		el.StrokeWidth = 1
		el.Body = LineBody{}
	case TypeRect:
		el.Fill = "#0000000D"
		el.Stroke = "#111"
		el.StrokeWidth = 1
		el.Body = RectBody{}
	case TypeQR:
		el.Fill = "#00000010"
		el.Body = QRBody{}
	case TypeBarcode:
		el.Fill = "#00000010"
		el.Body = BarcodeBody{}
	case TypeImage:
		el.Fill = "#00000010"
		el.Body = ImageBody{ObjectFit: FitContain}
	default:
		return Element{}, ErrUnknownElementType
	}
	return el, nil
}

// ============================================================
// Guides & templates
// ============================================================

type GuideType string

const (
	GuideHorizontal GuideType = "horizontal"
	GuideVertical   GuideType = "vertical"
)

// MagneticGuide: производная подсказка выравнивания, не сохраняется.
type MagneticGuide struct {
	Type     GuideType `json:"type"`
	Position float64   `json:"position"`
	Elements []string  `json:"elements"`
}

// TemplateData: сериализуемая единица шаблона.
type TemplateData struct {
	Label    LabelConfig `json:"label"`
	Elements []Element   `json:"elements"`
}

// Clone copies the element slice so the snapshot does not alias store state.
func (d TemplateData) Clone() TemplateData {
	out := TemplateData{Label: d.Label, Elements: make([]Element, len(d.Elements))}
	copy(out.Elements, d.Elements)
	return out
}

// SortByZ returns a copy ordered by ascending z, stable for equal z.
func SortByZ(elements []Element) []Element {
	out := slices.Clone(elements)
	slices.SortStableFunc(out, func(a, b Element) int {
		return a.Z - b.Z
	})
	return out
}
