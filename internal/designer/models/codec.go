package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Element wire format
// ============================================================

// elementWire is the flat JSON shape shared by every variant.
type elementWire struct {
	ID          string      `json:"id"`
	Type        ElementType `json:"type"`
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	W           float64     `json:"w"`
	H           float64     `json:"h"`
	R           float64     `json:"r,omitempty"`
	Fill        string      `json:"fill,omitempty"`
	Stroke      string      `json:"stroke,omitempty"`
	StrokeWidth float64     `json:"strokeWidth,omitempty"`
	Opacity     *float64    `json:"opacity,omitempty"`
	Z           int         `json:"z"`
	DataField   string      `json:"dataField,omitempty"`

	Text       *string    `json:"text,omitempty"`
	FontSize   float64    `json:"fontSize,omitempty"`
	FontWeight FontWeight `json:"fontWeight,omitempty"`
	Align      Align      `json:"align,omitempty"`

	Src       string    `json:"src,omitempty"`
	ObjectFit ObjectFit `json:"objectFit,omitempty"`
}

func (e Element) MarshalJSON() ([]byte, error) {
	opacity := e.Opacity
	w := elementWire{
		ID:          e.ID,
		Type:        e.Type(),
		X:           e.X,
		Y:           e.Y,
		W:           e.W,
		H:           e.H,
		R:           e.R,
		Fill:        e.Fill,
		Stroke:      e.Stroke,
		StrokeWidth: e.StrokeWidth,
		Opacity:     &opacity,
		Z:           e.Z,
		DataField:   e.DataField,
	}

	switch b := e.Body.(type) {
	case TextBody:
		text := b.Text
		w.Text = &text
		w.FontSize = b.FontSize
		w.FontWeight = b.FontWeight
		w.Align = b.Align
	case ImageBody:
		w.Src = b.Src
		w.ObjectFit = b.ObjectFit
	}
	return json.Marshal(w)
}

func (e *Element) UnmarshalJSON(data []byte) error {
	var w elementWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var body Body
	switch w.Type {
	case TypeText:
		tb := TextBody{FontSize: w.FontSize, FontWeight: w.FontWeight, Align: w.Align}
		if w.Text != nil {
			tb.Text = *w.Text
		}
		body = tb
	case TypeImage:
		body = ImageBody{Src: w.Src, ObjectFit: w.ObjectFit}
	case TypeRect:
		body = RectBody{}
	case TypeLine:
		body = LineBody{}
	case TypeQR:
		body = QRBody{}
	case TypeBarcode:
		body = BarcodeBody{}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownElementType, w.Type)
	}

	opacity := 1.0
	if w.Opacity != nil {
		opacity = *w.Opacity
	}

	*e = Element{
		ID:          w.ID,
		X:           w.X,
		Y:           w.Y,
		W:           w.W,
		H:           w.H,
		R:           w.R,
		Fill:        w.Fill,
		Stroke:      w.Stroke,
		StrokeWidth: w.StrokeWidth,
		Opacity:     opacity,
		Z:           w.Z,
		DataField:   w.DataField,
		Body:        body,
	}
	return nil
}

// ============================================================
// Template codec
// ============================================================

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath выбирает формат по расширению файла.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// ParseFormat accepts "json" or "yaml"/"yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// EmptyTemplate: макет по умолчанию без элементов.
func EmptyTemplate() TemplateData {
	return TemplateData{Label: DefaultLabelConfig(), Elements: []Element{}}
}

// EncodeTemplate сериализует шаблон в JSON или YAML.
func EncodeTemplate(data TemplateData, format Format) ([]byte, error) {
	if data.Elements == nil {
		data.Elements = []Element{}
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode template: %w", err)
	}
	if format != FormatYAML {
		return raw, nil
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("encode template: %w", err)
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("encode template yaml: %w", err)
	}
	return out, nil
}

// DecodeTemplateFormat decodes JSON or YAML with the same fail-soft
// rules as DecodeTemplate.
func DecodeTemplateFormat(raw []byte, format Format) (TemplateData, error) {
	if format != FormatYAML {
		return DecodeTemplate(raw)
	}

	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return EmptyTemplate(), fmt.Errorf("decode template yaml: %w", err)
	}
	asJSON, err := json.Marshal(generic)
	if err != nil {
		return EmptyTemplate(), fmt.Errorf("decode template yaml: %w", err)
	}
	return DecodeTemplate(asJSON)
}

// DecodeTemplate разбирает шаблон, никогда не возвращая непригодный
// макет: при ошибках подставляются значения по умолчанию, а ошибка
// возвращается только для журнала.
func DecodeTemplate(raw []byte) (TemplateData, error) {
	var wire struct {
		Label    json.RawMessage   `json:"label"`
		Elements []json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return EmptyTemplate(), fmt.Errorf("decode template: %w", err)
	}

	var errs []error
	data := EmptyTemplate()

	if len(wire.Label) > 0 && string(wire.Label) != "null" {
		label := DefaultLabelConfig()
		if err := json.Unmarshal(wire.Label, &label); err != nil {
			errs = append(errs, fmt.Errorf("label: %w", err))
			label = DefaultLabelConfig()
		}
		data.Label = NormalizeLabel(label)
	} else {
		errs = append(errs, errors.New("label: missing"))
	}

	seen := make(map[string]bool, len(wire.Elements))
	for i, rawEl := range wire.Elements {
		var el Element
		if err := json.Unmarshal(rawEl, &el); err != nil {
			errs = append(errs, fmt.Errorf("element %d: %w", i, err))
			continue
		}
		if el.ID == "" || seen[el.ID] {
			el.ID = NewID(string(el.Type()))
		}
		seen[el.ID] = true
		data.Elements = append(data.Elements, el)
	}

	return data, errors.Join(errs...)
}

// NormalizeLabel заменяет недопустимые поля значениями по умолчанию,
// а слишком большие размеры обрезает до MaxLabelMM.
func NormalizeLabel(c LabelConfig) LabelConfig {
	def := DefaultLabelConfig()
	if c.WidthMM <= 0 {
		c.WidthMM = def.WidthMM
	}
	if c.HeightMM <= 0 {
		c.HeightMM = def.HeightMM
	}
	c.WidthMM = min(c.WidthMM, MaxLabelMM)
	c.HeightMM = min(c.HeightMM, MaxLabelMM)
	if c.GridMM <= 0 {
		c.GridMM = def.GridMM
	}
	if c.SnapThreshold < 0 {
		c.SnapThreshold = def.SnapThreshold
	}
	if c.Orientation != Portrait && c.Orientation != Landscape {
		c.Orientation = def.Orientation
	}
	return c
}
