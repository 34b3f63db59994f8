package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitConversion(t *testing.T) {
	assert.InDelta(t, 37.8, MMToPx(10), 1e-9)
	assert.InDelta(t, 10, PxToMM(37.8), 1e-9)

	for _, mm := range []float64{0, 0.5, 2, 33.3, 104} {
		assert.InDelta(t, mm, PxToMM(MMToPx(mm)), 1e-9)
	}
}

func TestSnapToGrid(t *testing.T) {
	tests := []struct {
		value, step, want float64
	}{
		{12.4, 5, 10},
		{12.5, 5, 15},
		{3, 2, 4},
		{-1.2, 2, -2},
		{7, 1, 7},
	}
	for _, tt := range tests {
		got := SnapToGrid(tt.value, tt.step)
		assert.InDelta(t, tt.want, got, 1e-9, "SnapToGrid(%v, %v)", tt.value, tt.step)
		assert.InDelta(t, got, SnapToGrid(got, tt.step), 1e-9, "snap must be idempotent")
	}
}

func TestNewID(t *testing.T) {
	a, b := NewID("text"), NewID("text")
	assert.True(t, strings.HasPrefix(a, "text_"))
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "-")
	assert.True(t, strings.HasPrefix(NewID(""), "id_"))
}

func TestNewElementDefaults(t *testing.T) {
	text, err := NewElement(TypeText, "t1", 1)
	require.NoError(t, err)
	assert.Equal(t, 40.0, text.W)
	assert.Equal(t, 12.0, text.H)
	assert.Equal(t, TextBody{Text: "Text", FontSize: 12, Align: AlignLeft}, text.Body)

	line, err := NewElement(TypeLine, "l1", 2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, line.H)
	assert.Equal(t, "#111", line.Stroke)

	img, err := NewElement(TypeImage, "i1", 3)
	require.NoError(t, err)
	assert.Equal(t, ImageBody{ObjectFit: FitContain}, img.Body)

	for _, typ := range ElementTypes {
		el, err := NewElement(typ, "x", 1)
		require.NoError(t, err)
		assert.Equal(t, typ, el.Type())
		assert.Equal(t, DefaultElementX, el.X)
		assert.Equal(t, DefaultElementY, el.Y)
		assert.Equal(t, 1.0, el.Opacity)
	}

	_, err = NewElement("star", "s", 1)
	assert.ErrorIs(t, err, ErrUnknownElementType)
}

func TestElementPatchAppliesVariantFieldsOnlyToMatchingBody(t *testing.T) {
	rect, _ := NewElement(TypeRect, "r", 1)
	text := "hello"
	x := 20.0

	patched := rect.Apply(ElementPatch{X: &x, Text: &text})
	assert.Equal(t, 20.0, patched.X)
	assert.Equal(t, RectBody{}, patched.Body)
	assert.Equal(t, 5.0, rect.X, "apply must not mutate the receiver")

	txt, _ := NewElement(TypeText, "t", 1)
	patched = txt.Apply(ElementPatch{Text: &text})
	assert.Equal(t, "hello", patched.Body.(TextBody).Text)
}

func TestLabelPatch(t *testing.T) {
	w := 80.0
	off := false
	got := DefaultLabelConfig().Apply(LabelPatch{WidthMM: &w, MagneticGuides: &off})

	assert.Equal(t, 80.0, got.WidthMM)
	assert.Equal(t, 60.0, got.HeightMM)
	assert.False(t, got.MagneticGuides)
	assert.True(t, got.Valid())

	zero := 0.0
	assert.False(t, got.Apply(LabelPatch{GridMM: &zero}).Valid())

	huge := MaxLabelMM + 1
	assert.False(t, got.Apply(LabelPatch{WidthMM: &huge}).Valid())
	assert.False(t, got.Apply(LabelPatch{HeightMM: &huge}).Valid())
}

func TestSortByZIsStable(t *testing.T) {
	els := []Element{{ID: "a", Z: 2}, {ID: "b", Z: 1}, {ID: "c", Z: 2}, {ID: "d", Z: 0}}
	sorted := SortByZ(els)

	ids := make([]string, len(sorted))
	for i, el := range sorted {
		ids[i] = el.ID
	}
	assert.Equal(t, []string{"d", "b", "a", "c"}, ids)
	assert.Equal(t, "a", els[0].ID, "input must stay untouched")
}

func TestElementJSON(t *testing.T) {
	el, _ := NewElement(TypeText, "text_1", 4)
	el.DataField = "sku"
	el.Body = TextBody{Text: "SKU: {sku}", FontSize: 10, FontWeight: WeightBold, Align: AlignCenter}

	raw, err := json.Marshal(el)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Equal(t, "text", wire["type"])
	assert.Equal(t, "SKU: {sku}", wire["text"])
	assert.Equal(t, "bold", wire["fontWeight"])
	assert.Equal(t, "sku", wire["dataField"])
	assert.NotContains(t, wire, "src")

	var back Element
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, el, back)
}

func TestElementJSONDefaultsOpacity(t *testing.T) {
	var el Element
	require.NoError(t, json.Unmarshal([]byte(`{"id":"r","type":"rect","x":1,"y":2,"w":3,"h":4,"z":1}`), &el))
	assert.Equal(t, 1.0, el.Opacity)
	assert.Equal(t, RectBody{}, el.Body)

	err := json.Unmarshal([]byte(`{"id":"s","type":"star"}`), &el)
	assert.ErrorIs(t, err, ErrUnknownElementType)
}

func TestTemplateRoundTrip(t *testing.T) {
	data := EmptyTemplate()
	data.Label.WidthMM = 58
	text, _ := NewElement(TypeText, "text_1", 1)
	img, _ := NewElement(TypeImage, "image_1", 2)
	img.Body = ImageBody{Src: "data:image/png;base64,AAAA", ObjectFit: FitCover}
	data.Elements = []Element{text, img}

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			raw, err := EncodeTemplate(data, format)
			require.NoError(t, err)

			back, err := DecodeTemplateFormat(raw, format)
			require.NoError(t, err)
			assert.Equal(t, data, back)
		})
	}
}

func TestDecodeTemplateFailsSoft(t *testing.T) {
	t.Run("not json", func(t *testing.T) {
		data, err := DecodeTemplate([]byte("{{{"))
		assert.Error(t, err)
		assert.Equal(t, EmptyTemplate(), data)
	})

	t.Run("missing label", func(t *testing.T) {
		data, err := DecodeTemplate([]byte(`{"elements":[]}`))
		assert.Error(t, err)
		assert.Equal(t, DefaultLabelConfig(), data.Label)
	})

	t.Run("invalid label fields", func(t *testing.T) {
		data, _ := DecodeTemplate([]byte(`{"label":{"widthMm":-5,"heightMm":40,"gridMm":0,"orientation":"diagonal"},"elements":[]}`))
		assert.Equal(t, 100.0, data.Label.WidthMM)
		assert.Equal(t, 40.0, data.Label.HeightMM)
		assert.Equal(t, 2.0, data.Label.GridMM)
		assert.Equal(t, Landscape, data.Label.Orientation)
	})

	t.Run("oversized label is capped", func(t *testing.T) {
		data, _ := DecodeTemplate([]byte(`{"label":{"widthMm":20000,"heightMm":20000,"gridMm":1},"elements":[]}`))
		assert.Equal(t, MaxLabelMM, data.Label.WidthMM)
		assert.Equal(t, MaxLabelMM, data.Label.HeightMM)
		assert.True(t, data.Label.Valid())
	})

	t.Run("bad and duplicate elements", func(t *testing.T) {
		raw := `{"label":{"widthMm":50,"heightMm":30,"gridMm":1,"orientation":"portrait"},"elements":[
			{"id":"a","type":"rect","x":0,"y":0,"w":5,"h":5,"z":1},
			{"id":"b","type":"hexagon"},
			{"id":"a","type":"line","x":0,"y":0,"w":5,"h":0,"z":2},
			{"type":"qr","x":0,"y":0,"w":5,"h":5,"z":3}
		]}`
		data, err := DecodeTemplate([]byte(raw))
		assert.ErrorIs(t, err, ErrUnknownElementType)
		require.Len(t, data.Elements, 3)
		assert.Equal(t, "a", data.Elements[0].ID)
		assert.NotEqual(t, "a", data.Elements[1].ID)
		assert.True(t, strings.HasPrefix(data.Elements[2].ID, "qr_"))
	})
}

func TestFormats(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("label.YML"))
	assert.Equal(t, FormatJSON, FormatFromPath("label.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("label"))

	f, err := ParseFormat("yaml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestDownloadName(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "label_100x60mm_1700000000123.json", DownloadName(DefaultLabelConfig(), at))

	label := DefaultLabelConfig()
	label.WidthMM = 57.5
	assert.Equal(t, "label_57.5x60mm_1700000000123.json", DownloadName(label, at))
}

func TestDataFields(t *testing.T) {
	assert.Len(t, DataFields, 10)
	assert.True(t, IsDataField("sku"))
	assert.False(t, IsDataField("price"))
	assert.Equal(t, "SKU-001", SampleData()["sku"])
}
