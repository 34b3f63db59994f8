package mapper

import (
	"strings"
	"testing"

	"label-designer/internal/designer/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func element(t *testing.T, typ models.ElementType, id string, z int) models.Element {
	t.Helper()
	el, err := models.NewElement(typ, id, z)
	require.NoError(t, err)
	return el
}

func TestRenderCanvasOrdersByZ(t *testing.T) {
	top := element(t, models.TypeRect, "rect_top", 5)
	bottom := element(t, models.TypeText, "text_bottom", 1)

	svg, err := NewRenderer().RenderCanvas(&Scene{
		Label:    models.DefaultLabelConfig(),
		Elements: []models.Element{top, bottom},
		Zoom:     1,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(svg, `<?xml`))
	assert.Less(t, strings.Index(svg, `id="text_bottom"`), strings.Index(svg, `id="rect_top"`))
	assert.Contains(t, svg, `data-type="text"`)
	assert.Contains(t, svg, `data-x="5" data-y="5" data-w="40" data-h="12" data-z="1"`)
	assert.Contains(t, svg, `data-width-mm="100" data-height-mm="60"`)
	assert.Contains(t, svg, `width="378"`)
}

func TestRenderCanvasGridSelectionAndGuides(t *testing.T) {
	label := models.DefaultLabelConfig()
	el := element(t, models.TypeRect, "rect_1", 1)

	scene := &Scene{
		Label:      label,
		Elements:   []models.Element{el},
		Zoom:       1,
		SelectedID: "rect_1",
		Guides: []models.MagneticGuide{
			{Type: models.GuideVertical, Position: 10, Elements: []string{"a", "b"}},
			{Type: models.GuideHorizontal, Position: 20, Elements: []string{"a", "b"}},
		},
	}
	svg, err := NewRenderer().RenderCanvas(scene)
	require.NoError(t, err)

	assert.Contains(t, svg, `class="grid-line"`)
	assert.Contains(t, svg, `class="grid-line major"`)
	assert.Contains(t, svg, `class="selection"`)
	assert.Contains(t, svg, `class="guide vertical" x1="37.8"`)
	assert.Contains(t, svg, `class="guide horizontal" x1="0" y1="75.6"`)

	scene.Label.ShowGrid = false
	scene.SelectedID = ""
	svg, err = NewRenderer().RenderCanvas(scene)
	require.NoError(t, err)
	assert.NotContains(t, svg, "grid-line")
	assert.NotContains(t, svg, `class="selection"`)
}

func TestRenderCanvasBoundsGridLines(t *testing.T) {
	for _, size := range []float64{models.MaxLabelMM, 20000} {
		label := models.DefaultLabelConfig()
		label.WidthMM, label.HeightMM, label.GridMM = size, size, 0.01

		svg, err := NewRenderer().RenderCanvas(&Scene{Label: label, Zoom: 3})
		require.NoError(t, err)

		lines := strings.Count(svg, `class="grid-line`)
		assert.Positive(t, lines)
		assert.LessOrEqual(t, lines, 2*maxGridLines)
		assert.Less(t, len(svg), 200_000)
	}
}

func TestRenderCanvasEscapesText(t *testing.T) {
	el := element(t, models.TypeText, "text_1", 1)
	el.Body = models.TextBody{Text: `<b>&"x"`, FontSize: 10}

	svg, err := NewRenderer().RenderCanvas(&Scene{Label: models.DefaultLabelConfig(), Elements: []models.Element{el}})
	require.NoError(t, err)
	assert.Contains(t, svg, "&lt;b&gt;&amp;")
	assert.NotContains(t, svg, "<b>")
}

func TestRenderCanvasNilScene(t *testing.T) {
	_, err := NewRenderer().RenderCanvas(nil)
	assert.Error(t, err)
}

func TestGridStepPx(t *testing.T) {
	assert.Equal(t, 8.0, GridStepPx(2, 1))
	assert.Equal(t, 1.0, GridStepPx(0.1, 0.25))
	assert.Equal(t, 23.0, GridStepPx(2, 3))
}

func TestBindText(t *testing.T) {
	data := map[string]string{"sku": "SKU-9", "color": "Red"}
	assert.Equal(t, "SKU: SKU-9 / Red", BindText("SKU: {sku} / {color}", data))
	assert.Equal(t, "{unknown} stays", BindText("{unknown} stays", data))
	assert.Equal(t, "plain", BindText("plain", data))
}

func TestRenderPreview(t *testing.T) {
	text := element(t, models.TypeText, "text_1", 2)
	text.Body = models.TextBody{Text: "{modelName} / {sku}", FontSize: 12, Align: models.AlignLeft}
	qr := element(t, models.TypeQR, "qr_1", 1)
	line := element(t, models.TypeLine, "line_1", 3)

	svg, err := NewRenderer().RenderPreview(models.DefaultLabelConfig(), []models.Element{text, qr, line}, PreviewOptions{
		Zoom:           1,
		ShowGuidelines: true,
		Data:           map[string]string{"sku": "SKU-777"},
	})
	require.NoError(t, err)

	assert.Contains(t, svg, `Wardrobe &#34;Premium&#34; / SKU-777`)
	assert.Contains(t, svg, "QR CODE")
	assert.Contains(t, svg, `class="guideline"`)
	assert.Contains(t, svg, `class="border"`)
	assert.Less(t, strings.Index(svg, `id="qr_1"`), strings.Index(svg, `id="text_1"`))
	assert.Less(t, strings.Index(svg, `id="text_1"`), strings.Index(svg, `id="line_1"`))

	svg, err = NewRenderer().RenderPreview(models.DefaultLabelConfig(), nil, PreviewOptions{Zoom: 10})
	require.NoError(t, err)
	assert.NotContains(t, svg, "guideline")
	// zoom ограничен 3: 100 мм * 3.78 * 3
	assert.Contains(t, svg, `width="1134"`)
}

func TestRenderPreviewBoundsGuidelines(t *testing.T) {
	label := models.DefaultLabelConfig()
	label.WidthMM, label.HeightMM = 20000, 20000

	svg, err := NewRenderer().RenderPreview(label, nil, PreviewOptions{Zoom: 3, ShowGuidelines: true})
	require.NoError(t, err)

	lines := strings.Count(svg, `class="guideline"`)
	assert.Positive(t, lines)
	assert.LessOrEqual(t, lines, 2*maxGridLines)
}

func TestRenderPreviewDefaultAlignIsRight(t *testing.T) {
	text := element(t, models.TypeText, "text_1", 1)
	text.Body = models.TextBody{Text: "x"}

	svg, err := NewRenderer().RenderPreview(models.DefaultLabelConfig(), []models.Element{text}, PreviewOptions{})
	require.NoError(t, err)
	assert.Contains(t, svg, `text-anchor="end"`)
}

func TestCheckThermal(t *testing.T) {
	report := CheckThermal(models.DefaultLabelConfig())
	assert.True(t, report.Compatible)
	assert.Equal(t, ThermalDPI, report.DPI)
	require.NotNil(t, report.MatchedSize)
	assert.Equal(t, "100x60 mm", report.MatchedSize.Name)
	assert.Empty(t, report.Warning)

	wide := models.DefaultLabelConfig()
	wide.WidthMM = 120
	report = CheckThermal(wide)
	assert.False(t, report.Compatible)
	assert.Nil(t, report.MatchedSize)
	assert.Contains(t, report.Warning, "120mm")
}
