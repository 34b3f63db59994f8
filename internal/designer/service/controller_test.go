package service

import (
	"testing"

	"label-designer/internal/designer/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// px: экранные пиксели для mm при zoom 1.
func px(mm float64) float64 { return models.MMToPx(mm) }

func freeLabel() models.LabelConfig {
	label := models.DefaultLabelConfig()
	label.ShowGrid = false
	label.MagneticGuides = false
	return label
}

func TestControllerMoveDrag(t *testing.T) {
	s := loadedStore(t, freeLabel(), rect("a", 5, 5, 30, 10, 1))
	c := NewController(s)

	require.True(t, c.PressElement("a", PointerEvent{X: 0, Y: 0}))
	assert.Equal(t, DragMoving, c.Drag().Mode)
	assert.Equal(t, CursorGrabbing, s.Cursor())
	assert.Equal(t, "a", s.SelectedID())

	require.True(t, c.Move(PointerEvent{X: px(10), Y: 0}))
	require.True(t, c.Move(PointerEvent{X: px(20), Y: px(4)}))

	a, _ := s.Element("a")
	assert.InDelta(t, 25, a.X, 1e-9)
	assert.InDelta(t, 9, a.Y, 1e-9)

	c.Release()
	assert.Equal(t, DragIdle, c.Drag().Mode)
	assert.Equal(t, CursorDefault, s.Cursor())
	assert.Empty(t, s.Guides())

	assert.False(t, c.Move(PointerEvent{X: px(50)}))
	a, _ = s.Element("a")
	assert.InDelta(t, 25, a.X, 1e-9)
}

func TestControllerMoveRespectsZoom(t *testing.T) {
	s := loadedStore(t, freeLabel(), rect("a", 0, 0, 30, 10, 1))
	s.SetZoom(2)
	c := NewController(s)

	c.PressElement("a", PointerEvent{})
	c.Move(PointerEvent{X: px(10)})

	a, _ := s.Element("a")
	assert.InDelta(t, 5, a.X, 1e-9)
}

func TestControllerResizeDrag(t *testing.T) {
	s := loadedStore(t, freeLabel(), rect("a", 5, 5, 40, 12, 1))
	c := NewController(s)

	require.True(t, c.PressHandle("a", PointerEvent{X: 100, Y: 100}))
	assert.Equal(t, DragResizing, c.Drag().Mode)
	assert.Equal(t, CursorResize, s.Cursor())

	// смещение считается от точки нажатия, а не от предыдущего события
	c.Move(PointerEvent{X: 100 + px(5), Y: 100 + px(5)})
	c.Move(PointerEvent{X: 100 + px(10), Y: 100 + px(5)})
	a, _ := s.Element("a")
	assert.InDelta(t, 50, a.W, 1e-9)
	assert.InDelta(t, 17, a.H, 1e-9)
	assert.Equal(t, 5.0, a.X)

	c.Move(PointerEvent{X: -1000, Y: -1000})
	a, _ = s.Element("a")
	assert.Equal(t, MinElementWidthMM, a.W)
	assert.Equal(t, 0.0, a.H)

	// во время resize нажатие на элемент игнорируется
	assert.False(t, c.PressElement("a", PointerEvent{}))
	assert.Equal(t, DragResizing, c.Drag().Mode)

	c.Release()
	assert.Equal(t, DragIdle, c.Drag().Mode)
}

func TestControllerIgnoresSecondaryButtonAndUnknownIDs(t *testing.T) {
	s := loadedStore(t, freeLabel(), rect("a", 5, 5, 40, 12, 1))
	c := NewController(s)

	assert.False(t, c.PressElement("a", PointerEvent{Button: 2}))
	assert.False(t, c.PressHandle("a", PointerEvent{Button: 1}))
	assert.False(t, c.PressElement("ghost", PointerEvent{}))
	assert.Equal(t, DragIdle, c.Drag().Mode)
	assert.Empty(t, s.SelectedID())

	// Release в idle безопасен
	c.Release()
	assert.Equal(t, DragIdle, c.Drag().Mode)
}

func TestControllerReleaseClearsGuides(t *testing.T) {
	s := loadedStore(t, magnetLabel(false, 2, 2),
		rect("a", 10, 10, 20, 10, 1),
		rect("b", 10, 30, 20, 10, 2),
	)
	c := NewController(s)

	c.PressElement("b", PointerEvent{})
	c.Move(PointerEvent{X: px(1.5)})
	require.NotEmpty(t, s.Guides())

	c.Release()
	assert.Empty(t, s.Guides())
}

func TestControllerBackgroundPress(t *testing.T) {
	s := loadedStore(t, freeLabel(), rect("a", 5, 5, 40, 12, 1))
	s.SetSelected("a")
	c := NewController(s)

	c.PressBackground(PointerEvent{})
	assert.Empty(t, s.SelectedID())
}

func TestControllerKeys(t *testing.T) {
	s := loadedStore(t, freeLabel(), rect("a", 5, 5, 40, 12, 1))
	c := NewController(s)

	assert.False(t, c.KeyDown(KeyEvent{Key: "ArrowRight"}), "no selection")

	s.SetSelected("a")
	require.True(t, c.KeyDown(KeyEvent{Key: "ArrowRight"}))
	require.True(t, c.KeyDown(KeyEvent{Key: "ArrowDown", Shift: true}))
	require.True(t, c.KeyDown(KeyEvent{Key: "ArrowLeft"}))
	require.True(t, c.KeyDown(KeyEvent{Key: "ArrowUp"}))
	a, _ := s.Element("a")
	assert.Equal(t, 5.0, a.X)
	assert.Equal(t, 9.0, a.Y)

	assert.False(t, c.KeyDown(KeyEvent{Key: "d"}), "plain d is not a shortcut")
	require.True(t, c.KeyDown(KeyEvent{Key: "D", Meta: true}))
	assert.Len(t, s.Elements(), 2)
	assert.NotEqual(t, "a", s.SelectedID())

	require.True(t, c.KeyDown(KeyEvent{Key: "Delete"}))
	assert.Len(t, s.Elements(), 1)
	assert.Empty(t, s.SelectedID())
}
