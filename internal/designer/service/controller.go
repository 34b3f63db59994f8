package service

import (
	"math"
	"strings"

	"label-designer/internal/designer/models"
)

// ============================================================
// Canvas Controller
// ============================================================

type DragMode string

const (
	DragIdle     DragMode = "idle"
	DragMoving   DragMode = "moving"
	DragResizing DragMode = "resizing"
)

// Nudge steps for arrow keys, mm.
const (
	NudgeStepMM      = 1.0
	NudgeShiftStepMM = 5.0
)

// PrimaryButton is the only button that starts a drag.
const PrimaryButton = 0

// DragState: переходное состояние указателя; не является источником истины.
type DragState struct {
	Mode      DragMode `json:"mode"`
	ElementID string   `json:"elementId,omitempty"`
	LastX     float64  `json:"lastX"`
	LastY     float64  `json:"lastY"`
	StartX    float64  `json:"startX"`
	StartY    float64  `json:"startY"`
	StartW    float64  `json:"startW"`
	StartH    float64  `json:"startH"`
}

// PointerEvent: координаты указателя в пикселях экрана.
type PointerEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button int     `json:"button"`
}

// KeyEvent mirrors a keydown with modifier state.
type KeyEvent struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Meta  bool   `json:"meta"`
	Shift bool   `json:"shift"`
}

// Controller переводит события указателя и клавиатуры в операции Store.
// It never mutates elements directly.
type Controller struct {
	store *Store
	drag  DragState
}

func NewController(store *Store) *Controller {
	return &Controller{store: store, drag: DragState{Mode: DragIdle}}
}

func (c *Controller) Drag() DragState { return c.drag }

// ============================================================
// Pointer
// ============================================================

// PressElement starts moving an element (idle → moving).
func (c *Controller) PressElement(id string, ev PointerEvent) bool {
	if ev.Button != PrimaryButton || c.drag.Mode != DragIdle {
		return false
	}
	if _, ok := c.store.Element(id); !ok {
		return false
	}

	c.store.SetSelected(id)
	c.store.SetCursor(CursorGrabbing)
	c.drag = DragState{
		Mode:      DragMoving,
		ElementID: id,
		LastX:     ev.X,
		LastY:     ev.Y,
		StartX:    ev.X,
		StartY:    ev.Y,
	}
	return true
}

// PressHandle starts resizing from the bottom-right handle (idle → resizing).
func (c *Controller) PressHandle(id string, ev PointerEvent) bool {
	if ev.Button != PrimaryButton || c.drag.Mode != DragIdle {
		return false
	}
	el, ok := c.store.Element(id)
	if !ok {
		return false
	}

	c.store.SetSelected(id)
	c.store.SetCursor(CursorResize)
	c.drag = DragState{
		Mode:      DragResizing,
		ElementID: id,
		LastX:     ev.X,
		LastY:     ev.Y,
		StartX:    ev.X,
		StartY:    ev.Y,
		StartW:    el.W,
		StartH:    el.H,
	}
	return true
}

// PressBackground: нажатие по пустому полотну снимает выделение.
func (c *Controller) PressBackground(ev PointerEvent) {
	if c.drag.Mode != DragIdle {
		return
	}
	c.store.SetSelected("")
}

// Move обрабатывает перемещение указателя в активном перетаскивании.
func (c *Controller) Move(ev PointerEvent) bool {
	scale := models.MMToPx(1) * c.store.Zoom()

	switch c.drag.Mode {
	case DragMoving:
		dxMM := (ev.X - c.drag.LastX) / scale
		dyMM := (ev.Y - c.drag.LastY) / scale
		c.drag.LastX, c.drag.LastY = ev.X, ev.Y
		return c.store.MoveElement(c.drag.ElementID, dxMM, dyMM)

	case DragResizing:
		dxMM := (ev.X - c.drag.StartX) / scale
		dyMM := (ev.Y - c.drag.StartY) / scale
		c.drag.LastX, c.drag.LastY = ev.X, ev.Y
		w := math.Max(MinElementWidthMM, c.drag.StartW+dxMM)
		h := math.Max(0, c.drag.StartH+dyMM)
		return c.store.ResizeElement(c.drag.ElementID, models.SizePatch{W: &w, H: &h})
	}
	return false
}

// Release ends any drag. Safe to call in any state; also used when the
// pointer is lost (window blur).
func (c *Controller) Release() {
	if c.drag.Mode == DragIdle {
		return
	}
	c.drag = DragState{Mode: DragIdle}
	c.store.SetCursor(CursorDefault)
	c.store.ClearGuides()
}

// ============================================================
// Keyboard
// ============================================================

// KeyDown handles Delete, Ctrl/Cmd+D and arrow nudges. Returns true when
// the key was consumed.
func (c *Controller) KeyDown(ev KeyEvent) bool {
	id := c.store.SelectedID()
	if id == "" {
		return false
	}

	switch {
	case ev.Key == "Delete":
		return c.store.DeleteSelected()
	case (ev.Ctrl || ev.Meta) && strings.EqualFold(ev.Key, "d"):
		_, ok := c.store.DuplicateSelected()
		return ok
	}

	dx, dy, ok := arrowDelta(ev)
	if !ok {
		return false
	}
	el, found := c.store.Element(id)
	if !found {
		return false
	}

	// Nudges bypass grid and magnetic snapping.
	var p models.ElementPatch
	if dx != 0 {
		x := el.X + dx
		p.X = &x
	}
	if dy != 0 {
		y := el.Y + dy
		p.Y = &y
	}
	return c.store.UpdateElement(id, p)
}

func arrowDelta(ev KeyEvent) (float64, float64, bool) {
	step := NudgeStepMM
	if ev.Shift {
		step = NudgeShiftStepMM
	}
	switch ev.Key {
	case "ArrowUp":
		return 0, -step, true
	case "ArrowDown":
		return 0, step, true
	case "ArrowLeft":
		return -step, 0, true
	case "ArrowRight":
		return step, 0, true
	}
	return 0, 0, false
}
