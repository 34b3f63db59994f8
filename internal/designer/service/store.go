package service

import (
	"math"
	"slices"

	"label-designer/internal/designer/models"
)

// ============================================================
// Designer Store
// ============================================================

const (
	MinZoom  = 0.25
	MaxZoom  = 3.0
	ZoomStep = 0.1

	// DuplicateOffsetMM: смещение копии относительно оригинала.
	DuplicateOffsetMM = 3.0
	// MinElementWidthMM: минимальная ширина после изменения размера.
	MinElementWidthMM = 1.0
)

type Cursor string

const (
	CursorDefault  Cursor = "default"
	CursorGrabbing Cursor = "grabbing"
	CursorResize   Cursor = "nwse-resize"
)

// Store: единственный изменяемый источник состояния сессии редактора.
// It is not safe for concurrent use; callers serialize access.
type Store struct {
	label      models.LabelConfig
	elements   []models.Element
	selectedID string
	zoom       float64
	guides     []models.MagneticGuide
	cursor     Cursor

	policy SnapPolicy
	newID  func(prefix string) string
}

type Option func(*Store)

// WithSnapPolicy выбирает правило разрешения нескольких совпадений.
func WithSnapPolicy(p SnapPolicy) Option {
	return func(s *Store) { s.policy = p }
}

// WithIDGenerator replaces models.NewID, mostly for tests.
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(s *Store) { s.newID = fn }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		label:    models.DefaultLabelConfig(),
		elements: []models.Element{},
		zoom:     1,
		cursor:   CursorDefault,
		policy:   DefaultSnapPolicy,
		newID:    models.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ============================================================
// Queries
// ============================================================

func (s *Store) Label() models.LabelConfig { return s.label }

func (s *Store) Zoom() float64 { return s.zoom }

func (s *Store) Cursor() Cursor { return s.cursor }

func (s *Store) Policy() SnapPolicy { return s.policy }

// SelectedID returns "" when nothing is selected.
func (s *Store) SelectedID() string { return s.selectedID }

// Elements returns a copy in insertion order.
func (s *Store) Elements() []models.Element {
	return slices.Clone(s.elements)
}

func (s *Store) Element(id string) (models.Element, bool) {
	if i := s.index(id); i >= 0 {
		return s.elements[i], true
	}
	return models.Element{}, false
}

func (s *Store) Selected() (models.Element, bool) {
	if s.selectedID == "" {
		return models.Element{}, false
	}
	return s.Element(s.selectedID)
}

// SortedElements возвращает элементы по возрастанию z; при равных z
// сохраняется порядок вставки.
func (s *Store) SortedElements() []models.Element {
	return models.SortByZ(s.elements)
}

func (s *Store) Guides() []models.MagneticGuide {
	return cloneGuides(s.guides)
}

// ============================================================
// Session-level mutations
// ============================================================

// SetLabel shallow-merges the patch. Clamping gridMm and snapThreshold
// is the caller's job.
func (s *Store) SetLabel(p models.LabelPatch) {
	s.label = s.label.Apply(p)
	if !s.label.MagneticGuides {
		s.guides = nil
	}
}

func (s *Store) SetZoom(z float64) {
	s.zoom = clamp(z, MinZoom, MaxZoom)
}

func (s *Store) ZoomIn() { s.SetZoom(s.zoom + ZoomStep) }

func (s *Store) ZoomOut() { s.SetZoom(s.zoom - ZoomStep) }

// SetSelected selects id; "" clears the selection.
func (s *Store) SetSelected(id string) {
	s.selectedID = id
}

func (s *Store) SetCursor(c Cursor) {
	s.cursor = c
}

func (s *Store) ToggleGrid() {
	s.label.ShowGrid = !s.label.ShowGrid
}

func (s *Store) ToggleMagnets() {
	s.label.MagneticGuides = !s.label.MagneticGuides
	if !s.label.MagneticGuides {
		s.guides = nil
	}
}

// ClearGuides drops the derived guide list, e.g. when a drag ends.
func (s *Store) ClearGuides() {
	s.guides = nil
}

// ============================================================
// Element mutations
// ============================================================

// AddElement создаёт элемент по умолчанию поверх остальных и выделяет его.
func (s *Store) AddElement(t models.ElementType) (models.Element, bool) {
	z := 1
	if len(s.elements) > 0 {
		z = s.maxZ() + 1
	}

	el, err := models.NewElement(t, s.newID(string(t)), z)
	if err != nil {
		return models.Element{}, false
	}

	s.elements = append(s.elements, el)
	s.selectedID = el.ID
	return el, true
}

// UpdateElement is a no-op for unknown ids.
func (s *Store) UpdateElement(id string, p models.ElementPatch) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.elements[i] = s.elements[i].Apply(p)
	return true
}

// MoveElement сдвигает элемент на (dx, dy) мм: сначала привязка к сетке,
// затем к магнитным направляющим от уже привязанной позиции.
func (s *Store) MoveElement(id string, dxMM, dyMM float64) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	el := s.elements[i]

	newX := el.X + dxMM
	newY := el.Y + dyMM

	if s.label.ShowGrid && s.label.GridMM > 0 {
		newX = models.SnapToGrid(newX, s.label.GridMM)
		newY = models.SnapToGrid(newY, s.label.GridMM)
	}

	if s.label.MagneticGuides {
		newX, newY, _ = s.SnapToGuides(id, newX, newY, el.W, el.H)
	}

	el.X, el.Y = newX, newY
	s.elements[i] = el

	if s.label.MagneticGuides {
		s.guides = s.CalculateGuides(id)
	} else {
		s.guides = nil
	}
	return true
}

// ResizeElement merges w/h, enforcing w >= 1 and h >= 0.
func (s *Store) ResizeElement(id string, p models.SizePatch) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	el := s.elements[i]
	if p.W != nil {
		el.W = math.Max(MinElementWidthMM, *p.W)
	}
	if p.H != nil {
		el.H = math.Max(0, *p.H)
	}
	s.elements[i] = el
	return true
}

// InsertDataField дописывает плейсхолдер {field} в текст и привязывает поле.
func (s *Store) InsertDataField(id, field string) bool {
	i := s.index(id)
	if i < 0 || field == "" {
		return false
	}
	el := s.elements[i]
	tb, ok := el.Body.(models.TextBody)
	if !ok {
		return false
	}
	tb.Text += "{" + field + "}"
	el.Body = tb
	el.DataField = field
	s.elements[i] = el
	return true
}

// DeleteSelected удаляет выделенный элемент и всегда снимает выделение;
// false, если удалять нечего.
func (s *Store) DeleteSelected() bool {
	i := s.index(s.selectedID)
	if i < 0 {
		s.selectedID = ""
		return false
	}
	s.elements = slices.Delete(s.elements, i, i+1)
	s.selectedID = ""
	return true
}

// DuplicateSelected клонирует выделенный элемент со смещением +3/+3 мм и z+1.
func (s *Store) DuplicateSelected() (models.Element, bool) {
	src, ok := s.Selected()
	if !ok {
		return models.Element{}, false
	}

	dup := src
	dup.ID = s.newID(string(src.Type()))
	dup.X = src.X + DuplicateOffsetMM
	dup.Y = src.Y + DuplicateOffsetMM
	dup.Z = src.Z + 1

	s.elements = append(s.elements, dup)
	s.selectedID = dup.ID
	return dup, true
}

func (s *Store) BringForward() bool {
	i := s.index(s.selectedID)
	if i < 0 {
		return false
	}
	s.elements[i].Z = s.maxZ() + 1
	return true
}

func (s *Store) SendBackward() bool {
	i := s.index(s.selectedID)
	if i < 0 {
		return false
	}
	s.elements[i].Z = s.minZ() - 1
	return true
}

// ============================================================
// Serialization
// ============================================================

// ExportData returns a snapshot of label and elements only.
func (s *Store) ExportData() models.TemplateData {
	return models.TemplateData{Label: s.label, Elements: s.elements}.Clone()
}

// LoadFromData заменяет макет целиком и сбрасывает состояние сессии.
func (s *Store) LoadFromData(data models.TemplateData) {
	s.label = models.NormalizeLabel(data.Label)

	elements := make([]models.Element, 0, len(data.Elements))
	seen := make(map[string]bool, len(data.Elements))
	for _, el := range data.Elements {
		if el.ID == "" || seen[el.ID] {
			el.ID = s.newID(string(el.Type()))
		}
		seen[el.ID] = true
		elements = append(elements, el)
	}
	s.elements = elements

	s.selectedID = ""
	s.zoom = 1
	s.guides = nil
}

func (s *Store) Clear() {
	s.label = models.DefaultLabelConfig()
	s.elements = []models.Element{}
	s.selectedID = ""
	s.zoom = 1
	s.guides = nil
	s.cursor = CursorDefault
}

// ============================================================
// Helpers
// ============================================================

func (s *Store) index(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.elements, func(e models.Element) bool { return e.ID == id })
}

func (s *Store) maxZ() int {
	maxZ := math.MinInt
	for _, e := range s.elements {
		maxZ = max(maxZ, e.Z)
	}
	return maxZ
}

func (s *Store) minZ() int {
	minZ := math.MaxInt
	for _, e := range s.elements {
		minZ = min(minZ, e.Z)
	}
	return minZ
}

func clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

func cloneGuides(in []models.MagneticGuide) []models.MagneticGuide {
	if in == nil {
		return nil
	}
	out := make([]models.MagneticGuide, len(in))
	for i, g := range in {
		g.Elements = slices.Clone(g.Elements)
		out[i] = g
	}
	return out
}
