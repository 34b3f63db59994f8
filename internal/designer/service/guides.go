package service

import (
	"math"
	"slices"

	"label-designer/internal/designer/models"
)

// ============================================================
// Magnetic Guides
// ============================================================

// SnapPolicy decides which guide wins when several are within the
// threshold on the same axis during one move.
type SnapPolicy int

const (
	// SnapLastMatch: каждое совпадение перезаписывает предыдущее в порядке
	// проверки (направляющие, затем края left/right/center).
	SnapLastMatch SnapPolicy = iota
	// SnapNearest: побеждает совпадение с минимальным расстоянием,
	// при равенстве остаётся первое найденное.
	SnapNearest
)

const DefaultSnapPolicy = SnapLastMatch

// guideMergeTolerance: направляющие одного типа ближе этого расстояния (мм) склеиваются.
const guideMergeTolerance = 0.1

func (p SnapPolicy) String() string {
	switch p {
	case SnapNearest:
		return "nearest"
	default:
		return "last-match"
	}
}

// ParseSnapPolicy accepts "nearest" and "last-match".
func ParseSnapPolicy(s string) (SnapPolicy, bool) {
	switch s {
	case "nearest":
		return SnapNearest, true
	case "last-match", "":
		return SnapLastMatch, true
	}
	return SnapLastMatch, false
}

// CalculateGuides строит направляющие для элемента id по его текущей
// геометрии относительно всех остальных элементов.
func (s *Store) CalculateGuides(id string) []models.MagneticGuide {
	el, ok := s.Element(id)
	if !ok {
		return nil
	}
	return s.guidesFor(id, el.X, el.Y, el.W, el.H)
}

// SnapToGuides подтягивает кандидатную позицию (x, y) элемента id к
// направляющим. Returns the candidate unchanged when magnets are off.
func (s *Store) SnapToGuides(id string, x, y, w, h float64) (float64, float64, []models.MagneticGuide) {
	if !s.label.MagneticGuides {
		return x, y, nil
	}

	guides := s.guidesFor(id, x, y, w, h)
	threshold := s.label.SnapThreshold

	xs, ys := models.EdgesOf(x, y, w, h)
	xOffsets := [3]float64{0, w, w / 2}
	yOffsets := [3]float64{0, h, h / 2}

	newX, newY := x, y
	bestX, bestY := math.Inf(1), math.Inf(1)

	for _, g := range guides {
		edges, offsets, target, best := &xs, &xOffsets, &newX, &bestX
		if g.Type == models.GuideHorizontal {
			edges, offsets, target, best = &ys, &yOffsets, &newY, &bestY
		}

		for i, edge := range edges {
			dist := math.Abs(edge - g.Position)
			if dist > threshold {
				continue
			}
			if s.policy == SnapNearest && dist >= *best {
				continue
			}
			*best = dist
			*target = g.Position - offsets[i]
		}
	}

	return newX, newY, guides
}

// guidesFor compares the moving rect's edges against every other element.
// Vertical guides come from x-axis edges, horizontal from y-axis edges.
func (s *Store) guidesFor(id string, x, y, w, h float64) []models.MagneticGuide {
	threshold := s.label.SnapThreshold
	mxs, mys := models.EdgesOf(x, y, w, h)

	var guides []models.MagneticGuide
	for _, other := range s.elements {
		if other.ID == id {
			continue
		}
		oxs, oys := other.Edges()

		// left, right, top, bottom, h-center, v-center
		candidates := []struct {
			pos  float64
			kind models.GuideType
		}{
			{oxs[0], models.GuideVertical},
			{oxs[1], models.GuideVertical},
			{oys[0], models.GuideHorizontal},
			{oys[1], models.GuideHorizontal},
			{oxs[2], models.GuideVertical},
			{oys[2], models.GuideHorizontal},
		}

		for _, c := range candidates {
			moving := mxs
			if c.kind == models.GuideHorizontal {
				moving = mys
			}
			for _, edge := range moving {
				if math.Abs(edge-c.pos) <= threshold {
					guides = addGuide(guides, c.kind, c.pos, other.ID, id)
				}
			}
		}
	}
	return guides
}

func addGuide(guides []models.MagneticGuide, kind models.GuideType, pos float64, ids ...string) []models.MagneticGuide {
	for i := range guides {
		g := &guides[i]
		if g.Type != kind || math.Abs(g.Position-pos) > guideMergeTolerance {
			continue
		}
		for _, id := range ids {
			if !slices.Contains(g.Elements, id) {
				g.Elements = append(g.Elements, id)
			}
		}
		return guides
	}
	return append(guides, models.MagneticGuide{Type: kind, Position: pos, Elements: slices.Clone(ids)})
}
