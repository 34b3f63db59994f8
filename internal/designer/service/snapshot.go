package service

import "label-designer/internal/designer/models"

// Snapshot: состояние сессии для внешних потребителей (HTTP, рендер).
type Snapshot struct {
	Label      models.LabelConfig     `json:"label"`
	Elements   []models.Element       `json:"elements"`
	SelectedID *string                `json:"selectedId"`
	Zoom       float64                `json:"zoom"`
	Guides     []models.MagneticGuide `json:"guides"`
	Cursor     Cursor                 `json:"cursor"`
	Drag       DragState              `json:"drag"`
	SnapPolicy string                 `json:"snapPolicy"`
}

func TakeSnapshot(store *Store, canvas *Controller) Snapshot {
	snap := Snapshot{
		Label:      store.Label(),
		Elements:   store.Elements(),
		Zoom:       store.Zoom(),
		Guides:     store.Guides(),
		Cursor:     store.Cursor(),
		SnapPolicy: store.Policy().String(),
	}
	if snap.Guides == nil {
		snap.Guides = []models.MagneticGuide{}
	}
	if id := store.SelectedID(); id != "" {
		snap.SelectedID = &id
	}
	if canvas != nil {
		snap.Drag = canvas.Drag()
	}
	return snap
}
