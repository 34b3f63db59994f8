package models

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

// ============================================================
// Units
// ============================================================

// PxPerMM: пикселей на миллиметр при 96 dpi.
const PxPerMM = 3.78

// MMToPx переводит миллиметры в пиксели.
func MMToPx(mm float64) float64 {
	return mm * PxPerMM
}

// PxToMM переводит пиксели в миллиметры.
func PxToMM(px float64) float64 {
	return px / PxPerMM
}

// SnapToGrid округляет значение к ближайшему шагу сетки.
// step must be positive; callers guard against zero and negative steps.
func SnapToGrid(value, step float64) float64 {
	return math.Round(value/step) * step
}

// ============================================================
// Identity
// ============================================================

// NewID генерирует уникальный идентификатор вида "<prefix>_<hex>".
func NewID(prefix string) string {
	if prefix == "" {
		prefix = "id"
	}
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
