package models

import (
	"fmt"
	"time"
)

// ============================================================
// Template record
// ============================================================

// Template: сохранённый шаблон этикетки в библиотеке.
type Template struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	WidthMM   float64      `json:"widthMm"`
	HeightMM  float64      `json:"heightMm"`
	IsDefault bool         `json:"isDefault"`
	Data      TemplateData `json:"data"`
	CreatedAt string       `json:"createdAt"`
}

// DownloadName returns the file name offered when a layout is exported.
func DownloadName(label LabelConfig, at time.Time) string {
	return fmt.Sprintf("label_%sx%smm_%d.json", formatMM(label.WidthMM), formatMM(label.HeightMM), at.UnixMilli())
}

func formatMM(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

// ============================================================
// Data fields
// ============================================================

// DataField: поле данных, к которому привязывается текст.
type DataField struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Example string `json:"example"`
}

// DataFields: доступные поля для привязки.
var DataFields = []DataField{
	{Value: "modelName", Label: "Model name", Example: `Wardrobe "Premium"`},
	{Value: "sku", Label: "SKU", Example: "SKU-001"},
	{Value: "uuid", Label: "Unique ID", Example: "UUID-001-001"},
	{Value: "dimensions", Label: "Dimensions", Example: "2000x600x500 mm"},
	{Value: "materialType", Label: "Material", Example: "Chipboard"},
	{Value: "color", Label: "Color", Example: "White"},
	{Value: "productionDate", Label: "Production date", Example: "26.09.2024"},
	{Value: "completionDate", Label: "Completion date", Example: "27.09.2024"},
	{Value: "operatorName", Label: "Operator", Example: "Ivan Petrov"},
	{Value: "batchId", Label: "Batch ID", Example: "BATCH-001"},
}

// SampleData maps every known field to its example value.
func SampleData() map[string]string {
	out := make(map[string]string, len(DataFields))
	for _, f := range DataFields {
		out[f.Value] = f.Example
	}
	return out
}

// IsDataField reports whether name is in the catalog.
func IsDataField(name string) bool {
	for _, f := range DataFields {
		if f.Value == name {
			return true
		}
	}
	return false
}
