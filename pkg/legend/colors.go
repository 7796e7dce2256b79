package legend

import "github.com/dd0wney/cyberdna/pkg/workflow"

// DefaultColor is used for categories missing from a ColorTable
const DefaultColor = "#6B7280"

// ColorTable maps categories to display colours
type ColorTable struct {
	Colors  map[string]string `yaml:"colors" json:"colors"`
	Default string            `yaml:"default_color" json:"default_color"`
}

// DefaultColorTable returns the stock palette
func DefaultColorTable() ColorTable {
	return ColorTable{
		Colors: map[string]string{
			workflow.CategoryData:        "#3B82F6", // blue
			workflow.CategoryComputation: "#10B981", // green
			workflow.CategoryIO:          "#F59E0B", // amber
			workflow.CategoryControl:     "#EF4444", // red
			workflow.CategoryCrypto:      "#8B5CF6", // purple
			workflow.CategoryNetwork:     "#06B6D4", // cyan
			workflow.CategoryUI:          "#F97316", // orange
			workflow.CategoryError:       "#DC2626", // red-600
			workflow.CategoryGeneral:     "#6B7280", // gray
		},
		Default: DefaultColor,
	}
}

// Merge returns a table with overrides applied on top of t
func (t ColorTable) Merge(overrides map[string]string) ColorTable {
	merged := ColorTable{
		Colors:  make(map[string]string, len(t.Colors)+len(overrides)),
		Default: t.Default,
	}
	for k, v := range t.Colors {
		merged.Colors[k] = v
	}
	for k, v := range overrides {
		merged.Colors[k] = v
	}
	return merged
}

// ColorFor returns the colour for category, falling back to the default
func (t ColorTable) ColorFor(category string) string {
	if c, ok := t.Colors[category]; ok {
		return c
	}
	if t.Default != "" {
		return t.Default
	}
	return DefaultColor
}
