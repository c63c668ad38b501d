// Package styles holds the fixed catalog of artistic styles and the typed
// operations each one applies.
package styles

import (
	"fmt"

	"stylestudio/internal/domain"
)

// Definition binds a style name to an ordered operation list.
type Definition struct {
	Name        string
	Description string
	Steps       []Operation
}

const (
	PencilSketch = "Pencil Sketch"
	OilPainting  = "Oil Painting"
	Cartoon2D    = "2D Cartoon"
	Cartoon3D    = "3D Cartoon"
	ComicStyle   = "Comic Style"
	AnimeStyle   = "Anime Style"
)

var catalog = []Definition{
	{
		Name:        PencilSketch,
		Description: "High contrast graphite drawing with hard edges",
		Steps: []Operation{
			Grayscale{},
			Normalize{},
			Sharpen{Sigma: 5},
			Linear{Slope: 2.0, Intercept: -128},
			Negate{},
			Blur{Sigma: 0.3},
			Negate{},
			Threshold{Level: 180},
		},
	},
	{
		Name:        OilPainting,
		Description: "Warm saturated colors with smoothed brush strokes",
		Steps: []Operation{
			Modulate{Brightness: 1.2, Saturation: 2.5, Hue: 10},
			Blur{Sigma: 6},
			Sharpen{Sigma: 1.5},
			Median{Size: 5},
		},
	},
	{
		Name:        Cartoon2D,
		Description: "Flat vivid colors with crisp outlines",
		Steps: []Operation{
			Modulate{Brightness: 1.4, Saturation: 3.0, Hue: 0},
			Sharpen{Sigma: 8},
			Normalize{},
			Linear{Slope: 1.8, Intercept: -102.4},
			Median{Size: 3},
		},
	},
	{
		Name:        Cartoon3D,
		Description: "Soft shaded colors with rounded volume",
		Steps: []Operation{
			Modulate{Brightness: 1.35, Saturation: 2.2, Hue: -5},
			Blur{Sigma: 1.5},
			Sharpen{Sigma: 2.5},
			Normalize{},
			Linear{Slope: 1.4, Intercept: -44.8},
		},
	},
	{
		Name:        ComicStyle,
		Description: "Punchy inked look with strong contrast",
		Steps: []Operation{
			Modulate{Brightness: 1.3, Saturation: 3.5, Hue: 15},
			Sharpen{Sigma: 10},
			Normalize{},
			Linear{Slope: 2.0, Intercept: -128},
			Median{Size: 2},
		},
	},
	{
		Name:        AnimeStyle,
		Description: "Bright cel shading with soft gradients",
		Steps: []Operation{
			Modulate{Brightness: 1.45, Saturation: 2.8, Hue: -10},
			Blur{Sigma: 2.5},
			Sharpen{Sigma: 1.5},
			Normalize{},
			Linear{Slope: 1.2, Intercept: -19.2},
		},
	},
}

var byName = func() map[string]int {
	idx := make(map[string]int, len(catalog))
	for i, def := range catalog {
		idx[def.Name] = i
	}
	return idx
}()

// Resolve returns the definition for name. Lookup is exact and case sensitive.
func Resolve(name string) (Definition, error) {
	i, ok := byName[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", domain.ErrUnknownStyle, name)
	}
	return clone(catalog[i]), nil
}

// Known reports whether name is a catalog style.
func Known(name string) bool {
	_, ok := byName[name]
	return ok
}

// Names lists the style names in catalog order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, def := range catalog {
		names[i] = def.Name
	}
	return names
}

// Catalog returns every definition in catalog order.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	for i, def := range catalog {
		out[i] = clone(def)
	}
	return out
}

// StepStrings renders the steps of def, one entry per operation.
func StepStrings(def Definition) []string {
	out := make([]string, len(def.Steps))
	for i, op := range def.Steps {
		out[i] = op.String()
	}
	return out
}

func clone(def Definition) Definition {
	steps := make([]Operation, len(def.Steps))
	copy(steps, def.Steps)
	def.Steps = steps
	return def
}
