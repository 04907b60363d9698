// Package render turns the joined geometry and metric table into standalone
// interactive HTML choropleth maps.
package render

import (
	"fmt"
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/vliden/coronamap/internal/model"
)

// colorMaps is the named palette registry (ColorBrewer sequential schemes).
// Read-only after init.
var colorMaps = map[string][]string{
	"Reds_03":   {"#fee0d2", "#fc9272", "#de2d26"},
	"Reds_05":   {"#fee5d9", "#fcae91", "#fb6a4a", "#de2d26", "#a50f15"},
	"Reds_07":   {"#fee5d9", "#fcbba1", "#fc9272", "#fb6a4a", "#ef3b2c", "#cb181d", "#99000d"},
	"Reds_09":   {"#fff5f0", "#fee0d2", "#fcbba1", "#fc9272", "#fb6a4a", "#ef3b2c", "#cb181d", "#a50f15", "#67000d"},
	"PuRd_09":   {"#f7f4f9", "#e7e1ef", "#d4b9da", "#c994c7", "#df65b0", "#e7298a", "#ce1256", "#980043", "#67001f"},
	"YlOrRd_09": {"#ffffcc", "#ffeda0", "#fed976", "#feb24c", "#fd8d3c", "#fc4e2a", "#e31a1c", "#bd0026", "#800026"},
	"Blues_09":  {"#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6", "#4292c6", "#2171b5", "#08519c", "#08306b"},
	"YlGnBu_09": {"#ffffd9", "#edf8b1", "#c7e9b4", "#7fcdbb", "#41b6c4", "#1d91c0", "#225ea8", "#253494", "#081d58"},
}

// Palettes returns the sorted registered palette names.
func Palettes() []string {
	names := make([]string, 0, len(colorMaps))
	for name := range colorMaps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LinearColormap maps a value range onto an interpolated palette. When the
// map is built over log-transformed bounds, values passed to Color must be
// log-transformed too.
type LinearColormap struct {
	name   string
	hexes  []string
	colors []colorful.Color
	vmin   float64
	vmax   float64

	Caption string
}

// NewLinearColormap builds a colormap for the named palette over
// [vmin, vmax]. An unknown palette name is a configuration error.
func NewLinearColormap(name string, vmin, vmax float64) (*LinearColormap, error) {
	hexes, ok := colorMaps[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown color map %q (have %v)", model.ErrConfig, name, Palettes())
	}

	colors := make([]colorful.Color, len(hexes))
	for i, hex := range hexes {
		c, err := colorful.Hex(hex)
		if err != nil {
			return nil, fmt.Errorf("%w: palette %s color %q: %v", model.ErrConfig, name, hex, err)
		}
		colors[i] = c
	}

	if vmax < vmin {
		vmin, vmax = vmax, vmin
	}
	return &LinearColormap{name: name, hexes: hexes, colors: colors, vmin: vmin, vmax: vmax}, nil
}

// Color returns the interpolated hex color for v. Values outside the range
// clamp to the palette ends.
func (c *LinearColormap) Color(v float64) string {
	t := c.position(v)
	pos := t * float64(len(c.colors)-1)
	i := int(math.Floor(pos))
	if i >= len(c.colors)-1 {
		return c.hexes[len(c.hexes)-1]
	}
	if i < 0 {
		return c.hexes[0]
	}
	frac := pos - float64(i)
	return c.colors[i].BlendLab(c.colors[i+1], frac).Clamped().Hex()
}

func (c *LinearColormap) position(v float64) float64 {
	if c.vmax == c.vmin {
		return 0
	}
	t := (v - c.vmin) / (c.vmax - c.vmin)
	return math.Min(1, math.Max(0, t))
}

// Hexes returns the palette stops, for legend gradients.
func (c *LinearColormap) Hexes() []string {
	return c.hexes
}

// Min and Max return the colormap bounds in its working space.
func (c *LinearColormap) Min() float64 { return c.vmin }
func (c *LinearColormap) Max() float64 { return c.vmax }

// BinEdges returns n+1 bucket edges across the value range. For a colormap
// built over log-transformed bounds the edges come back in original value
// space, geometrically spaced; otherwise they are arithmetic.
func (c *LinearColormap) BinEdges(n int, logscale bool) []float64 {
	if n < 1 {
		n = 1
	}
	edges := make([]float64, n+1)
	step := (c.vmax - c.vmin) / float64(n)
	for i := 0; i <= n; i++ {
		edge := c.vmin + float64(i)*step
		if logscale {
			edge = math.Exp(edge)
		}
		edges[i] = edge
	}
	return edges
}

// LogValue is the transform applied before coloring on a log-scaled map.
// Non-positive values have no logarithm and disappear from the scale.
func LogValue(v float64) float64 {
	if v <= 0 {
		return math.NaN()
	}
	return math.Log(v)
}
