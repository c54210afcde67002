package mapview

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/earthengine"
	"github.com/fogleman/gg"
)

const (
	colorbarWidth      = 320
	colorbarRampHeight = 18
	colorbarHeight     = 40
	colorbarTicks      = 5
)

// Colorbar is a legend for a palette-stretched layer.
type Colorbar struct {
	Label string
	Vis   earthengine.VisParams
	PNG   []byte
}

// DataURI returns the rendered legend inline-encoded for HTML.
func (c *Colorbar) DataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(c.PNG)
}

// RenderColorbar draws a horizontal ramp of vis.Palette with evenly spaced
// ticks from vis.Min to vis.Max.
func RenderColorbar(vis earthengine.VisParams) ([]byte, error) {
	if len(vis.Palette) == 0 {
		return nil, fmt.Errorf("colorbar needs at least one palette color")
	}
	palette := make([]color.RGBA, 0, len(vis.Palette))
	for _, hex := range vis.Palette {
		c, err := parseHexColor(hex)
		if err != nil {
			return nil, err
		}
		palette = append(palette, c)
	}

	dc := gg.NewContext(colorbarWidth, colorbarHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	for x := 0; x < colorbarWidth; x++ {
		c := interpolate(palette, float64(x)/float64(colorbarWidth-1))
		dc.SetRGB255(int(c.R), int(c.G), int(c.B))
		dc.DrawRectangle(float64(x), 0, 1, colorbarRampHeight)
		dc.Fill()
	}

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawRectangle(0.5, 0.5, colorbarWidth-1, colorbarRampHeight)
	dc.Stroke()

	for i := 0; i < colorbarTicks; i++ {
		t := float64(i) / float64(colorbarTicks-1)
		x := t * float64(colorbarWidth-1)
		value := vis.Min + t*(vis.Max-vis.Min)
		dc.DrawLine(x, colorbarRampHeight, x, colorbarRampHeight+4)
		dc.Stroke()
		// Keep the first and last labels inside the canvas.
		ax := 0.5
		if i == 0 {
			ax = 0
		} else if i == colorbarTicks-1 {
			ax = 1
		}
		dc.DrawStringAnchored(formatTick(value), x, colorbarRampHeight+6, ax, 1)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode colorbar: %w", err)
	}
	return buf.Bytes(), nil
}

func interpolate(palette []color.RGBA, t float64) color.RGBA {
	if len(palette) == 1 {
		return palette[0]
	}
	pos := t * float64(len(palette)-1)
	i := int(math.Floor(pos))
	if i >= len(palette)-1 {
		return palette[len(palette)-1]
	}
	frac := pos - float64(i)
	a, b := palette[i], palette[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + frac*(float64(y)-float64(x))))
	}
	return color.RGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}

func parseHexColor(hex string) (color.RGBA, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid palette color %q", hex)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid palette color %q: %w", hex, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

func formatTick(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
