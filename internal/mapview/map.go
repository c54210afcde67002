package mapview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/earthengine"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"
)

// Tiler turns a server-side image into a tile set.
type Tiler interface {
	CreateMap(ctx context.Context, img earthengine.Image, vis earthengine.VisParams) (*earthengine.MapID, error)
}

type TileLayer struct {
	Name    string
	URL     string
	Vis     earthengine.VisParams
	Visible bool
}

type VectorLayer struct {
	Name    string
	GeoJSON json.RawMessage
}

type Frame struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type TimeSlider struct {
	Frames   []Frame
	Vis      earthengine.VisParams
	Interval time.Duration
}

// Map collects layers and controls and renders them as a standalone
// Leaflet page.
type Map struct {
	Title  string
	Center orb.Point
	Zoom   int

	tileLayers   []TileLayer
	vectorLayers []VectorLayer
	colorbar     *Colorbar
	layerControl bool
	slider       *TimeSlider
}

func New(title string, center orb.Point, zoom int) *Map {
	return &Map{Title: title, Center: center, Zoom: zoom}
}

// AddFeature adds a vector overlay.
func (m *Map) AddFeature(name string, feature *geojson.Feature) error {
	raw, err := feature.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode layer %s: %w", name, err)
	}
	m.vectorLayers = append(m.vectorLayers, VectorLayer{Name: name, GeoJSON: raw})
	return nil
}

// AddLayer registers img with the tiler using vis as given and adds the
// resulting tiles as a visible overlay.
func (m *Map) AddLayer(ctx context.Context, tiler Tiler, img earthengine.Image, vis earthengine.VisParams, name string) error {
	mapID, err := tiler.CreateMap(ctx, img, vis)
	if err != nil {
		return fmt.Errorf("failed to add layer %s: %w", name, err)
	}
	m.tileLayers = append(m.tileLayers, TileLayer{Name: name, URL: mapID.TileURL, Vis: vis, Visible: true})
	return nil
}

func (m *Map) AddColorbar(vis earthengine.VisParams, label string) error {
	png, err := RenderColorbar(vis)
	if err != nil {
		return err
	}
	m.colorbar = &Colorbar{Label: label, Vis: vis, PNG: png}
	return nil
}

func (m *Map) AddLayerControl() {
	m.layerControl = true
}

// AddTimeSlider creates one tile set per image, at most concurrency at a
// time, and steps through them every interval. labels[i] names images[i].
func (m *Map) AddTimeSlider(ctx context.Context, tiler Tiler, images []earthengine.Image, vis earthengine.VisParams, interval time.Duration, labels []string, concurrency int) error {
	if len(images) != len(labels) {
		return fmt.Errorf("time slider has %d images but %d labels", len(images), len(labels))
	}
	if len(images) == 0 {
		return fmt.Errorf("time slider needs at least one image")
	}
	if concurrency < 1 {
		concurrency = 1
	}

	frames := make([]Frame, len(images))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			mapID, err := tiler.CreateMap(ctx, img, vis)
			if err != nil {
				return fmt.Errorf("failed to create frame %s: %w", labels[i], err)
			}
			frames[i] = Frame{Label: labels[i], URL: mapID.TileURL}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	m.slider = &TimeSlider{Frames: frames, Vis: vis, Interval: interval}
	return nil
}

func (m *Map) TileLayers() []TileLayer {
	return m.tileLayers
}

func (m *Map) VectorLayers() []VectorLayer {
	return m.vectorLayers
}

func (m *Map) Colorbar() *Colorbar {
	return m.colorbar
}

func (m *Map) HasLayerControl() bool {
	return m.layerControl
}

func (m *Map) TimeSlider() *TimeSlider {
	return m.slider
}

// Save renders the page to path, creating parent directories.
func (m *Map) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create map file: %w", err)
	}
	defer file.Close()
	if err := m.Render(file); err != nil {
		return err
	}
	return file.Close()
}

func (m *Map) Render(w io.Writer) error {
	if err := pageTemplate.Execute(w, m.page()); err != nil {
		return fmt.Errorf("failed to render map: %w", err)
	}
	return nil
}
