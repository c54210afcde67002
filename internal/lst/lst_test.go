package lst

import (
	"testing"
	"time"

	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/earthengine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walk(n *earthengine.Node, visit func(*earthengine.Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, arg := range n.Args() {
		walk(arg, visit)
	}
	for _, item := range n.Items() {
		walk(item, visit)
	}
	walk(n.Body(), visit)
}

func find(n *earthengine.Node, functionName string) []*earthengine.Node {
	var found []*earthengine.Node
	walk(n, func(node *earthengine.Node) {
		if node.FunctionName() == functionName {
			found = append(found, node)
		}
	})
	return found
}

func TestMonthlyWindowLabels(t *testing.T) {
	windows := MonthlyWindows(2024)
	require.Len(t, windows, 12)

	expected := []string{
		"January 2024", "February 2024", "March 2024", "April 2024",
		"May 2024", "June 2024", "July 2024", "August 2024",
		"September 2024", "October 2024", "November 2024", "December 2024",
	}
	assert.Equal(t, expected, Labels(windows))
}

func TestMonthlyWindowsAreContiguous(t *testing.T) {
	windows := MonthlyWindows(2024)
	for i, w := range windows {
		assert.Equal(t, w.Start.AddDate(0, 1, 0), w.End, w.Label)
		assert.Equal(t, 1, w.Start.Day())
		assert.Equal(t, 1, w.End.Day())
		if i > 0 {
			assert.Equal(t, windows[i-1].End, w.Start)
		}
	}

	assert.Equal(t, "2024-02-01", windows[1].StartDate())
	assert.Equal(t, "2024-03-01", windows[1].EndDate())
	assert.Equal(t, "2024-12-01", windows[11].StartDate())
	assert.Equal(t, "2025-01-01", windows[11].EndDate())
}

func TestNewMonthWindowNormalizesToFirstDay(t *testing.T) {
	w := NewMonthWindow(time.Date(2023, time.January, 31, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, "2023-01-01", w.StartDate())
	assert.Equal(t, "2023-02-01", w.EndDate())
	assert.Equal(t, "January 2023", w.Label)
}

func TestCelsiusFromRaw(t *testing.T) {
	// 0.00341802 * 10000 + 149.0 - 273.15
	assert.InDelta(t, -89.9698, CelsiusFromRaw(10000), 1e-9)
	// 0.00341802 * 43000 + 149.0 - 273.15
	assert.InDelta(t, 22.82486, CelsiusFromRaw(43000), 1e-9)
}

func TestSurfaceTemperatureChain(t *testing.T) {
	source := earthengine.LoadImageCollection(Landsat8Collection).Max()
	n := SurfaceTemperature(source).Node()

	assert.Equal(t, "Element.copyProperties", n.FunctionName())
	props, _ := n.Arg("properties").Constant()
	assert.Equal(t, []string{TimeStartProp}, props)
	assert.Same(t, source.Node(), n.Arg("source"))

	rename := n.Arg("destination")
	assert.Equal(t, "Image.rename", rename.FunctionName())
	names, _ := rename.Arg("names").Constant()
	assert.Equal(t, []string{LSTBand}, names)

	steps := []struct {
		fn    string
		value float64
	}{
		{"Image.subtract", KelvinOffset},
		{"Image.add", STOffset},
		{"Image.multiply", STScale},
	}
	current := rename.Arg("input")
	for _, step := range steps {
		require.Equal(t, step.fn, current.FunctionName())
		v, ok := current.Arg("image2").Arg("value").Constant()
		require.True(t, ok)
		assert.Equal(t, step.value, v)
		current = current.Arg("image1")
	}

	assert.Equal(t, "Image.select", current.FunctionName())
	bands, _ := current.Arg("bandSelectors").Constant()
	assert.Equal(t, []string{ThermalBand}, bands)
	assert.Same(t, source.Node(), current.Arg("input"))
}

func TestLandsatCollectionFilters(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	n := LandsatCollection(Isfahan, start, start.AddDate(0, 1, 0), DefaultMaxCloudCover).Node()

	var ids []any
	for _, load := range find(n, "ImageCollection.load") {
		id, _ := load.Arg("id").Constant()
		ids = append(ids, id)
	}
	assert.ElementsMatch(t, []any{Landsat8Collection, Landsat9Collection}, ids)

	cloud := find(n, "Filter.lessThan")
	require.Len(t, cloud, 1)
	field, _ := cloud[0].Arg("leftField").Constant()
	limit, _ := cloud[0].Arg("rightValue").Constant()
	assert.Equal(t, CloudCoverProperty, field)
	assert.Equal(t, 10.0, limit)

	dates := find(n, "Filter.dateRangeContains")
	require.Len(t, dates, 1)
	from, _ := dates[0].Arg("leftValue").Arg("start").Arg("value").Constant()
	to, _ := dates[0].Arg("leftValue").Arg("end").Arg("value").Constant()
	assert.Equal(t, start.UnixMilli(), from)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), to)
}

func TestRegionBoundsReachEveryMonthlyQuery(t *testing.T) {
	products, collection := BuildCollection(Isfahan, MonthlyWindows(2024), DefaultMaxCloudCover)
	require.Len(t, products, 12)

	for _, p := range products {
		rects := find(p.Image.Node(), "GeometryConstructors.Rectangle")
		// filterBounds and clip
		require.Len(t, rects, 2, p.Window.Label)
		for _, r := range rects {
			coords, ok := r.Arg("coordinates").Constant()
			require.True(t, ok)
			assert.Equal(t, []float64{51.5, 32.5, 52.0, 32.8}, coords)
		}
	}

	images := collection.Node().Arg("images").Items()
	require.Len(t, images, 12)
	for i, img := range images {
		assert.Same(t, products[i].Image.Node(), img)
	}
}

func TestProductsAreTaggedInOrder(t *testing.T) {
	windows := MonthlyWindows(2024)
	products, _ := BuildCollection(Isfahan, windows, DefaultMaxCloudCover)

	for i, p := range products {
		n := p.Image.Node()
		require.Equal(t, "Element.set", n.FunctionName())
		key, _ := n.Arg("key").Constant()
		value, _ := n.Arg("value").Constant()
		assert.Equal(t, MonthNameProp, key)
		assert.Equal(t, windows[i].Label, value)
		assert.Equal(t, "Image.clip", n.Arg("object").FunctionName())
		assert.Equal(t, "reduce.max", n.Arg("object").Arg("input").FunctionName())
	}
}

func TestRegion(t *testing.T) {
	b := Isfahan.Bound()
	assert.Equal(t, 51.5, b.Min.Lon())
	assert.Equal(t, 32.5, b.Min.Lat())
	assert.Equal(t, 52.0, b.Max.Lon())
	assert.Equal(t, 32.8, b.Max.Lat())

	c := Isfahan.Center()
	assert.InDelta(t, 51.75, c.Lon(), 1e-9)
	assert.InDelta(t, 32.65, c.Lat(), 1e-9)

	f := Isfahan.Feature("Isfahan AOI")
	assert.Equal(t, "Isfahan AOI", f.Properties["name"])
	assert.Equal(t, "Polygon", f.Geometry.GeoJSONType())
}

func TestVisualization(t *testing.T) {
	assert.Equal(t, 0.0, Visualization.Min)
	assert.Equal(t, 70.0, Visualization.Max)
	assert.Len(t, Visualization.Palette, 12)
	assert.Equal(t, "000080", Visualization.Palette[0])
	assert.Equal(t, "800000", Visualization.Palette[11])
}
