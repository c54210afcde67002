package lst

import "github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/earthengine"

// MonthlyProduct is the per-pixel maximum LST of one month, clipped to the
// region and tagged with the month label.
type MonthlyProduct struct {
	Window MonthWindow
	// Scenes are the qualifying scenes before compositing.
	Scenes earthengine.ImageCollection
	Image  earthengine.Image
}

func NewMonthlyProduct(region Region, window MonthWindow, maxCloudCover float64) MonthlyProduct {
	scenes := LandsatCollection(region, window.Start, window.End, maxCloudCover)
	image := scenes.Map(SurfaceTemperature).
		Max().
		Clip(region.Geometry()).
		Set(MonthNameProp, window.Label)
	return MonthlyProduct{Window: window, Scenes: scenes, Image: image}
}

// BuildCollection creates one product per window, in window order, and the
// collection holding them.
func BuildCollection(region Region, windows []MonthWindow, maxCloudCover float64) ([]MonthlyProduct, earthengine.ImageCollection) {
	products := make([]MonthlyProduct, 0, len(windows))
	images := make([]earthengine.Image, 0, len(windows))
	for _, w := range windows {
		p := NewMonthlyProduct(region, w, maxCloudCover)
		products = append(products, p)
		images = append(images, p.Image)
	}
	return products, earthengine.FromImages(images...)
}

// Visualization is the LST display range and palette, cold to hot.
var Visualization = earthengine.VisParams{
	Min: 0,
	Max: 70,
	Palette: []string{
		"000080", "0000D9", "4000FF", "8000FF", "0080FF", "00FFFF",
		"00FF80", "80FF00", "FFFF00", "FF8000", "FF0000", "800000",
	},
}
