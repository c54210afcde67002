package lst

import (
	"time"

	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/earthengine"
)

const (
	Landsat8Collection = "LANDSAT/LC08/C02/T1_L2"
	Landsat9Collection = "LANDSAT/LC09/C02/T1_L2"

	CloudCoverProperty = "CLOUD_COVER"
	// DefaultMaxCloudCover is exclusive: scenes at 10% are dropped.
	DefaultMaxCloudCover = 10.0

	ThermalBand   = "ST_B10"
	LSTBand       = "LST"
	TimeStartProp = "system:time_start"
	MonthNameProp = "month_name"

	// Collection 2 Level-2 surface temperature scaling to Kelvin.
	STScale  = 0.00341802
	STOffset = 149.0
	// KelvinOffset converts Kelvin to Celsius.
	KelvinOffset = 273.15
)

// LandsatCollection queries Landsat 8 and 9 scenes over region within
// [start, end) whose cloud cover is below maxCloudCover.
func LandsatCollection(region Region, start, end time.Time, maxCloudCover float64) earthengine.ImageCollection {
	return earthengine.LoadImageCollection(Landsat8Collection).
		Merge(earthengine.LoadImageCollection(Landsat9Collection)).
		FilterBounds(region.Geometry()).
		FilterDate(start, end).
		Filter(earthengine.Lt(CloudCoverProperty, maxCloudCover))
}

// SurfaceTemperature converts the thermal band of a Level-2 scene to
// degrees Celsius in a band named LST, keeping the acquisition time.
func SurfaceTemperature(image earthengine.Image) earthengine.Image {
	return image.Select(ThermalBand).
		Multiply(STScale).
		Add(STOffset).
		Subtract(KelvinOffset).
		Rename(LSTBand).
		CopyProperties(image, TimeStartProp)
}

// CelsiusFromRaw is the local counterpart of SurfaceTemperature for a
// single stored value.
func CelsiusFromRaw(raw float64) float64 {
	return raw*STScale + STOffset - KelvinOffset
}
