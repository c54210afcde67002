package lst

import (
	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/earthengine"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Region is a lon/lat rectangle in degrees.
type Region struct {
	West  float64
	South float64
	East  float64
	North float64
}

// Isfahan is the default area of interest.
var Isfahan = Region{West: 51.5, South: 32.5, East: 52.0, North: 32.8}

// IsfahanCenter is where the map opens.
var IsfahanCenter = orb.Point{51.66, 32.65}

func (r Region) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{r.West, r.South},
		Max: orb.Point{r.East, r.North},
	}
}

func (r Region) Center() orb.Point {
	return r.Bound().Center()
}

// Geometry is the server-side rectangle shared by every query.
func (r Region) Geometry() earthengine.Geometry {
	return earthengine.Rectangle(r.West, r.South, r.East, r.North)
}

// Feature returns the outline as a GeoJSON feature named name.
func (r Region) Feature(name string) *geojson.Feature {
	f := geojson.NewFeature(r.Bound().ToPolygon())
	f.Properties["name"] = name
	return f
}
