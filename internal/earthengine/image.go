package earthengine

// Image is a server-side raster handle.
type Image struct {
	node *Node
}

func (i Image) Node() *Node { return i.node }

// ImageConstant is an image with value v in every pixel.
func ImageConstant(v float64) Image {
	return Image{node: invoke("Image.constant", map[string]*Node{
		"value": constant(v),
	})}
}

// Select keeps the given bands.
func (i Image) Select(bands ...string) Image {
	return Image{node: invoke("Image.select", map[string]*Node{
		"input":         i.node,
		"bandSelectors": constant(bands),
	})}
}

func (i Image) Multiply(v float64) Image {
	return i.binary("Image.multiply", v)
}

func (i Image) Add(v float64) Image {
	return i.binary("Image.add", v)
}

func (i Image) Subtract(v float64) Image {
	return i.binary("Image.subtract", v)
}

func (i Image) binary(name string, v float64) Image {
	return Image{node: invoke(name, map[string]*Node{
		"image1": i.node,
		"image2": ImageConstant(v).node,
	})}
}

// Rename sets the band names.
func (i Image) Rename(names ...string) Image {
	return Image{node: invoke("Image.rename", map[string]*Node{
		"input": i.node,
		"names": constant(names),
	})}
}

// CopyProperties copies the listed properties of source onto i.
func (i Image) CopyProperties(source Image, properties ...string) Image {
	return Image{node: invoke("Element.copyProperties", map[string]*Node{
		"destination": i.node,
		"source":      source.node,
		"properties":  constant(properties),
	})}
}

// Clip masks i outside of g.
func (i Image) Clip(g Geometry) Image {
	return Image{node: invoke("Image.clip", map[string]*Node{
		"input":    i.node,
		"geometry": g.node,
	})}
}

// Set attaches a metadata property.
func (i Image) Set(key string, value any) Image {
	return Image{node: invoke("Element.set", map[string]*Node{
		"object": i.node,
		"key":    constant(key),
		"value":  constant(value),
	})}
}

// ClipToBoundsAndScale clips to g and resamples to the given pixel size,
// as needed by thumbnails.
func (i Image) ClipToBoundsAndScale(g Geometry, width, height int) Image {
	return Image{node: invoke("Image.clipToBoundsAndScale", map[string]*Node{
		"input":    i.node,
		"geometry": g.node,
		"width":    constant(width),
		"height":   constant(height),
	})}
}

// ReduceRegion applies reducer over the pixels of g at the given scale in
// meters and yields a dictionary keyed by <band>_<statistic>.
func (i Image) ReduceRegion(reducer Reducer, g Geometry, scale float64) Object {
	return Object{node: invoke("Image.reduceRegion", map[string]*Node{
		"image":     i.node,
		"reducer":   reducer.node,
		"geometry":  g.node,
		"scale":     constant(scale),
		"maxPixels": constant(1e9),
	})}
}
