package earthengine

import "time"

// mappingVar names the element argument of a mapped function. Mapped
// functions are never nested, so a single name is enough.
const mappingVar = "_MAPPING_VAR_0_0"

// ImageCollection is a server-side ordered set of images.
type ImageCollection struct {
	node *Node
}

func (c ImageCollection) Node() *Node { return c.node }

// LoadImageCollection references a catalog collection by asset id.
func LoadImageCollection(id string) ImageCollection {
	return ImageCollection{node: invoke("ImageCollection.load", map[string]*Node{
		"id": constant(id),
	})}
}

// FromImages builds a collection from images, preserving their order.
func FromImages(images ...Image) ImageCollection {
	nodes := make([]*Node, 0, len(images))
	for _, img := range images {
		nodes = append(nodes, img.node)
	}
	return ImageCollection{node: invoke("ImageCollection.fromImages", map[string]*Node{
		"images": array(nodes...),
	})}
}

func (c ImageCollection) Merge(other ImageCollection) ImageCollection {
	return ImageCollection{node: invoke("Collection.merge", map[string]*Node{
		"collection1": c.node,
		"collection2": other.node,
	})}
}

func (c ImageCollection) Filter(f Filter) ImageCollection {
	return ImageCollection{node: invoke("Collection.filter", map[string]*Node{
		"collection": c.node,
		"filter":     f.node,
	})}
}

func (c ImageCollection) FilterBounds(g Geometry) ImageCollection {
	return c.Filter(Bounds(g))
}

func (c ImageCollection) FilterDate(start, end time.Time) ImageCollection {
	return c.Filter(DateFilter(start, end))
}

// Map applies fn to every image of the collection on the server.
func (c ImageCollection) Map(fn func(Image) Image) ImageCollection {
	body := fn(Image{node: argument(mappingVar)})
	return ImageCollection{node: invoke("Collection.map", map[string]*Node{
		"collection":    c.node,
		"baseAlgorithm": function([]string{mappingVar}, body.node),
	})}
}

// Max reduces the collection to its per-pixel maximum.
func (c ImageCollection) Max() Image {
	return Image{node: invoke("reduce.max", map[string]*Node{
		"collection": c.node,
	})}
}

// Mosaic composites the collection, last image on top.
func (c ImageCollection) Mosaic() Image {
	return Image{node: invoke("ImageCollection.mosaic", map[string]*Node{
		"collection": c.node,
	})}
}

// Size counts the elements of the collection.
func (c ImageCollection) Size() Object {
	return Object{node: invoke("Collection.size", map[string]*Node{
		"collection": c.node,
	})}
}

// AggregateArray lists the values of property across the collection in
// collection order.
func (c ImageCollection) AggregateArray(property string) Object {
	return Object{node: invoke("AggregateFeatureCollection.array", map[string]*Node{
		"collection": c.node,
		"property":   constant(property),
	})}
}
