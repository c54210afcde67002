package earthengine

import "time"

// Object is a generic computed value: a number, string, list or dictionary
// living on the server.
type Object struct {
	node *Node
}

func (o Object) Node() *Node { return o.node }

// Constant wraps a JSON-encodable literal.
func Constant(v any) Object {
	return Object{node: constant(v)}
}

// List builds a server-side list from computed values.
func List(items ...Computed) Object {
	nodes := make([]*Node, 0, len(items))
	for _, item := range items {
		nodes = append(nodes, item.Node())
	}
	return Object{node: array(nodes...)}
}

// Dictionary builds a server-side dictionary from computed values.
func Dictionary(entries map[string]Computed) Object {
	nodes := make(map[string]*Node, len(entries))
	for k, v := range entries {
		nodes[k] = v.Node()
	}
	return Object{node: dictionary(nodes)}
}

// Date converts t into the service's millisecond epoch representation.
func Date(t time.Time) Object {
	return Object{node: invoke("Date", map[string]*Node{
		"value": constant(t.UTC().UnixMilli()),
	})}
}

// DateRange is the half-open interval [start, end).
func DateRange(start, end time.Time) Object {
	return Object{node: invoke("DateRange", map[string]*Node{
		"start": Date(start).node,
		"end":   Date(end).node,
	})}
}

// Geometry is a server-side geometry.
type Geometry struct {
	node *Node
}

func (g Geometry) Node() *Node { return g.node }

// Rectangle builds a planar rectangle from its west, south, east and north
// bounds in degrees.
func Rectangle(west, south, east, north float64) Geometry {
	return Geometry{node: invoke("GeometryConstructors.Rectangle", map[string]*Node{
		"coordinates": constant([]float64{west, south, east, north}),
		"geodesic":    constant(false),
	})}
}

// Filter is a server-side predicate over collection elements.
type Filter struct {
	node *Node
}

func (f Filter) Node() *Node { return f.node }

// Lt keeps elements whose property is strictly less than value.
func Lt(property string, value any) Filter {
	return Filter{node: invoke("Filter.lessThan", map[string]*Node{
		"leftField":  constant(property),
		"rightValue": constant(value),
	})}
}

// Bounds keeps elements whose footprint intersects g.
func Bounds(g Geometry) Filter {
	return Filter{node: invoke("Filter.intersects", map[string]*Node{
		"leftField":  constant(".all"),
		"rightValue": g.node,
	})}
}

// DateFilter keeps elements whose system:time_start falls in [start, end).
func DateFilter(start, end time.Time) Filter {
	return Filter{node: invoke("Filter.dateRangeContains", map[string]*Node{
		"leftValue":  DateRange(start, end).node,
		"rightField": constant("system:time_start"),
	})}
}

// Reducer aggregates values server side.
type Reducer struct {
	node *Node
}

func (r Reducer) Node() *Node { return r.node }

func MeanReducer() Reducer {
	return Reducer{node: invoke("Reducer.mean", map[string]*Node{})}
}

func MinMaxReducer() Reducer {
	return Reducer{node: invoke("Reducer.minMax", map[string]*Node{})}
}

// Combine merges two reducers that read the same inputs.
func (r Reducer) Combine(other Reducer) Reducer {
	return Reducer{node: invoke("Reducer.combine", map[string]*Node{
		"reducer1":     r.node,
		"reducer2":     other.node,
		"sharedInputs": constant(true),
	})}
}
