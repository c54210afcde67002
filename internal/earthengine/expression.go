package earthengine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	eeapi "google.golang.org/api/earthengine/v1"
)

type nodeKind int

const (
	kindConstant nodeKind = iota
	kindInvocation
	kindArgument
	kindFunction
	kindArray
	kindDictionary
)

// Node is one vertex of a lazily evaluated server-side computation. Nodes are
// immutable once built and can be shared between graphs.
type Node struct {
	kind     nodeKind
	constant any
	name     string // function name or argument name
	args     map[string]*Node
	items    []*Node
	entries  map[string]*Node
	params   []string
	body     *Node
}

// Computed is anything backed by an expression node.
type Computed interface {
	Node() *Node
}

func constant(v any) *Node {
	return &Node{kind: kindConstant, constant: v}
}

func invoke(name string, args map[string]*Node) *Node {
	return &Node{kind: kindInvocation, name: name, args: args}
}

func argument(name string) *Node {
	return &Node{kind: kindArgument, name: name}
}

func function(params []string, body *Node) *Node {
	return &Node{kind: kindFunction, params: params, body: body}
}

func array(items ...*Node) *Node {
	return &Node{kind: kindArray, items: items}
}

func dictionary(entries map[string]*Node) *Node {
	return &Node{kind: kindDictionary, entries: entries}
}

// FunctionName returns the algorithm invoked by n, or "" when n is not an
// invocation.
func (n *Node) FunctionName() string {
	if n.kind != kindInvocation {
		return ""
	}
	return n.name
}

// Arg returns the named argument of an invocation.
func (n *Node) Arg(name string) *Node {
	if n.kind != kindInvocation {
		return nil
	}
	return n.args[name]
}

// Args returns the arguments of an invocation.
func (n *Node) Args() map[string]*Node {
	return n.args
}

// Constant returns the literal held by a constant node.
func (n *Node) Constant() (any, bool) {
	if n.kind != kindConstant {
		return nil, false
	}
	return n.constant, true
}

// Items returns the elements of an array node.
func (n *Node) Items() []*Node {
	return n.items
}

// Body returns the body of a function definition node.
func (n *Node) Body() *Node {
	return n.body
}

// Serialize flattens the graph rooted at c into an Expression. Every
// invocation is stored once in Values; identical sub-graphs share one entry.
func Serialize(c Computed) (*eeapi.Expression, error) {
	enc := &encoder{
		values: map[string]eeapi.ValueNode{},
		seen:   map[string]string{},
	}
	root, err := enc.store(c.Node())
	if err != nil {
		return nil, err
	}
	return &eeapi.Expression{Result: root, Values: enc.values}, nil
}

type encoder struct {
	values map[string]eeapi.ValueNode
	seen   map[string]string
}

// store encodes n and records it in values, returning its key.
func (e *encoder) store(n *Node) (string, error) {
	v, err := e.encode(n)
	if err != nil {
		return "", err
	}
	if v.ValueReference != "" {
		return v.ValueReference, nil
	}
	return e.intern(v)
}

func (e *encoder) intern(v eeapi.ValueNode) (string, error) {
	canonical, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode value node: %w", err)
	}
	if key, ok := e.seen[string(canonical)]; ok {
		return key, nil
	}
	key := strconv.Itoa(len(e.values))
	e.values[key] = v
	e.seen[string(canonical)] = key
	return key, nil
}

func (e *encoder) encode(n *Node) (eeapi.ValueNode, error) {
	if n == nil {
		return eeapi.ValueNode{NullValue: "NULL_VALUE"}, nil
	}
	switch n.kind {
	case kindConstant:
		if n.constant == nil {
			return eeapi.ValueNode{NullValue: "NULL_VALUE"}, nil
		}
		if _, err := json.Marshal(n.constant); err != nil {
			return eeapi.ValueNode{}, fmt.Errorf("failed to encode constant %v: %w", n.constant, err)
		}
		return eeapi.ValueNode{ConstantValue: n.constant}, nil
	case kindArgument:
		return eeapi.ValueNode{ArgumentReference: n.name}, nil
	case kindInvocation:
		args := make(map[string]eeapi.ValueNode, len(n.args))
		for _, name := range sortedKeys(n.args) {
			v, err := e.encode(n.args[name])
			if err != nil {
				return eeapi.ValueNode{}, err
			}
			args[name] = v
		}
		key, err := e.intern(eeapi.ValueNode{FunctionInvocationValue: &eeapi.FunctionInvocation{
			FunctionName: n.name,
			Arguments:    args,
		}})
		if err != nil {
			return eeapi.ValueNode{}, err
		}
		return eeapi.ValueNode{ValueReference: key}, nil
	case kindFunction:
		body, err := e.store(n.body)
		if err != nil {
			return eeapi.ValueNode{}, err
		}
		return eeapi.ValueNode{FunctionDefinitionValue: &eeapi.FunctionDefinition{
			ArgumentNames: n.params,
			Body:          body,
		}}, nil
	case kindArray:
		if literal, ok := literalItems(n.items); ok {
			return eeapi.ValueNode{ConstantValue: literal}, nil
		}
		values := make([]*eeapi.ValueNode, 0, len(n.items))
		for _, item := range n.items {
			v, err := e.encode(item)
			if err != nil {
				return eeapi.ValueNode{}, err
			}
			values = append(values, &v)
		}
		return eeapi.ValueNode{ArrayValue: &eeapi.ArrayValue{Values: values}}, nil
	case kindDictionary:
		values := make(map[string]eeapi.ValueNode, len(n.entries))
		for _, name := range sortedKeys(n.entries) {
			v, err := e.encode(n.entries[name])
			if err != nil {
				return eeapi.ValueNode{}, err
			}
			values[name] = v
		}
		return eeapi.ValueNode{DictionaryValue: &eeapi.DictionaryValue{Values: values}}, nil
	}
	return eeapi.ValueNode{}, fmt.Errorf("unknown node kind %d", n.kind)
}

// literalItems reports whether every item is a non-null constant and
// returns them.
func literalItems(items []*Node) ([]any, bool) {
	literal := make([]any, 0, len(items))
	for _, item := range items {
		if item == nil || item.kind != kindConstant || item.constant == nil {
			return nil, false
		}
		literal = append(literal, item.constant)
	}
	return literal, true
}

func sortedKeys(m map[string]*Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
