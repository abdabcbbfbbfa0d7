package rsx

import (
	"fmt"
	"sort"
)

// TemplateNode kinds used in the wire encoding.
const (
	TemplateNodeText    = "text"
	TemplateNodeElement = "element"
	TemplateNodeDynamic = "dynamic"
)

// TemplateAttribute is one attribute of a static element: either a baked
// literal or a reference to a dynamic attribute slot.
type TemplateAttribute struct {
	Kind  string `json:"kind"` // "static" or "dynamic"
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
	ID    int    `json:"id,omitempty"`
}

// TemplateNode is one node of the compiled static shape, tagged by kind.
type TemplateNode struct {
	Kind       string              `json:"kind"`
	Text       string              `json:"text,omitempty"`
	Tag        string              `json:"tag,omitempty"`
	Attributes []TemplateAttribute `json:"attributes,omitempty"`
	Children   []TemplateNode      `json:"children,omitempty"`
	ID         int                 `json:"id,omitempty"`
}

// Template is the compiled, renderer-agnostic description of one template
// body: the static tree shape plus the locations of its dynamic slots.
// Once emitted, a Template is an immutable snapshot.
type Template struct {
	Name      string         `json:"name"`
	Roots     []TemplateNode `json:"roots"`
	NodePaths [][]uint8      `json:"node_paths"`
	AttrPaths []AttrPath     `json:"attr_paths"`
}

// FormatName derives the stable identity of the idx-th sub-template of the
// invocation identified by base (a "path:line:col" location string).
func FormatName(base string, idx int) string {
	return fmt.Sprintf("%s:%d", base, idx)
}

// Compile builds the canonical Template for a body: slot ids follow builder
// order and are contiguous from zero.
func (b *Body) Compile(name string) Template {
	identity := func(i int) int { return i }
	return b.compile(name, identity, identity)
}

// compile builds a Template with remapped slot ids. nodeSlot and attrSlot
// map builder-order indices to emitted slot ids; path lists are emitted in
// ascending slot-id order so the runtime can bind each surviving slot to
// its new location.
func (b *Body) compile(name string, nodeSlot, attrSlot func(int) int) Template {
	t := Template{Name: name}
	st := &compileState{nodeSlot: nodeSlot, attrSlot: attrSlot}
	t.Roots = st.compileNodes(b.Roots)

	type slotted struct {
		slot int
		path []uint8
		attr uint8
	}
	nodes := make([]slotted, len(b.NodePaths))
	for i, path := range b.NodePaths {
		nodes[i] = slotted{slot: nodeSlot(i), path: path}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].slot < nodes[j].slot })
	for _, s := range nodes {
		t.NodePaths = append(t.NodePaths, s.path)
	}

	attrs := make([]slotted, len(b.AttrPaths))
	for i, ap := range b.AttrPaths {
		attrs[i] = slotted{slot: attrSlot(i), path: ap.Path, attr: ap.Index}
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].slot < attrs[j].slot })
	for _, s := range attrs {
		t.AttrPaths = append(t.AttrPaths, AttrPath{Path: s.path, Index: s.attr})
	}
	return t
}

type compileState struct {
	nodeSlot func(int) int
	attrSlot func(int) int
	nextNode int
	nextAttr int
}

func (st *compileState) compileNodes(nodes []Node) []TemplateNode {
	var out []TemplateNode
	for _, node := range nodes {
		out = append(out, st.compileNode(node))
	}
	return out
}

func (st *compileState) compileNode(node Node) TemplateNode {
	switch n := node.(type) {
	case *Element:
		el := TemplateNode{Kind: TemplateNodeElement, Tag: n.Tag}
		for _, attr := range n.Attributes {
			if attr.Value.IsStatic() {
				el.Attributes = append(el.Attributes, TemplateAttribute{
					Kind:  "static",
					Name:  attr.Name,
					Value: attr.Value.StaticValue(),
				})
				continue
			}
			el.Attributes = append(el.Attributes, TemplateAttribute{
				Kind: "dynamic",
				Name: attr.Name,
				ID:   st.attrSlot(st.nextAttr),
			})
			st.nextAttr++
		}
		el.Children = st.compileNodes(n.Children)
		return el
	case *Text:
		if n.Value.IsStatic() {
			return TemplateNode{Kind: TemplateNodeText, Text: n.Value.Static()}
		}
	}
	id := st.nodeSlot(st.nextNode)
	st.nextNode++
	return TemplateNode{Kind: TemplateNodeDynamic, ID: id}
}
