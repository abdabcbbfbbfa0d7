package rsx

// AttrPath locates a dynamic attribute: the index path of its element plus
// the attribute's offset within that element's attribute list.
type AttrPath struct {
	Path  []uint8 `json:"path"`
	Index uint8   `json:"index"`
}

// Body is a set of nodes in a template position: the root of an invocation,
// the children of a component, or the body of a loop or conditional branch.
//
// Slot ids are implicit: the i-th entry of NodePaths belongs to dynamic
// node slot i, assigned by a single depth-first, left-to-right traversal.
// AttrPaths works the same way for dynamic attributes.
type Body struct {
	Roots     []Node
	NodePaths [][]uint8
	AttrPaths []AttrPath

	// Index is the sub-template index of this body within its invocation,
	// assigned in discovery order (0 is the invocation root).
	Index int
}

// NewBody builds a body from parsed nodes, assigning dynamic slot paths.
// Calling it twice on structurally identical input yields identical
// assignments.
func NewBody(nodes []Node) *Body {
	b := &Body{Roots: nodes}
	b.assignPaths(nodes, nil)
	return b
}

func (b *Body) assignPaths(nodes []Node, path []uint8) {
	for i, node := range nodes {
		p := appendPath(path, uint8(i))
		switch n := node.(type) {
		case *Element:
			for ai, attr := range n.Attributes {
				if !attr.Value.IsStatic() {
					b.AttrPaths = append(b.AttrPaths, AttrPath{Path: p, Index: uint8(ai)})
				}
			}
			b.assignPaths(n.Children, p)
		case *Text:
			if !n.Value.IsStatic() {
				b.NodePaths = append(b.NodePaths, p)
			}
		default:
			b.NodePaths = append(b.NodePaths, p)
		}
	}
}

func appendPath(path []uint8, idx uint8) []uint8 {
	out := make([]uint8, len(path)+1)
	copy(out, path)
	out[len(path)] = idx
	return out
}

// NodeAt resolves an index path to its node.
func (b *Body) NodeAt(path []uint8) Node {
	if len(path) == 0 {
		return nil
	}
	node := b.Roots[path[0]]
	for _, idx := range path[1:] {
		el, ok := node.(*Element)
		if !ok {
			return nil
		}
		node = el.Children[idx]
	}
	return node
}

// DynamicNodes returns the dynamic nodes in slot order.
func (b *Body) DynamicNodes() []Node {
	out := make([]Node, len(b.NodePaths))
	for i, path := range b.NodePaths {
		out[i] = b.NodeAt(path)
	}
	return out
}

// DynamicAttributes returns the dynamic attributes in slot order.
func (b *Body) DynamicAttributes() []Attribute {
	out := make([]Attribute, len(b.AttrPaths))
	for i, ap := range b.AttrPaths {
		el := b.NodeAt(ap.Path).(*Element)
		out[i] = el.Attributes[ap.Index]
	}
	return out
}

// IsEmpty reports whether the body has no root nodes at all.
func (b *Body) IsEmpty() bool {
	return len(b.Roots) == 0
}

// assignBodyIndices numbers every nested body of an invocation in
// depth-first slot order, starting with the root at 0. Sub-template names
// derive from these indices, so the numbering must be deterministic.
func assignBodyIndices(root *Body) {
	next := 0
	var visit func(*Body)
	visit = func(b *Body) {
		b.Index = next
		next++
		for _, node := range b.DynamicNodes() {
			switch n := node.(type) {
			case *Component:
				visit(n.Children)
			case *ForLoop:
				visit(n.Body)
			case *IfChain:
				for chain := n; chain != nil; chain = chain.ElseIf {
					visit(chain.Then)
					if chain.Else != nil {
						visit(chain.Else)
					}
				}
			}
		}
	}
	visit(root)
}

// NestedBodies returns this body's directly and transitively nested bodies,
// keyed by their sub-template index, including the body itself.
func (b *Body) NestedBodies() map[int]*Body {
	out := make(map[int]*Body)
	var visit func(*Body)
	visit = func(body *Body) {
		out[body.Index] = body
		for _, node := range body.DynamicNodes() {
			switch n := node.(type) {
			case *Component:
				visit(n.Children)
			case *ForLoop:
				visit(n.Body)
			case *IfChain:
				for chain := n; chain != nil; chain = chain.ElseIf {
					visit(chain.Then)
					if chain.Else != nil {
						visit(chain.Else)
					}
				}
			}
		}
	}
	visit(b)
	return out
}
