package rsx

// NodeKind tags the closed union of template body nodes. The scorer and the
// builder both switch exhaustively over these.
type NodeKind string

const (
	KindElement   NodeKind = "element"
	KindText      NodeKind = "text"
	KindExpr      NodeKind = "expr"
	KindComponent NodeKind = "component"
	KindForLoop   NodeKind = "for"
	KindIfChain   NodeKind = "if"
)

// Node is one parsed node of a template body.
type Node interface {
	Kind() NodeKind
}

// Element is a static element with attributes and children. The element
// itself never occupies a dynamic slot; its dynamic attributes and dynamic
// children do.
type Element struct {
	Tag        string
	Attributes []Attribute
	Children   []Node
}

func (*Element) Kind() NodeKind { return KindElement }

// Text is a text node. If its value carries interpolated segments it
// occupies a dynamic slot, otherwise it is baked into the static shape.
type Text struct {
	Value Ifmt
}

func (*Text) Kind() NodeKind { return KindText }

// Expr is a raw expression in node position, always dynamic.
type Expr struct {
	Code string // canonicalized expression text
}

func (*Expr) Kind() NodeKind { return KindExpr }

// Component is a nested component invocation. Its children form a nested
// template body.
type Component struct {
	Name     string
	Generics string // bracketed generic argument text, "" if absent
	Fields   []Attribute
	Children *Body
}

func (*Component) Kind() NodeKind { return KindComponent }

// ForLoop is a loop node; its body is a nested template body.
type ForLoop struct {
	Pattern  string
	Iterable string
	Body     *Body
}

func (*ForLoop) Kind() NodeKind { return KindForLoop }

// IfChain is one branch of a conditional chain. ElseIf and Else are
// mutually exclusive; both nil means the chain ends after Then.
type IfChain struct {
	Cond   string
	Then   *Body
	ElseIf *IfChain
	Else   *Body
}

func (*IfChain) Kind() NodeKind { return KindIfChain }

// AttrKind tags the value variant of an attribute.
type AttrKind string

const (
	AttrString AttrKind = "string"
	AttrInt    AttrKind = "int"
	AttrFloat  AttrKind = "float"
	AttrBool   AttrKind = "bool"
	AttrExpr   AttrKind = "expr"
)

// Attribute is a `name: value` entry on an element or a component field.
type Attribute struct {
	Name  string
	Value AttrValue
}

// AttrValue is the closed union of attribute values. Exactly the field
// matching Kind is meaningful.
type AttrValue struct {
	Kind   AttrKind
	String Ifmt
	Int    int64
	Float  float64
	Bool   bool
	Expr   string
}

// IsStatic reports whether the value is a compile-time constant that can be
// baked into the static template shape. Only fully-literal strings qualify;
// numeric and bool literals stay dynamic so they remain hot-patchable.
func (v AttrValue) IsStatic() bool {
	return v.Kind == AttrString && v.String.IsStatic()
}

// StaticValue renders a static attribute value as its string form. Only
// valid when IsStatic is true.
func (v AttrValue) StaticValue() string {
	return v.String.Static()
}

// equalValue reports exact equality of two attribute values, used by the
// scorer for the "identical token stream" perfect-match rule.
func (v AttrValue) equalValue(o AttrValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case AttrString:
		return v.String.Source == o.String.Source
	case AttrInt:
		return v.Int == o.Int
	case AttrFloat:
		return v.Float == o.Float
	case AttrBool:
		return v.Bool == o.Bool
	case AttrExpr:
		return v.Expr == o.Expr
	}
	return false
}
