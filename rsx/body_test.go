package rsx

import (
	"reflect"
	"testing"
)

func TestSlotAssignment(t *testing.T) {
	// One dynamic attribute, one static attribute, dynamic text nested under
	// a static element, and a raw expression at the root.
	body := mustParse(t, `
		div {
			class: "card",
			title: { tooltip },
			span { "{count}" }
		}
		{ footer() }
	`)
	wantNodes := [][]uint8{
		{0, 0, 0}, // "{count}" under div > span
		{1},       // { footer() }
	}
	if !reflect.DeepEqual(body.NodePaths, wantNodes) {
		t.Errorf("NodePaths = %v, want %v", body.NodePaths, wantNodes)
	}
	wantAttrs := []AttrPath{{Path: []uint8{0}, Index: 1}}
	if !reflect.DeepEqual(body.AttrPaths, wantAttrs) {
		t.Errorf("AttrPaths = %v, want %v", body.AttrPaths, wantAttrs)
	}
}

// Static text and static attributes never consume slots, so inserting them
// must not shift existing assignments.
func TestStaticContentConsumesNoSlots(t *testing.T) {
	before := mustParse(t, `div { "{a}" "{b}" }`)
	after := mustParse(t, `div { "static" "{a}" class: "x", "middle" "{b}" }`)
	if len(before.NodePaths) != 2 || len(after.NodePaths) != 2 {
		t.Fatalf("dynamic slot counts: %d and %d, want 2 and 2",
			len(before.NodePaths), len(after.NodePaths))
	}
	if len(after.AttrPaths) != 0 {
		t.Errorf("static attribute consumed an attribute slot")
	}
}

// Parsing the same source twice yields identical assignments.
func TestSlotAssignmentDeterministic(t *testing.T) {
	src := `
		div {
			for item in items {
				li { "{item}" }
			}
			if ready {
				span { "{status}" }
			}
		}
	`
	a := mustParse(t, src)
	b := mustParse(t, src)
	if !reflect.DeepEqual(a.NodePaths, b.NodePaths) {
		t.Errorf("NodePaths differ between identical parses")
	}
	if !reflect.DeepEqual(a.AttrPaths, b.AttrPaths) {
		t.Errorf("AttrPaths differ between identical parses")
	}
}

func TestBodyIndices(t *testing.T) {
	body := mustParse(t, `
		div {
			for item in items {
				"{item}"
			}
			if ready {
				"yes {x}"
			} else {
				"no {y}"
			}
			Card {
				"{inner}"
			}
		}
	`)
	nested := body.NestedBodies()
	// Root, loop body, if-then, if-else, component children.
	if len(nested) != 5 {
		t.Fatalf("got %d nested bodies, want 5", len(nested))
	}
	for idx, sub := range nested {
		if sub.Index != idx {
			t.Errorf("body at key %d carries index %d", idx, sub.Index)
		}
	}
	if nested[0] != body {
		t.Errorf("index 0 is not the root body")
	}
	// Discovery order follows dynamic slot order.
	loop := body.DynamicNodes()[0].(*ForLoop)
	if loop.Body.Index != 1 {
		t.Errorf("loop body index = %d, want 1", loop.Body.Index)
	}
	chain := body.DynamicNodes()[1].(*IfChain)
	if chain.Then.Index != 2 || chain.Else.Index != 3 {
		t.Errorf("if-chain indices = %d/%d, want 2/3", chain.Then.Index, chain.Else.Index)
	}
}

func TestDynamicAccessors(t *testing.T) {
	body := mustParse(t, `
		a {
			href: { link },
			"{label}"
		}
	`)
	nodes := body.DynamicNodes()
	if len(nodes) != 1 {
		t.Fatalf("got %d dynamic nodes, want 1", len(nodes))
	}
	if _, ok := nodes[0].(*Text); !ok {
		t.Errorf("dynamic node is %T, want *Text", nodes[0])
	}
	attrs := body.DynamicAttributes()
	if len(attrs) != 1 || attrs[0].Name != "href" {
		t.Errorf("dynamic attributes = %+v", attrs)
	}
}

func TestCompile(t *testing.T) {
	body := mustParse(t, `
		div {
			class: "card",
			title: { tooltip },
			"greeting {name}"
			span { "fixed" }
		}
	`)
	tmpl := body.Compile("views.go:3:10:0")
	if tmpl.Name != "views.go:3:10:0" {
		t.Errorf("name = %q", tmpl.Name)
	}
	if len(tmpl.Roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(tmpl.Roots))
	}
	div := tmpl.Roots[0]
	if div.Kind != TemplateNodeElement || div.Tag != "div" {
		t.Fatalf("root = %+v", div)
	}
	if len(div.Attributes) != 2 {
		t.Fatalf("got %d attributes, want 2", len(div.Attributes))
	}
	if div.Attributes[0].Kind != "static" || div.Attributes[0].Value != "card" {
		t.Errorf("static attribute = %+v", div.Attributes[0])
	}
	if div.Attributes[1].Kind != "dynamic" || div.Attributes[1].ID != 0 {
		t.Errorf("dynamic attribute = %+v", div.Attributes[1])
	}
	if len(div.Children) != 2 {
		t.Fatalf("got %d children, want 2", len(div.Children))
	}
	if div.Children[0].Kind != TemplateNodeDynamic || div.Children[0].ID != 0 {
		t.Errorf("dynamic child = %+v", div.Children[0])
	}
	if div.Children[1].Kind != TemplateNodeElement {
		t.Errorf("static span compiled as %+v", div.Children[1])
	}
	span := div.Children[1]
	if len(span.Children) != 1 || span.Children[0].Kind != TemplateNodeText || span.Children[0].Text != "fixed" {
		t.Errorf("static text = %+v", span.Children)
	}
}

// Every dynamic occurrence in the compiled shape has exactly one path entry.
func TestCompileSlotCounts(t *testing.T) {
	sources := []string{
		`div { "{a}" }`,
		`div { class: "x", title: { tip }, "{a}" span { "{b}" } }`,
		`div { for item in items { "{item}" } { raw() } }`,
		``,
	}
	for _, src := range sources {
		body := mustParse(t, src)
		tmpl := body.Compile("t:0")

		var dynNodes, dynAttrs int
		var visit func(nodes []TemplateNode)
		visit = func(nodes []TemplateNode) {
			for _, n := range nodes {
				if n.Kind == TemplateNodeDynamic {
					dynNodes++
				}
				for _, a := range n.Attributes {
					if a.Kind == "dynamic" {
						dynAttrs++
					}
				}
				visit(n.Children)
			}
		}
		visit(tmpl.Roots)

		if dynNodes != len(tmpl.NodePaths) {
			t.Errorf("%q: %d dynamic nodes vs %d node paths", src, dynNodes, len(tmpl.NodePaths))
		}
		if dynAttrs != len(tmpl.AttrPaths) {
			t.Errorf("%q: %d dynamic attributes vs %d attr paths", src, dynAttrs, len(tmpl.AttrPaths))
		}
	}
}

func TestFormatName(t *testing.T) {
	if got := FormatName("app/views.go:12:9", 2); got != "app/views.go:12:9:2" {
		t.Errorf("FormatName = %q", got)
	}
}
