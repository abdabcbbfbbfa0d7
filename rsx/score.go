package rsx

import "math"

// ScoreMax is the sentinel similarity score for an unambiguous perfect
// match. Zero means the pair is incompatible and must never be matched.
const ScoreMax = math.MaxInt

// scoreNearMax marks "same dynamic segments, literal text changed": still a
// hot-patchable match, ranked just below a perfect one.
const scoreNearMax = math.MaxInt - 1

// ScoreNode returns the similarity between an old and a new dynamic node.
// Nodes of different kinds never match. Scores are not normalized; larger
// nodes produce larger scores.
func ScoreNode(old, new Node) int {
	if old.Kind() != new.Kind() {
		return 0
	}
	switch o := old.(type) {
	case *Text:
		return ScoreIfmt(o.Value, new.(*Text).Value)
	case *Expr:
		if o.Code == new.(*Expr).Code {
			return ScoreMax
		}
		return 0
	case *Component:
		return scoreComponent(o, new.(*Component))
	case *ForLoop:
		n := new.(*ForLoop)
		if o.Pattern != n.Pattern || o.Iterable != n.Iterable {
			return 0
		}
		return 1 + bodyShapeScore(o.Body, n.Body)
	case *IfChain:
		n := new.(*IfChain)
		if o.Cond != n.Cond {
			return 0
		}
		return 1 + bodyShapeScore(o.Then, n.Then)
	}
	// Elements are part of the static shape and never occupy a slot.
	return 0
}

// bodyShapeScore is a cheap heuristic nudging the matcher toward the
// candidate whose nested body has the same rough shape. Body similarity is
// never required for a positive match.
func bodyShapeScore(old, new *Body) int {
	score := 0
	if len(old.Roots) == len(new.Roots) {
		score++
	}
	if len(old.NodePaths) == len(new.NodePaths) {
		score++
	}
	if len(old.AttrPaths) == len(new.AttrPaths) {
		score++
	}
	return score
}

func scoreComponent(old, new *Component) int {
	if old.Name != new.Name || old.Generics != new.Generics {
		return 0
	}
	if len(old.Fields) != len(new.Fields) {
		return 0
	}
	oldFields := sortedFields(old.Fields)
	newFields := sortedFields(new.Fields)
	score := 1
	for i := range oldFields {
		switch s := ScoreAttribute(oldFields[i], newFields[i]); s {
		case 0:
			// One incompatible field sinks the whole component.
			return 0
		case ScoreMax:
			score += 3
		case scoreNearMax:
			score += 2
		default:
			score += s
		}
	}
	return score
}

func sortedFields(fields []Attribute) []Attribute {
	out := make([]Attribute, len(fields))
	copy(out, fields)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Name < out[j-1].Name; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// ScoreAttribute returns the similarity between an old and a new dynamic
// attribute (or component field).
func ScoreAttribute(old, new Attribute) int {
	if old.Name != new.Name {
		return 0
	}
	return scoreAttrValue(old.Value, new.Value)
}

func scoreAttrValue(old, new AttrValue) int {
	if old.Kind != new.Kind {
		// A literal kind change (int to float, string to expr, ...) has no
		// backing value of the right type in the running program.
		return 0
	}
	switch old.Kind {
	case AttrString:
		return ScoreIfmt(old.String, new.String)
	case AttrInt:
		if old.Int == new.Int {
			return ScoreMax
		}
		return 1
	case AttrFloat:
		if old.Float == new.Float {
			return ScoreMax
		}
		return 1
	case AttrBool:
		if old.Bool == new.Bool {
			return ScoreMax
		}
		return 1
	case AttrExpr:
		if old.Expr == new.Expr {
			return ScoreMax
		}
		return 0
	}
	return 0
}

// ScoreIfmt scores two formatted strings. Every dynamic segment of the new
// string must already exist in the old one (the running program has no
// backing value for a brand-new interpolation); removing segments is fine.
func ScoreIfmt(old, new Ifmt) int {
	if old.Source == new.Source {
		return ScoreMax
	}
	score := 1
	freq := old.segmentFrequency()
	for _, seg := range new.DynamicSegments() {
		remaining, ok := freq[seg]
		if !ok {
			return 0
		}
		if remaining == 1 {
			delete(freq, seg)
		} else {
			freq[seg] = remaining - 1
		}
		score++
	}
	// All old segments consumed: a near-perfect match, only literal text
	// differs.
	if len(freq) == 0 {
		return scoreNearMax
	}
	return score
}
