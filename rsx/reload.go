package rsx

import "sort"

// ReloadResult is the outcome of hot reloading one invocation: the patched
// sub-templates, keyed by their sub-template index in the last full build.
type ReloadResult struct {
	Templates map[int]Template
}

// Reload diffs the template body from the last full build against its
// freshly parsed replacement and, when the edit is hot-patchable, returns
// the patched templates with the old dynamic slot ids carried forward.
//
// The returned templates re-order node and attribute paths so that every
// surviving slot id resolves to its position in the new shape. Matching is
// greedy: highest-scoring (old, new) pairs are paired first, ties broken by
// original slot order. Dynamic text and expression nodes (and dynamic
// attributes) left unmatched may clone an already-used compatible old slot
// and receive a fresh id appended after all old ids; nodes carrying nested
// bodies (components, loops, conditionals) can never be cloned, because
// there is no compiled template to back a second copy.
//
// Returns false when any new dynamic node or attribute has no compatible
// old counterpart: the whole invocation then requires a rebuild.
func Reload(old, new *Body, base string) (*ReloadResult, bool) {
	res := &ReloadResult{Templates: make(map[int]Template)}
	if !reloadBody(old, new, base, res) {
		return nil, false
	}
	return res, true
}

func reloadBody(old, new *Body, base string, res *ReloadResult) bool {
	attrSlots, ok := matchAttributes(old.DynamicAttributes(), new.DynamicAttributes())
	if !ok {
		return false
	}
	nodeSlots, ok := matchNodes(old.DynamicNodes(), new.DynamicNodes(), base, res)
	if !ok {
		return false
	}
	name := FormatName(base, old.Index)
	res.Templates[old.Index] = new.compile(name,
		func(i int) int { return nodeSlots[i] },
		func(i int) int { return attrSlots[i] })
	return true
}

// matchAttributes pairs new dynamic attributes with old slots. Attributes
// may be cloned: duplicating an element whose `src: "{url}"` already exists
// reuses the old slot's value for the copy.
func matchAttributes(old, new []Attribute) ([]int, bool) {
	scores := make([][]int, len(new))
	for n := range new {
		scores[n] = make([]int, len(old))
		for o := range old {
			scores[n][o] = ScoreAttribute(old[o], new[n])
		}
	}
	return greedyAssign(scores, len(old), func(n int) bool { return true })
}

// matchNodes pairs new dynamic nodes with old slots. A pairing of nodes
// carrying nested bodies is only viable when the nested bodies themselves
// hot reload; their sub-templates are merged into res once the pairing is
// chosen.
func matchNodes(old, new []Node, base string, res *ReloadResult) ([]int, bool) {
	scores := make([][]int, len(new))
	nested := make([][]*ReloadResult, len(new))
	for n := range new {
		scores[n] = make([]int, len(old))
		nested[n] = make([]*ReloadResult, len(old))
		for o := range old {
			score := ScoreNode(old[o], new[n])
			if score == 0 {
				continue
			}
			if hasNestedBody(new[n]) {
				scratch := &ReloadResult{Templates: make(map[int]Template)}
				if !reloadNested(old[o], new[n], base, scratch) {
					continue
				}
				nested[n][o] = scratch
			}
			scores[n][o] = score
		}
	}
	assign, ok := greedyAssign(scores, len(old), func(n int) bool {
		return !hasNestedBody(new[n])
	})
	if !ok {
		return nil, false
	}
	for n, o := range assign {
		if o < len(old) && nested[n][o] != nil {
			mergeTemplates(res, nested[n][o])
		}
	}
	return assign, true
}

func hasNestedBody(node Node) bool {
	switch node.Kind() {
	case KindComponent, KindForLoop, KindIfChain:
		return true
	}
	return false
}

// reloadNested recurses into the nested bodies of a candidate pairing.
func reloadNested(old, new Node, base string, res *ReloadResult) bool {
	switch o := old.(type) {
	case *Component:
		return reloadBody(o.Children, new.(*Component).Children, base, res)
	case *ForLoop:
		return reloadBody(o.Body, new.(*ForLoop).Body, base, res)
	case *IfChain:
		oldChain, newChain := o, new.(*IfChain)
		for {
			if oldChain.Cond != newChain.Cond {
				return false
			}
			if !reloadBody(oldChain.Then, newChain.Then, base, res) {
				return false
			}
			if (oldChain.Else == nil) != (newChain.Else == nil) {
				return false
			}
			if oldChain.Else != nil && !reloadBody(oldChain.Else, newChain.Else, base, res) {
				return false
			}
			if (oldChain.ElseIf == nil) != (newChain.ElseIf == nil) {
				// The chain cannot grow or shrink without a rebuild.
				return false
			}
			if oldChain.ElseIf == nil {
				return true
			}
			oldChain, newChain = oldChain.ElseIf, newChain.ElseIf
		}
	}
	return false
}

func mergeTemplates(dst, src *ReloadResult) {
	for idx, t := range src.Templates {
		if _, exists := dst.Templates[idx]; !exists {
			dst.Templates[idx] = t
		}
	}
}

// greedyAssign pairs each new item (row) with an old slot (column) by
// descending score, ties broken by original slot order. Unmatched new items
// that score against some already-consumed old slot receive fresh ids
// appended after all old ids, provided cloneable allows it.
func greedyAssign(scores [][]int, oldCount int, cloneable func(n int) bool) ([]int, bool) {
	type pair struct{ n, o, score int }
	var pairs []pair
	for n := range scores {
		for o, s := range scores[n] {
			if s > 0 {
				pairs = append(pairs, pair{n: n, o: o, score: s})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].score != pairs[j].score {
			return pairs[i].score > pairs[j].score
		}
		if pairs[i].o != pairs[j].o {
			return pairs[i].o < pairs[j].o
		}
		return pairs[i].n < pairs[j].n
	})

	assign := make([]int, len(scores))
	for i := range assign {
		assign[i] = -1
	}
	usedOld := make([]bool, oldCount)
	for _, p := range pairs {
		if assign[p.n] >= 0 || usedOld[p.o] {
			continue
		}
		assign[p.n] = p.o
		usedOld[p.o] = true
	}

	fresh := oldCount
	for n := range assign {
		if assign[n] >= 0 {
			continue
		}
		if !cloneable(n) || maxScore(scores[n]) == 0 {
			// Nothing in the last build can back this item.
			return nil, false
		}
		assign[n] = fresh
		fresh++
	}
	return assign, true
}

func maxScore(row []int) int {
	best := 0
	for _, s := range row {
		if s > best {
			best = s
		}
	}
	return best
}
