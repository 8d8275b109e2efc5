package expr

// Walk visits the tree in pre-order. Returning false from fn skips the
// node's children.
func Walk(root Group, fn func(Path, Node) bool) {
	walk(root, nil, fn)
}

func walk(n Node, p Path, fn func(Path, Node) bool) {
	if !fn(p, n) {
		return
	}
	g, ok := n.(Group)
	if !ok {
		return
	}
	for i, ch := range g.Children {
		walk(ch, p.Child(i), fn)
	}
}

// Conditions returns every condition in the tree, left to right.
func Conditions(root Group) []Condition {
	var out []Condition
	Walk(root, func(_ Path, n Node) bool {
		if c, ok := n.(Condition); ok {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Depth returns the maximum nesting depth; a group with only conditions has depth 1.
func Depth(root Group) int {
	depth := 0
	Walk(root, func(p Path, n Node) bool {
		if _, ok := n.(Group); ok && len(p)+1 > depth {
			depth = len(p) + 1
		}
		return true
	})
	return depth
}
