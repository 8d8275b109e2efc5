package expr

import (
	"errors"
	"fmt"
	"slices"
)

// ErrBadPath is returned when a path does not address a node of the tree.
var ErrBadPath = errors.New("path does not address a node")

// Path locates a node by child indices from the root. The empty path is the
// root itself.
type Path []int

// Parent returns the path of the enclosing group.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return slices.Clone(p[:len(p)-1])
}

// Child returns the path of the i-th child of the node at p.
func (p Path) Child(i int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, i)
}

func (p Path) String() string {
	return fmt.Sprint([]int(p))
}

// At returns the node at p.
func At(root Group, p Path) (Node, bool) {
	var n Node = root
	for _, i := range p {
		g, ok := n.(Group)
		if !ok || i < 0 || i >= len(g.Children) {
			return nil, false
		}
		n = g.Children[i]
	}
	return n, true
}

// Update rebuilds every group from the root down to p, replacing the node at
// p with fn's result. Siblings are shared with the old tree; no slice of the
// old tree is written.
func Update(root Group, p Path, fn func(Node) (Node, error)) (Group, error) {
	n, err := update(root, p, fn)
	if err != nil {
		return Group{}, err
	}
	g, ok := n.(Group)
	if !ok {
		return Group{}, fmt.Errorf("%w: root must remain a group", ErrBadPath)
	}
	return g, nil
}

func update(n Node, p Path, fn func(Node) (Node, error)) (Node, error) {
	if len(p) == 0 {
		return fn(n)
	}
	g, ok := n.(Group)
	if !ok {
		return nil, fmt.Errorf("%w: descends into a condition", ErrBadPath)
	}
	i := p[0]
	if i < 0 || i >= len(g.Children) {
		return nil, fmt.Errorf("%w: index %d out of range [0,%d)", ErrBadPath, i, len(g.Children))
	}
	child, err := update(g.Children[i], p[1:], fn)
	if err != nil {
		return nil, err
	}
	g.Children = slices.Clone(g.Children)
	g.Children[i] = child
	return g, nil
}

// Replace swaps the node at p for n.
func Replace(root Group, p Path, n Node) (Group, error) {
	return Update(root, p, func(Node) (Node, error) { return n, nil })
}

// Insert places n at index i among the children of the group at parent.
// i == len(children) appends.
func Insert(root Group, parent Path, i int, n Node) (Group, error) {
	return Update(root, parent, func(cur Node) (Node, error) {
		g, ok := cur.(Group)
		if !ok {
			return nil, fmt.Errorf("%w: insert target is not a group", ErrBadPath)
		}
		if i < 0 || i > len(g.Children) {
			return nil, fmt.Errorf("%w: insert index %d out of range [0,%d]", ErrBadPath, i, len(g.Children))
		}
		g.Children = slices.Insert(slices.Clone(g.Children), i, n)
		return g, nil
	})
}

// Append adds n as the last child of the group at parent.
func Append(root Group, parent Path, n Node) (Group, error) {
	return Update(root, parent, func(cur Node) (Node, error) {
		g, ok := cur.(Group)
		if !ok {
			return nil, fmt.Errorf("%w: append target is not a group", ErrBadPath)
		}
		children := make([]Node, len(g.Children), len(g.Children)+1)
		copy(children, g.Children)
		g.Children = append(children, n)
		return g, nil
	})
}

// Remove deletes the node at p. The root cannot be removed.
func Remove(root Group, p Path) (Group, error) {
	if len(p) == 0 {
		return Group{}, fmt.Errorf("%w: cannot remove the root", ErrBadPath)
	}
	last := p[len(p)-1]
	return Update(root, p.Parent(), func(cur Node) (Node, error) {
		g, ok := cur.(Group)
		if !ok || last < 0 || last >= len(g.Children) {
			return nil, fmt.Errorf("%w: %v", ErrBadPath, p)
		}
		g.Children = slices.Delete(slices.Clone(g.Children), last, last+1)
		return g, nil
	})
}

// Find returns the path of the first node with the given ID. Nodes without
// an ID are never found.
func Find(root Group, id string) (Path, bool) {
	if id == "" {
		return nil, false
	}
	var found Path
	ok := false
	Walk(root, func(p Path, n Node) bool {
		if ok {
			return false
		}
		if nodeID(n) == id {
			found, ok = p, true
			return false
		}
		return true
	})
	return found, ok
}

func nodeID(n Node) string {
	switch v := n.(type) {
	case Condition:
		return v.ID
	case Group:
		return v.ID
	}
	return ""
}
