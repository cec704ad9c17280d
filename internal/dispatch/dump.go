package dispatch

import (
	"fmt"
	"io"
	"strings"
)

// WalkFunc is called for every node of a tree, parents before children.
// path is empty for the root.
type WalkFunc func(path []string, n Node) error

// Walk visits the tree rooted at root depth first, children in name order.
func Walk(root Node, fn WalkFunc) error {
	return walk(nil, root, fn)
}

func walk(path []string, n Node, fn WalkFunc) error {
	if err := fn(path, n); err != nil {
		return err
	}
	for _, name := range n.ChildNames() {
		child, ok := n.Child(name)
		if !ok {
			continue
		}
		childPath := append(append([]string(nil), path...), name)
		if err := walk(childPath, child, fn); err != nil {
			return err
		}
	}
	return nil
}

// Describe labels a node for listings.
func Describe(n Node) string {
	switch v := n.(type) {
	case *placeholder:
		return "(placeholder)"
	case *Resource:
		if !v.Serves() {
			return "[" + v.String() + ", container]"
		}
		return "[" + v.String() + "]"
	case fmt.Stringer:
		return "[" + v.String() + "]"
	default:
		return fmt.Sprintf("[%T]", n)
	}
}

// Dump writes one line per node, indented two spaces per level.
func Dump(w io.Writer, root Node) error {
	return Walk(root, func(path []string, n Node) error {
		name := "/"
		if len(path) > 0 {
			name = path[len(path)-1]
		}
		_, err := fmt.Fprintf(w, "%s%s %s\n", strings.Repeat("  ", len(path)), name, Describe(n))
		return err
	})
}
