package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrInvalidMountPath is returned for a mount path with no segments or
	// with an empty interior segment.
	ErrInvalidMountPath = errors.New("invalid mount path")

	// ErrNilNode is returned when a mount or the root is nil.
	ErrNilNode = errors.New("nil dispatch node")
)

// Mount pairs a slash-delimited path prefix with the node serving it.
type Mount struct {
	Path string
	Node Node
}

// Build assembles mounts into a tree rooted at a fresh placeholder.
//
// The final topology does not depend on the order of mounts. When two mounts
// share the exact same path the later one wins and inherits the children
// already attached under the earlier one.
func Build(mounts []Mount) (Node, error) {
	return BuildWithRoot(&placeholder{}, mounts)
}

// BuildWithRoot is Build with a caller-supplied root, e.g. a redirect.
func BuildWithRoot(root Node, mounts []Mount) (Node, error) {
	if root == nil {
		return nil, ErrNilNode
	}

	parsed := make([][]string, len(mounts))
	for i, m := range mounts {
		if m.Node == nil {
			return nil, fmt.Errorf("%w: mount %q", ErrNilNode, m.Path)
		}
		segments, err := SplitPath(m.Path)
		if err != nil {
			return nil, err
		}
		parsed[i] = segments
	}

	a := newArena(root)
	for i, m := range mounts {
		a.mount(parsed[i], m.Node)
	}

	return root, nil
}

// SplitPath splits a mount path into NFC-normalised segments. One leading
// and one trailing slash are ignored.
func SplitPath(p string) ([]string, error) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(p, "/"), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("%w: %q has no segments", ErrInvalidMountPath, p)
	}

	segments := strings.Split(trimmed, "/")
	for i, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("%w: %q has an empty segment", ErrInvalidMountPath, p)
		}
		segments[i] = norm.NFC.String(s)
	}
	return segments, nil
}

const rootID = 0

// arenaKey identifies a child slot by its parent's arena id and segment.
type arenaKey struct {
	parent  int
	segment string
}

// arena is the builder's source of truth for "does this exact child exist".
// Ids are stable: replacing the node at a slot keeps its id, so keys of
// deeper slots stay valid.
type arena struct {
	entries []Node
	index   map[arenaKey]int
}

func newArena(root Node) *arena {
	return &arena{
		entries: []Node{root},
		index:   make(map[arenaKey]int),
	}
}

func (a *arena) record(parent int, segment string, n Node) int {
	id := len(a.entries)
	a.entries = append(a.entries, n)
	a.index[arenaKey{parent: parent, segment: segment}] = id
	return id
}

func (a *arena) mount(segments []string, n Node) {
	parent := rootID
	last := len(segments) - 1
	for _, segment := range segments[:last] {
		parent = a.descend(parent, segment)
	}
	a.attach(parent, segments[last], n)
}

// descend returns the id of the child slot, synthesizing a placeholder when
// nothing has been mounted there yet.
func (a *arena) descend(parent int, segment string) int {
	if id, ok := a.index[arenaKey{parent: parent, segment: segment}]; ok {
		return id
	}
	p := &placeholder{}
	a.entries[parent].PutChild(segment, p)
	return a.record(parent, segment, p)
}

// attach puts n at the slot, reconciling whatever occupied it before.
func (a *arena) attach(parent int, segment string, n Node) {
	id, ok := a.index[arenaKey{parent: parent, segment: segment}]
	if !ok {
		a.entries[parent].PutChild(segment, n)
		a.record(parent, segment, n)
		return
	}

	// Placeholder or an earlier mount of the same path: either way its
	// children move to n and n takes the slot.
	a.transplant(id, n)
	a.entries[parent].PutChild(segment, n)
	a.entries[id] = n
}

// transplant moves every child of the node at slot id onto n.
func (a *arena) transplant(id int, n Node) {
	prev := a.entries[id]
	for _, name := range prev.ChildNames() {
		child, ok := a.lookup(id, name)
		if !ok {
			child, ok = prev.Child(name)
		}
		if ok {
			n.PutChild(name, child)
		}
	}
}

func (a *arena) lookup(parent int, segment string) (Node, bool) {
	id, ok := a.index[arenaKey{parent: parent, segment: segment}]
	if !ok {
		return nil, false
	}
	return a.entries[id], true
}
