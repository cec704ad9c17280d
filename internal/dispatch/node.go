// Package dispatch builds the request-dispatch tree that maps URL path
// prefixes to handler nodes and routes HTTP requests through it by longest
// prefix.
package dispatch

import (
	"net/http"
	"sort"
)

// Node is a vertex of the dispatch tree.
//
// Concrete mount handlers implement it directly; the builder never relies on
// anything beyond these three operations.
type Node interface {
	// ChildNames lists the names of the attached children.
	ChildNames() []string

	// Child returns the child attached under name, if any.
	Child(name string) (Node, bool)

	// PutChild attaches child under name, replacing any previous child.
	PutChild(name string, child Node)
}

// children is the name-indexed child set shared by Resource and placeholder.
type children map[string]Node

func (c children) names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resource is a real node: it may serve requests and may carry children.
//
// A Resource with a nil Handler is a pure container (a plain root, for
// example) and does not serve requests itself.
type Resource struct {
	Name     string
	Handler  http.Handler
	children children
}

// NewResource returns a Resource serving h, labelled name in tree dumps.
func NewResource(name string, h http.Handler) *Resource {
	return &Resource{Name: name, Handler: h}
}

func (r *Resource) ChildNames() []string {
	return r.children.names()
}

func (r *Resource) Child(name string) (Node, bool) {
	c, ok := r.children[name]
	return c, ok
}

func (r *Resource) PutChild(name string, child Node) {
	if r.children == nil {
		r.children = make(children)
	}
	r.children[name] = child
}

// ServeHTTP delegates to the wrapped handler. Routers check Serves first.
func (r *Resource) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.Handler == nil {
		http.NotFound(w, req)
		return
	}
	r.Handler.ServeHTTP(w, req)
}

// Serves reports whether the resource has a handler of its own.
func (r *Resource) Serves() bool {
	return r.Handler != nil
}

func (r *Resource) String() string {
	if r.Name == "" {
		return "resource"
	}
	return r.Name
}

// placeholder stands in for a path segment that has no handler yet.
type placeholder struct {
	children children
}

func (p *placeholder) ChildNames() []string {
	return p.children.names()
}

func (p *placeholder) Child(name string) (Node, bool) {
	c, ok := p.children[name]
	return c, ok
}

func (p *placeholder) PutChild(name string, child Node) {
	if p.children == nil {
		p.children = make(children)
	}
	p.children[name] = child
}

// IsPlaceholder reports whether n was synthesized by the builder.
func IsPlaceholder(n Node) bool {
	_, ok := n.(*placeholder)
	return ok
}

// serving returns n as an http.Handler when it handles requests itself.
func serving(n Node) (http.Handler, bool) {
	if r, ok := n.(*Resource); ok {
		return r, r.Serves()
	}
	if IsPlaceholder(n) {
		return nil, false
	}
	h, ok := n.(http.Handler)
	return h, ok
}
