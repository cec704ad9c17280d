package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/text/unicode/norm"
)

type ctxKey string

const mountPrefixKey ctxKey = "mountPrefix"

// MountPrefix returns the path prefix consumed by the router before the
// request reached its handler.
func MountPrefix(ctx context.Context) string {
	v, _ := ctx.Value(mountPrefixKey).(string)
	return v
}

// Router routes requests through a dispatch tree by longest prefix.
type Router struct {
	root     Node
	notFound http.Handler
}

// NewRouter returns a Router over the tree rooted at root.
func NewRouter(root Node) *Router {
	return &Router{root: root, notFound: http.HandlerFunc(Unrecognized)}
}

// ServeHTTP walks the request path segment by segment and hands the request
// to the deepest node that serves, with the consumed prefix stripped.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")

	var (
		handler  http.Handler
		consumed int
	)
	node := rt.root
	for i, segment := range segments {
		if segment == "" {
			break
		}
		child, ok := node.Child(norm.NFC.String(segment))
		if !ok {
			break
		}
		node = child
		if h, ok := serving(node); ok {
			handler, consumed = h, i+1
		}
	}

	if handler == nil {
		if h, ok := serving(rt.root); ok {
			h.ServeHTTP(w, r)
			return
		}
		rt.notFound.ServeHTTP(w, r)
		return
	}

	prefix := "/" + strings.Join(segments[:consumed], "/")
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	if rest == "" {
		rest = "/"
	}

	r2 := r.Clone(context.WithValue(r.Context(), mountPrefixKey, prefix))
	r2.URL.Path = rest
	r2.URL.RawPath = ""
	handler.ServeHTTP(w, r2)
}

// Unrecognized answers 404 with the M_UNRECOGNIZED error body.
func Unrecognized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"errcode": "M_UNRECOGNIZED",
		"error":   "Unrecognized request",
	})
}
