package resources

import (
	"net/http"

	"github.com/dmitrijs2005/homeserver/internal/dispatch"
)

// NewWebClient serves the static web client from dir.
func NewWebClient(dir string) http.Handler {
	return http.FileServer(http.Dir(dir))
}

// RootRedirect sends requests for "/" to Target. Any other path under the
// root is unrecognized.
type RootRedirect struct {
	Target string
}

func (rr RootRedirect) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "" {
		dispatch.Unrecognized(w, r)
		return
	}
	http.Redirect(w, r, rr.Target, http.StatusFound)
}
