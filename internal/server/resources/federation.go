package resources

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/homeserver/internal/cryptox"
	"github.com/dmitrijs2005/homeserver/internal/dispatch"
	"github.com/dmitrijs2005/homeserver/internal/logging"
)

// ServerVersion is reported by the federation version endpoint.
const ServerVersion = "0.1.0"

const keyValidity = 24 * time.Hour

// FederationAPI is the server-server JSON resource. It publishes the server
// version and its signed verify key.
type FederationAPI struct {
	mux        *http.ServeMux
	serverName string
	key        cryptox.SigningKey
	now        func() time.Time
	logger     logging.Logger
}

func NewFederationAPI(serverName string, key cryptox.SigningKey, l logging.Logger) *FederationAPI {
	f := &FederationAPI{
		mux:        http.NewServeMux(),
		serverName: serverName,
		key:        key,
		now:        time.Now,
		logger:     l.With("module", "federation_api"),
	}
	f.mux.HandleFunc("GET /version", f.version)
	f.mux.HandleFunc("GET /key", f.serverKey)
	f.mux.HandleFunc("/", dispatch.Unrecognized)
	return f
}

func (f *FederationAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mux.ServeHTTP(w, r)
}

func (f *FederationAPI) version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"server": map[string]string{"name": "homeserver", "version": ServerVersion},
	})
}

// serverKey answers with the verify key, signed by the key itself.
func (f *FederationAPI) serverKey(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"server_name": f.serverName,
		"verify_keys": map[string]any{
			f.key.KeyID(): cryptox.EncodeBase64(f.key.Public()),
		},
		"valid_until_ts": f.now().Add(keyValidity).UnixMilli(),
	}

	sigs, err := cryptox.SignJSON(body, f.serverName, f.key)
	if err != nil {
		f.logger.Error(r.Context(), "signing key response", "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeUnknown, "internal error")
		return
	}
	body["signatures"] = sigs

	writeJSON(w, http.StatusOK, body)
}
