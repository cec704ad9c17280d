package resources

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/homeserver/internal/common"
	"github.com/dmitrijs2005/homeserver/internal/dispatch"
	"github.com/dmitrijs2005/homeserver/internal/logging"
	"github.com/dmitrijs2005/homeserver/internal/server/users"
)

// Registrar creates local accounts.
type Registrar interface {
	Register(ctx context.Context, localpart, password string) (*users.User, error)
}

type registerRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

type registerResponse struct {
	UserID string `json:"user_id"`
}

// ClientAPI is the client-server JSON resource. Only account registration
// is served; every other request is unrecognized.
type ClientAPI struct {
	mux    *http.ServeMux
	users  Registrar
	logger logging.Logger
}

func NewClientAPI(reg Registrar, l logging.Logger) *ClientAPI {
	c := &ClientAPI{
		mux:    http.NewServeMux(),
		users:  reg,
		logger: l.With("module", "client_api"),
	}
	c.mux.HandleFunc("POST /register", c.register)
	c.mux.HandleFunc("/", dispatch.Unrecognized)
	return c
}

func (c *ClientAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mux.ServeHTTP(w, r)
}

func (c *ClientAPI) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadJSON, "malformed request body")
		return
	}

	user, err := c.users.Register(r.Context(), req.User, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrAlreadyExists):
		writeError(w, http.StatusBadRequest, ErrCodeUserInUse, "user id already taken")
		return
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, ErrCodeInvalidParam, err.Error())
		return
	default:
		c.logger.Error(r.Context(), "registration failed", "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeUnknown, "internal error")
		return
	}

	c.logger.Info(r.Context(), "registered user", "user_id", user.ID)
	writeJSON(w, http.StatusOK, registerResponse{UserID: user.ID})
}
