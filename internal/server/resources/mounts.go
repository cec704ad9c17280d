package resources

import (
	"context"

	"github.com/dmitrijs2005/homeserver/internal/common"
	"github.com/dmitrijs2005/homeserver/internal/cryptox"
	"github.com/dmitrijs2005/homeserver/internal/dispatch"
	"github.com/dmitrijs2005/homeserver/internal/logging"
	"github.com/dmitrijs2005/homeserver/internal/server/config"
)

// Deps are the collaborators the leaf resources need.
type Deps struct {
	Users      Registrar
	SigningKey cryptox.SigningKey
	Logger     logging.Logger
}

// Mounts returns the desired tree as a flat mount list: client, federation
// and content repository, then the web client when it is enabled.
func Mounts(ctx context.Context, cfg *config.Config, deps Deps) ([]dispatch.Mount, error) {
	l := deps.Logger
	if l == nil {
		l = logging.Discard()
	}

	content, err := NewContentRepo(cfg.UploadDir, cfg.ServerName, l)
	if err != nil {
		return nil, err
	}

	mounts := []dispatch.Mount{
		{Path: common.ClientPrefix, Node: dispatch.NewResource("client", NewClientAPI(deps.Users, l))},
		{Path: common.FederationPrefix, Node: dispatch.NewResource("federation", NewFederationAPI(cfg.ServerName, deps.SigningKey, l))},
		{Path: common.ContentRepoPrefix, Node: dispatch.NewResource("content", content)},
	}

	if cfg.WebClient {
		l.Info(ctx, "Adding the web client.")
		mounts = append(mounts, dispatch.Mount{
			Path: common.WebClientPrefix,
			Node: dispatch.NewResource("webclient", NewWebClient(cfg.WebClientDir)),
		})
	}

	return mounts, nil
}

// Root returns the tree root: a redirect to the web client when both the
// web client and the redirect are enabled, a plain container otherwise.
func Root(cfg *config.Config) *dispatch.Resource {
	if cfg.WebClient && cfg.RedirectRootToWebClient {
		return dispatch.NewResource("root redirect", RootRedirect{Target: common.WebClientPrefix + "/"})
	}
	return dispatch.NewResource("root", nil)
}
