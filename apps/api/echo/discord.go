package echoapi

import (
	"net/http"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/user"
)

type discordApi struct {
	linker AccountLinker
	usrSvc *user.Service
	logger core.Logger
}

func registerDiscordAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := discordApi{
		linker: opts.AccountLinker,
		usrSvc: opts.UserSvc,
		logger: opts.Logger,
	}

	dg := g.Group("/discord")
	dg.GET("/link", api.link, jwt)
	// Discord redirects here without our auth header; the user rides along in `state`.
	dg.GET("/callback", api.callback)
}

// Handlers

// link kicks off the OAuth2 account linking flow. The caller's own token is
// passed as the OAuth2 state so the callback can tell who is linking.
func (api *discordApi) link(ctx echo.Context) error {
	token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token)
	if !ok {
		return errUnauthorized
	}
	return ctx.Redirect(http.StatusFound, api.linker.AuthCodeURL(token.Raw))
}

func (api *discordApi) callback(ctx echo.Context) error {
	code := ctx.QueryParam("code")
	if code == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "code", Error: "this field is required"})
	}

	claims, err := ParseToken(ctx.QueryParam("state"))
	if err != nil {
		return errUnauthorized
	}
	usr, err := api.usrSvc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}

	chatUsr, err := api.linker.ExchangeCode(ctx.Request().Context(), code)
	if err != nil {
		api.logger.Error("exchanging authorization code", err)
		return errLinkingFailed
	}

	if _, err = api.usrSvc.LinkDiscord(ctx.Request().Context(), usr, chatUsr.ID); err != nil {
		return errors.Wrap(err, "linking account")
	}
	return ctx.Redirect(http.StatusFound, core.Conf.FrontendBaseURL+"/profile")
}
