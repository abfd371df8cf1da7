package echoapi

import (
	"context"
	"crypto/sha256"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/zitadel/oidc/v3/pkg/client/rp"
	httphelper "github.com/zitadel/oidc/v3/pkg/http"
	"github.com/zitadel/oidc/v3/pkg/oidc"

	"github.com/trezcool/skillfolio/core"
	"github.com/trezcool/skillfolio/core/user"
)

var defaultOIDCScopes = []string{oidc.ScopeOpenID, oidc.ScopeProfile, oidc.ScopeEmail}

// NewRelyingParty discovers the configured identity provider.
// The authorization code flow uses PKCE, its state and verifier live in encrypted cookies.
func NewRelyingParty(ctx context.Context, conf *core.Config) (rp.RelyingParty, error) {
	key := sha256.Sum256([]byte(conf.SecretKey))
	var cookieOpts []httphelper.CookieHandlerOpt
	if conf.Debug {
		cookieOpts = append(cookieOpts, httphelper.WithUnsecure())
	}
	cookieHandler := httphelper.NewCookieHandler(key[:], key[:], cookieOpts...)

	scopes := conf.OIDC.Scopes
	if len(scopes) == 0 {
		scopes = defaultOIDCScopes
	}

	party, err := rp.NewRelyingPartyOIDC(ctx,
		conf.OIDC.IssuerURL,
		conf.OIDC.ClientID,
		conf.OIDC.ClientSecret,
		conf.OIDC.RedirectURL,
		scopes,
		rp.WithCookieHandler(cookieHandler),
		rp.WithPKCE(cookieHandler),
		rp.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
		rp.WithVerifierOpts(rp.WithIssuedAtOffset(5*time.Second)),
	)
	return party, errors.Wrap(err, "creating relying party")
}

type oidcApi struct {
	party       rp.RelyingParty
	users       user.Service
	frontendURL string
}

func registerOIDCAPI(g *echo.Group, opts *Options) {
	api := oidcApi{
		party:       opts.RelyingParty,
		users:       opts.UserSvc,
		frontendURL: opts.FrontendBaseURL,
	}

	og := g.Group("/auth/oidc")
	og.GET("/login", echo.WrapHandler(rp.AuthURLHandler(func() string { return uuid.New().String() }, api.party)))
	og.GET("/callback", api.callback)
}

// callback exchanges the authorization code, then redirects to the frontend with our own token.
// Exchange failures are answered by the relying party itself.
func (api *oidcApi) callback(ctx echo.Context) error {
	var loginErr error
	exchange := rp.CodeExchangeHandler(
		func(w http.ResponseWriter, r *http.Request, tokens *oidc.Tokens[*oidc.IDTokenClaims], state string, party rp.RelyingParty) {
			loginErr = api.login(ctx, tokens)
		},
		api.party,
	)
	exchange.ServeHTTP(ctx.Response(), ctx.Request())
	return loginErr
}

func (api *oidcApi) login(ctx echo.Context, tokens *oidc.Tokens[*oidc.IDTokenClaims]) error {
	claims := tokens.IDTokenClaims
	if claims == nil {
		return errAuthenticationFailed
	}

	usr, err := api.users.GetOrCreateExternal(ctx.Request().Context(), user.ExternalIdentity{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: bool(claims.EmailVerified),
		Name:          claims.Name,
		Username:      claims.PreferredUsername,
	})
	if err != nil {
		return errors.Wrap(err, "getting external user")
	}
	if !usr.Active() {
		return errAccountDeactivated
	}

	appClaims, err := login(ctx.Request().Context(), usr, api.users)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}
	token, err := GenerateToken(appClaims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.Redirect(http.StatusFound, frontendCallbackURL(api.frontendURL, token))
}

// frontendCallbackURL carries the token in the URL fragment.
func frontendCallbackURL(frontendURL, token string) string {
	return strings.TrimRight(frontendURL, "/") + "/auth/callback#" + url.Values{tokenQueryKey: {token}}.Encode()
}
