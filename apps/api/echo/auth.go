package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/ecclesia/core"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "caller not authenticated")
	contextCallerKey = "caller"

	nowFunc = time.Now // mockable
)

// Claims represents the authorization claims transmitted via a JWT.
// The subject is the member the requests are made on behalf of.
type Claims struct {
	jwt.StandardClaims
	Org  string   `json:"org"`
	Caps []string `json:"caps,omitempty"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "callerToken",
		Claims:        new(Claims),
	}
}

// NewClaims returns the claims of a token valid for `ttl`, issued for the caller.
func NewClaims(conf *core.Config, caller core.Caller, ttl time.Duration) *Claims {
	now := nowFunc()
	caps := make([]string, 0, len(caller.Capabilities))
	for _, cp := range caller.Capabilities {
		caps = append(caps, string(cp))
	}
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   caller.MemberID,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Org:  caller.OrganizationID,
		Caps: caps,
	}
}

// Caller returns the identity carried by the claims.
func (c Claims) Caller() core.Caller {
	return core.Caller{
		MemberID:       c.Subject,
		OrganizationID: c.Org,
		Capabilities:   core.ParseCapabilities(c.Caps),
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	jwtConf := newJWTConfig(conf)
	method := jwt.GetSigningMethod(jwtConf.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(jwtConf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context, key string) (Claims, error) {
	if token, ok := ctx.Get(key).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextCaller(ctx echo.Context) (core.Caller, error) {
	if caller, ok := ctx.Get(contextCallerKey).(core.Caller); ok {
		return caller, nil
	}
	return core.Caller{}, errUnauthorized
}
