package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/tmbastos/escolar/core"
)

const claimsContextKey = "staffToken"

// Claims represents the authorization claims transmitted via a JWT.
// Tokens are minted by the school's identity provider; this API only
// verifies them against the shared secret.
type Claims struct {
	jwt.StandardClaims
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	SchoolID string `json:"school_id,omitempty"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
}

// newJWTConfig is the JWT auth middleware config guarding all /v1 routes.
func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    claimsContextKey,
		Claims:        new(Claims),
	}
}

func NewStaffClaims(conf *core.Config, name, email string, schoolID string, isAdmin bool) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   email,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:     name,
		Email:    email,
		SchoolID: schoolID,
		IsAdmin:  isAdmin,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(claimsContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// adminMiddleware restricts a route to admin tokens.
func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if !claims.IsAdmin {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
