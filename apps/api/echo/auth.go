package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-parents/core/parent"
)

const (
	contextTokenKey = "parentToken"
	RoleParent      = "parent"
)

// newJWTConfig returns the JWT auth middleware config.
// Tokens are issued by the school platform, signed with the shared secret key.
func newJWTConfig(secretKey string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email,omitempty"`
	IsParent bool     `json:"is_parent,omitempty"` // -> PARENT PORTAL
	Roles    []string `json:"roles,omitempty"`
}

// Parent returns the parent the token was issued to.
func (c Claims) Parent() parent.Parent {
	return parent.Parent{ID: c.Subject, Name: c.Name, Email: c.Email}
}

func (c Claims) isParent() bool {
	if c.IsParent {
		return true
	}
	for _, r := range c.Roles {
		if r == RoleParent {
			return true
		}
	}
	return false
}

// GetParentClaims returns the claims of a parent token valid for ttl.
func GetParentClaims(p parent.Parent, issuer string, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    issuer,
			Subject:   p.ID,
			Audience:  "Parents",
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:     p.Name,
		Email:    p.Email,
		IsParent: true,
		Roles:    []string{RoleParent},
	}
}

// GenerateToken generates a signed JWT token string representing the parent Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextToken(ctx echo.Context) (*jwt.Token, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		return token, nil
	}
	return nil, errUnauthorized
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	token, err := getContextToken(ctx)
	if err != nil {
		return Claims{}, err
	}
	if claims, ok := token.Claims.(*Claims); ok {
		return *claims, nil
	}
	return Claims{}, errUnauthorized
}

// getContextParent returns the authenticated parent and the raw token forwarded to the school API.
func getContextParent(ctx echo.Context) (parent.Parent, string, error) {
	token, err := getContextToken(ctx)
	if err != nil {
		return parent.Parent{}, "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return parent.Parent{}, "", errUnauthorized
	}
	return claims.Parent(), token.Raw, nil
}
