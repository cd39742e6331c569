package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/flexisub/flexisub/internal/config"
	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/types"
	"github.com/golang-jwt/jwt/v4"
)

// Claims identifies the caller of a request
type Claims struct {
	UserID string
	Role   types.UserRole
}

// Provider validates bearer tokens issued by the identity service
type Provider interface {
	ValidateToken(ctx context.Context, token string) (*Claims, error)
	GenerateToken(userID string, role types.UserRole, ttl time.Duration) (string, error)
}

type jwtProvider struct {
	secret []byte
}

func NewProvider(cfg *config.Configuration) Provider {
	return &jwtProvider{secret: []byte(cfg.Auth.Secret)}
}

func (p *jwtProvider) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithHint(fmt.Sprintf("unexpected signing method: %v", token.Header["alg"])).
				Mark(ierr.ErrUnauthorized)
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Token parse error").
			Mark(ierr.ErrUnauthorized)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid token claims").
			Mark(ierr.ErrUnauthorized)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, ierr.NewError("token missing user ID").
			WithHint("Token missing user ID").
			Mark(ierr.ErrUnauthorized)
	}

	// tokens without a role belong to customers
	role := types.UserRoleCustomer
	if raw, ok := claims["role"].(string); ok && raw != "" {
		role = types.UserRole(raw)
		if role.Validate() != nil {
			return nil, ierr.NewErrorf("unknown role %q", raw).
				WithHint("Token carries an unknown role").
				Mark(ierr.ErrUnauthorized)
		}
	}

	return &Claims{UserID: userID, Role: role}, nil
}

// GenerateToken signs an HS256 token for the given user. Used by local tooling and tests.
func (p *jwtProvider) GenerateToken(userID string, role types.UserRole, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}
