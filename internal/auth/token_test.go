package auth

import (
	"context"
	"testing"
	"time"

	"github.com/flexisub/flexisub/internal/config"
	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/types"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateToken(t *testing.T) {
	ctx := context.Background()
	provider := NewProvider(config.GetDefaultConfig())

	t.Run("admin token", func(t *testing.T) {
		token, err := provider.GenerateToken("user_1", types.UserRoleAdmin, time.Hour)
		require.NoError(t, err)

		claims, err := provider.ValidateToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "user_1", claims.UserID)
		assert.Equal(t, types.UserRoleAdmin, claims.Role)
	})

	t.Run("missing role defaults to customer", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": "user_2",
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte(config.GetDefaultConfig().Auth.Secret))
		require.NoError(t, err)

		claims, err := provider.ValidateToken(ctx, signed)
		require.NoError(t, err)
		assert.Equal(t, types.UserRoleCustomer, claims.Role)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := provider.GenerateToken("user_1", types.UserRoleCustomer, -time.Hour)
		require.NoError(t, err)

		_, err = provider.ValidateToken(ctx, token)
		require.Error(t, err)
		assert.True(t, ierr.IsUnauthorized(err))
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewProvider(&config.Configuration{Auth: config.AuthConfig{Secret: "other"}})
		token, err := other.GenerateToken("user_1", types.UserRoleCustomer, time.Hour)
		require.NoError(t, err)

		_, err = provider.ValidateToken(ctx, token)
		assert.True(t, ierr.IsUnauthorized(err))
	})

	t.Run("unknown role", func(t *testing.T) {
		token, err := provider.GenerateToken("user_1", types.UserRole("root"), time.Hour)
		require.NoError(t, err)

		_, err = provider.ValidateToken(ctx, token)
		assert.True(t, ierr.IsUnauthorized(err))
	})
}
