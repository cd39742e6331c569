package testutil

import (
	"context"

	"github.com/flexisub/flexisub/internal/types"
)

func SetupContext() context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, types.CtxUserID, types.DefaultUserID)
	ctx = context.WithValue(ctx, types.CtxRequestID, types.GenerateUUID())
	return ctx
}

// WithActor returns ctx acting as the given user and role
func WithActor(ctx context.Context, userID string, role types.UserRole) context.Context {
	ctx = types.SetUserID(ctx, userID)
	return types.SetUserRole(ctx, role)
}
