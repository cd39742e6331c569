package service

import (
	"context"

	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/types"
)

// authorizeOwner allows admins, the scheduler and the owning user
func authorizeOwner(ctx context.Context, ownerID string) error {
	if types.IsAdmin(ctx) || types.GetUserID(ctx) == types.SystemUserID {
		return nil
	}
	if actor := types.GetUserID(ctx); actor != "" && actor == ownerID {
		return nil
	}
	return ierr.NewError("caller does not own this subscription").
		WithHint("You do not have permission to access this subscription").
		WithReportableDetails(map[string]interface{}{
			"user_id": types.GetUserID(ctx),
		}).
		Mark(ierr.ErrPermissionDenied)
}

func authorizeAdmin(ctx context.Context) error {
	if types.IsAdmin(ctx) {
		return nil
	}
	return ierr.NewError("admin role required").
		WithHint("This operation requires the admin role").
		Mark(ierr.ErrPermissionDenied)
}
