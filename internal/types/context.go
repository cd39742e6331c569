package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID ContextKey = "ctx_request_id"
	CtxUserID    ContextKey = "ctx_user_id"
	CtxUserRole  ContextKey = "ctx_user_role"

	// Default values
	DefaultUserID = "00000000-0000-0000-0000-000000000000"

	// SystemUserID is the actor recorded for transitions performed by scheduled jobs
	SystemUserID = "system"
)

func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(CtxUserID).(string); ok {
		return userID
	}
	return ""
}

// GetUserRole returns the role of the acting user, empty if unauthenticated
func GetUserRole(ctx context.Context) UserRole {
	if role, ok := ctx.Value(CtxUserRole).(UserRole); ok {
		return role
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// IsAdmin reports whether the acting user carries the admin role
func IsAdmin(ctx context.Context) bool {
	return GetUserRole(ctx) == UserRoleAdmin
}

// SetUserID sets the user ID in the context
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxUserID, userID)
}

// SetUserRole sets the acting user's role in the context
func SetUserRole(ctx context.Context, role UserRole) context.Context {
	return context.WithValue(ctx, CtxUserRole, role)
}

// SystemContext returns a context acting as the scheduler with admin rights.
// Used by cron entry points that run without an end user.
func SystemContext(ctx context.Context) context.Context {
	ctx = SetUserID(ctx, SystemUserID)
	return SetUserRole(ctx, UserRoleAdmin)
}
