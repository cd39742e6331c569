package user

import (
	"context"

	"github.com/flexisub/flexisub/internal/types"
)

type User struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Email string         `json:"email"`
	Role  types.UserRole `json:"role"`
	types.BaseModel
}

func NewUser(ctx context.Context, name, email string, role types.UserRole) *User {
	return &User{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USER),
		Name:      name,
		Email:     email,
		Role:      role,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == types.UserRoleAdmin
}
