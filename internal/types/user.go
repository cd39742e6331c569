package types

import (
	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/samber/lo"
)

// UserRole is the role of a user in the directory
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleAdmin    UserRole = "admin"
)

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) Validate() error {
	allowed := []UserRole{UserRoleCustomer, UserRoleAdmin}
	if !lo.Contains(allowed, r) {
		return ierr.NewError("invalid user role").
			WithHint("Invalid user role").
			WithReportableDetails(map[string]any{
				"role":          r,
				"allowed_roles": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
