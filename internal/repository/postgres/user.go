package postgres

import (
	"context"

	"github.com/flexisub/flexisub/internal/cache"
	"github.com/flexisub/flexisub/internal/domain/user"
	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/logger"
	"github.com/flexisub/flexisub/internal/postgres"
	"github.com/flexisub/flexisub/internal/types"
)

type userRow struct {
	ID    string `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
	Role  string `db:"role"`
	types.BaseModel
}

func (row *userRow) toDomain() *user.User {
	return &user.User{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		Role:      types.UserRole(row.Role),
		BaseModel: row.BaseModel,
	}
}

type userRepository struct {
	db     *postgres.DB
	logger *logger.Logger
	cache  cache.Cache
}

func NewUserRepository(db *postgres.DB, logger *logger.Logger, cache cache.Cache) user.Repository {
	return &userRepository{db: db, logger: logger, cache: cache}
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, name, email, role, created_at, updated_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		string(u.Role),
		u.CreatedAt,
		u.UpdatedAt,
		u.CreatedBy,
		u.UpdatedBy,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("User with this email already exists").
				WithReportableDetails(map[string]any{
					"email": u.Email,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create user").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	key := cache.GenerateKey(cache.PrefixUser, id)
	if value, found := r.cache.Get(ctx, key); found {
		return value.(*user.User), nil
	}

	u, err := r.getOne(ctx, "id", id)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, key, u, 0)
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, "email", email)
}

func (r *userRepository) getOne(ctx context.Context, column, value string) (*user.User, error) {
	var row userRow
	query := `SELECT id, name, email, role, created_at, updated_at, created_by, updated_by
		FROM users WHERE ` + column + ` = $1`

	if err := r.db.GetQuerier(ctx).GetContext(ctx, &row, query, value); err != nil {
		if postgres.IsNoRows(err) {
			return nil, ierr.WithError(err).
				WithHint("User not found").
				WithReportableDetails(map[string]any{
					column: value,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get user").
			Mark(ierr.ErrDatabase)
	}
	return row.toDomain(), nil
}
