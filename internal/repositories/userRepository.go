package repositories

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"chikota/internal/models"
)

const userRepo = "user"

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, userID string) (*models.User, error)
	Update(ctx context.Context, userID string, fields map[string]interface{}) error
	CountAll(ctx context.Context) (int64, error)
}

type userRepository struct {
	db bun.IDB
}

func NewUserRepository(db bun.IDB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (err error) {
	defer trackQuery("create", userRepo)(&err)

	if _, err = r.db.NewInsert().Model(user).Exec(ctx); err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("Failed to insert user into database")
		return fmt.Errorf("failed to create user: %w", mapError(err))
	}
	return nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (user *models.User, err error) {
	defer trackQuery("findByEmail", userRepo)(&err)

	user = new(models.User)
	if err = r.db.NewSelect().Model(user).Where("u.email = ?", email).Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

func (r *userRepository) FindByID(ctx context.Context, userID string) (user *models.User, err error) {
	defer trackQuery("findById", userRepo)(&err)

	user = new(models.User)
	if err = r.db.NewSelect().Model(user).Where("u.id = ?", userID).Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

func (r *userRepository) Update(ctx context.Context, userID string, fields map[string]interface{}) (err error) {
	defer trackQuery("update", userRepo)(&err)

	if len(fields) == 0 {
		return nil
	}
	q := r.db.NewUpdate().Model((*models.User)(nil)).Where("id = ?", userID)
	for column, value := range fields {
		q = q.Set("? = ?", bun.Ident(column), value)
	}
	if _, err = q.Exec(ctx); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Error updating user profile")
		return fmt.Errorf("failed to update user: %w", mapError(err))
	}
	return nil
}

func (r *userRepository) CountAll(ctx context.Context) (count int64, err error) {
	defer trackQuery("countAll", userRepo)(&err)

	n, err := r.db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to count total users")
		return 0, fmt.Errorf("failed to count total users: %w", err)
	}
	return int64(n), nil
}
