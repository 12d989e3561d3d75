package usecase

import (
	"context"
	"errors"
	"time"

	"candidate-tracker-backend/internal/domain"
	"candidate-tracker-backend/pkg/apperror"
)

type authUsecase struct {
	userRepo    domain.UserRepository
	defaultRole string
}

// NewAuthUsecase provisions local user rows for identities verified by the auth middleware.
func NewAuthUsecase(userRepo domain.UserRepository) domain.AuthUsecase {
	return &authUsecase{userRepo: userRepo, defaultRole: domain.RoleRecruiter}
}

// EnsureUserExists returns the stored user, creating it on first sight. The
// stored role wins over the token; name and email follow the identity provider.
func (u *authUsecase) EnsureUserExists(ctx context.Context, user *domain.User) (*domain.User, error) {
	existing, err := u.userRepo.GetByID(ctx, user.ID)
	if err == nil {
		if (user.Name != "" && existing.Name != user.Name) || (user.Email != "" && existing.Email != user.Email) {
			if user.Name != "" {
				existing.Name = user.Name
			}
			if user.Email != "" {
				existing.Email = user.Email
			}
			existing.UpdatedAt = time.Now()
			if err := u.userRepo.Update(ctx, existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if user.Role == "" {
		user.Role = u.defaultRole
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := u.userRepo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.NotFound("User not found")
	}
	return user, err
}
