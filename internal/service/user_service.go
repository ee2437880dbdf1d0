package service

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"clfadmin/internal/errors"
	"clfadmin/internal/model"
	"clfadmin/internal/repository"
)

// UserUpdate carries the optional fields an admin may change. Email is immutable.
type UserUpdate struct {
	Name *string
	Role *string
}

// UserService exposes admin-only user management.
type UserService interface {
	ListUsers(ctx context.Context, caller *model.User) ([]model.UserSummary, error)
	UpdateUser(ctx context.Context, caller *model.User, targetID uint, update UserUpdate) (*model.UserSummary, error)
	DeleteUser(ctx context.Context, caller *model.User, targetID uint) (*model.UserSummary, error)
}

type userService struct {
	users  repository.UserRepository
	access AccessControl
	log    *zap.Logger
}

// NewUserService builds a UserService.
func NewUserService(users repository.UserRepository, access AccessControl, log *zap.Logger) UserService {
	return &userService{users: users, access: access, log: log}
}

func (s *userService) ListUsers(ctx context.Context, caller *model.User) ([]model.UserSummary, error) {
	if err := s.access.RequireAdmin(caller); err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]model.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

// UpdateUser replaces the name verbatim and the role when it is a known role.
// An unknown role rejects the whole update.
func (s *userService) UpdateUser(ctx context.Context, caller *model.User, targetID uint, update UserUpdate) (*model.UserSummary, error) {
	if err := s.access.RequireAdmin(caller); err != nil {
		return nil, err
	}

	var summary model.UserSummary
	err := s.users.WithTransaction(ctx, func(ctx context.Context, tx repository.UserRepository) error {
		target, err := tx.FindByIDForUpdate(ctx, targetID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NotFound("user to update not found")
			}
			return fmt.Errorf("find user: %w", err)
		}

		if update.Name == nil && update.Role == nil {
			return errors.InvalidOperation("no data provided")
		}
		if update.Role != nil && !model.ValidRole(*update.Role) {
			return errors.InvalidOperation(fmt.Sprintf("invalid role %q: must be %s or %s", *update.Role, model.RoleAdmin, model.RoleResearcher))
		}

		if update.Name != nil {
			target.Name = *update.Name
		}
		if update.Role != nil {
			target.Role = *update.Role
		}
		if err := tx.Update(ctx, target); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		summary = target.Summary()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user updated", zap.Uint("admin_id", caller.ID), zap.Uint("user_id", targetID))
	return &summary, nil
}

// DeleteUser removes the target and the history it owns. Self-deletion is
// refused before the role check, so it fails the same way for every caller.
func (s *userService) DeleteUser(ctx context.Context, caller *model.User, targetID uint) (*model.UserSummary, error) {
	if err := s.access.PreventSelfTarget(caller, targetID); err != nil {
		return nil, err
	}
	if err := s.access.RequireAdmin(caller); err != nil {
		return nil, err
	}

	var summary model.UserSummary
	err := s.users.WithTransaction(ctx, func(ctx context.Context, tx repository.UserRepository) error {
		target, err := tx.FindByIDForUpdate(ctx, targetID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NotFound("user to delete not found")
			}
			return fmt.Errorf("find user: %w", err)
		}

		if err := tx.Delete(ctx, target); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		summary = target.Summary()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user deleted", zap.Uint("admin_id", caller.ID), zap.Uint("user_id", targetID))
	return &summary, nil
}
