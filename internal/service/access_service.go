package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"clfadmin/internal/errors"
	"clfadmin/internal/model"
	"clfadmin/internal/repository"
)

// AccessControl resolves callers and enforces role and ownership rules
// before any store is touched.
type AccessControl interface {
	ResolveCaller(ctx context.Context, rawIdentity string) (*model.User, error)
	RequireAdmin(caller *model.User) error
	RequireOwner(item *model.ClassificationHistory, caller *model.User) error
	PreventSelfTarget(caller *model.User, targetID uint) error
}

type accessControl struct {
	users repository.UserRepository
}

// NewAccessControl creates the access-control layer over the user directory.
func NewAccessControl(users repository.UserRepository) AccessControl {
	return &accessControl{users: users}
}

// ResolveCaller maps a verified token subject to an existing user. Anything
// that is not a plain decimal user ID is unauthorized.
func (a *accessControl) ResolveCaller(ctx context.Context, rawIdentity string) (*model.User, error) {
	id, ok := parseIdentity(rawIdentity)
	if !ok {
		return nil, errors.Unauthorized("invalid token")
	}

	user, err := a.users.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Unauthorized("user not found")
		}
		return nil, fmt.Errorf("resolve caller: %w", err)
	}
	return user, nil
}

func (a *accessControl) RequireAdmin(caller *model.User) error {
	if !caller.IsAdmin() {
		return errAdminOnly
	}
	return nil
}

// RequireOwner reports a foreign row exactly like a missing one.
func (a *accessControl) RequireOwner(item *model.ClassificationHistory, caller *model.User) error {
	if item == nil || caller == nil || item.UserID != caller.ID {
		return errHistoryNotFound
	}
	return nil
}

func (a *accessControl) PreventSelfTarget(caller *model.User, targetID uint) error {
	if caller != nil && caller.ID == targetID {
		return errors.InvalidOperation("cannot delete your own account")
	}
	return nil
}

var (
	errAdminOnly       = errors.Forbidden("Access denied - Admin only")
	errHistoryNotFound = errors.NotFound("history item not found")
)

func parseIdentity(raw string) (uint, bool) {
	if raw == "" {
		return 0, false
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseUint(raw, 10, strconv.IntSize)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
