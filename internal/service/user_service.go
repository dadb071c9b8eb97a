package service

import (
	"context"

	"mavon-shop/internal/model"
)

type adminUserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	List(ctx context.Context) ([]model.AuthUser, error)
	UpdateRole(ctx context.Context, id string, role string) error
	Delete(ctx context.Context, id string) error
}

// UserService carries the admin user screens: listing accounts, changing
// roles, removing accounts.
type UserService struct {
	users  adminUserStore
	tokens tokenStore
}

func NewUserService(users adminUserStore, tokens tokenStore) *UserService {
	return &UserService{users: users, tokens: tokens}
}

func (s *UserService) List(ctx context.Context) ([]model.AuthUser, error) {
	return s.users.List(ctx)
}

func (s *UserService) ChangeRole(ctx context.Context, id string, role string) (model.AuthUser, error) {
	if !model.ValidRole(role) {
		return model.AuthUser{}, model.ErrInvalidInput
	}

	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		return model.AuthUser{}, err
	}

	// A role change must not survive on an already-issued refresh token.
	if err := s.tokens.Revoke(ctx, id); err != nil {
		return model.AuthUser{}, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.AuthUser{}, err
	}
	return user.Public(), nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}
