package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token related errors
	ErrTokenInvalid  = errors.New("token invalid")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenNotFound = errors.New("token not found")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Catalog related errors
	ErrBrandNotFound   = errors.New("brand not found")
	ErrColorNotFound   = errors.New("color not found")
	ErrSizeNotFound    = errors.New("size not found")
	ErrProductNotFound = errors.New("product not found")

	// Cart related errors
	ErrCartEmpty       = errors.New("cart is empty")
	ErrVersionConflict = errors.New("cart version conflict")

	// Order related errors
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")

	// Comment related errors
	ErrCommentNotFound = errors.New("comment not found")

	// OAuth related errors
	ErrExchangeCodeNotFound = errors.New("exchange code not found")
	ErrInvalidOAuthState    = errors.New("invalid oauth state")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
