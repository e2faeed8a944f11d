// Package claims carries the authenticated caller through the request context.
package claims

import (
	"context"
	"errors"
)

// Roles stored on users and in the session.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

var ErrMissing = errors.New("claim value missing from context")

type Claims struct {
	UserID string
	Role   string
}

func (c Claims) Admin() bool { return c.Role == RoleAdmin }

// Acts reports whether the caller may act as the user id: either it is that
// user or an admin.
func (c Claims) Acts(id string) bool {
	return c.UserID == id || c.Admin()
}

type ctxKey struct{}

func Set(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// Get returns the caller's claims. Claims without a user id count as missing.
func Get(ctx context.Context) (Claims, error) {
	c, ok := ctx.Value(ctxKey{}).(Claims)
	if !ok || c.UserID == "" {
		return Claims{}, ErrMissing
	}
	return c, nil
}

func IsAdmin(ctx context.Context) bool {
	c, err := Get(ctx)
	return err == nil && c.Admin()
}

func IsUser(ctx context.Context, id string) bool {
	c, err := Get(ctx)
	return err == nil && c.Acts(id)
}
