// Package identity exposes the current user shown next to the session.
package identity

import (
	"context"
	"strings"

	"github.com/voiceflow/voiceflow/internal/config"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Label is the display form used by status output and the TUI header.
func (u User) Label() string {
	name := u.Name
	if name == "" {
		name = u.ID
	}
	if u.Email != "" {
		name += " <" + u.Email + ">"
	}
	if u.Role == RoleAdmin {
		name += " [admin]"
	}
	return name
}

// Provider returns the current user, if any.
type Provider interface {
	CurrentUser(ctx context.Context) (User, bool)
}

type staticProvider struct {
	user User
	ok   bool
}

func (p staticProvider) CurrentUser(context.Context) (User, bool) {
	return p.user, p.ok
}

// Static returns a provider that always answers user.
func Static(user User) Provider {
	return staticProvider{user: user, ok: true}
}

// FromConfig builds a static provider; an empty user.id means no current user.
func FromConfig(cfg config.UserConfig) Provider {
	id := strings.TrimSpace(cfg.ID)
	if id == "" {
		return staticProvider{}
	}
	role := Role(cfg.Role)
	if role != RoleAdmin {
		role = RoleUser
	}
	return Static(User{
		ID:    id,
		Name:  strings.TrimSpace(cfg.Name),
		Email: strings.TrimSpace(cfg.Email),
		Role:  role,
	})
}
