package rbac

import (
	"context"
	"sort"
	"strings"
)

// Service resolves role names to permissions.
type Service struct {
	roles map[string][]string
}

// NewService constructs a Service. A nil map falls back to DefaultRoles.
func NewService(roles map[string][]string) *Service {
	if roles == nil {
		roles = DefaultRoles()
	}
	normalized := make(map[string][]string, len(roles))
	for name, perms := range roles {
		normalized[strings.ToLower(strings.TrimSpace(name))] = normalizePermissions(perms)
	}
	return &Service{roles: normalized}
}

// EffectivePermissions returns the permissions granted to role. Unknown roles
// get none.
func (s *Service) EffectivePermissions(_ context.Context, role string) ([]string, error) {
	if s == nil {
		return nil, nil
	}
	perms := s.roles[strings.ToLower(strings.TrimSpace(role))]
	out := append([]string(nil), perms...)
	sort.Strings(out)
	return out, nil
}

// ListRoles returns every configured role ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	if s == nil {
		return nil, nil
	}
	names := make([]string, 0, len(s.roles))
	for name := range s.roles {
		names = append(names, name)
	}
	sort.Strings(names)
	roles := make([]Role, 0, len(names))
	for _, name := range names {
		perms, _ := s.EffectivePermissions(ctx, name)
		roles = append(roles, Role{Name: name, Permissions: perms})
	}
	return roles, nil
}
