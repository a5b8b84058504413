package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/giftkart/shipping-admin/internal/core/domain"
)

// RequireRole admits requests whose role, set by Auth, is one of roles.
// Anything else fails with domain.ErrForbidden for the central error handler.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if _, ok := allowed[role]; !ok {
				return fmt.Errorf("%s %s as %q: %w", c.Request().Method, c.Path(), role, domain.ErrForbidden)
			}
			return next(c)
		}
	}
}

// Staff admits admins and operators: reads, syncs and documents.
func Staff() echo.MiddlewareFunc {
	return RequireRole(domain.RoleAdmin, domain.RoleOperator)
}

// AdminOnly guards every mutation of shipments, pickups and users.
func AdminOnly() echo.MiddlewareFunc {
	return RequireRole(domain.RoleAdmin)
}
