package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gothwad/classesx/core"
)

const orderingParam = "ordering"

// userOrderings are the fields the admin user list may be sorted by.
var userOrderings = []string{"name", "email", "role", "created_at", "last_login"}

// bindOrdering reads "?ordering=-created_at,name". A leading "-" sorts descending.
// Fields outside allowed are dropped.
func bindOrdering(ctx echo.Context, allowed []string) []core.DBOrdering {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return nil
	}
	var orderings []core.DBOrdering
	for _, field := range strings.Split(val, ",") {
		field = strings.ToLower(strings.TrimSpace(field))
		descending := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
		if !core.ContainsString(allowed, field) {
			continue
		}
		orderings = append(orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
	return orderings
}
