package client

import (
	"storefront/internal/entity"
	"strings"
)

var protectedPaths = []string{"/cart", "/checkout", "/profile", "/admin"}

func under(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Resolve returns where a visit to path should land for user (nil when
// signed out): path itself, or the page to redirect to.
func Resolve(user *entity.User, path string) string {
	if user == nil {
		for _, p := range protectedPaths {
			if under(path, p) {
				return "/auth"
			}
		}
		return path
	}
	if under(path, "/auth") {
		return "/"
	}
	if under(path, "/admin") && user.Role != entity.RoleAdmin {
		return "/"
	}
	return path
}

// OrderActions lists what the order history offers for an order.
func OrderActions(status entity.OrderStatus) entity.OrderActions {
	return status.Actions()
}
