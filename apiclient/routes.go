package apiclient

import "strconv"

// API path constants
// All backend routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - Tokens & Profile
	RouteToken          = "/api/auth/token/"
	RouteRegister       = "/api/auth/register/"
	RouteUser           = "/api/auth/user/"
	RouteProfilePicture = "/api/auth/profile/picture/"

	// Auth Routes - Password Reset
	RoutePasswordResetRequest  = "/api/auth/password-reset/request/"
	RoutePasswordResetValidate = "/api/auth/password-reset/validate/"
	RoutePasswordResetConfirm  = "/api/auth/password-reset/confirm/"

	// Resource Routes (items live at {route}{id}/)
	RouteTodos    = "/api/todos/"
	RouteBookings = "/api/bookings/"

	// Admin Routes (superuser only)
	RouteAdminList         = "/api/auth/admin/list/"
	RouteAdminCreate       = "/api/auth/admin/create/"
	RouteAdminRevoke       = "/api/auth/admin/revoke/"
	RouteAdminActivityLogs = "/api/auth/admin/activity-logs/"

	// User Management Routes (superuser only)
	RouteUsersList          = "/api/auth/users/list/"
	RouteUsersCreate        = "/api/auth/users/create/"
	RouteUsersChangePass    = "/api/auth/users/change-password/"
	RouteUsersSendResetLink = "/api/auth/users/send-reset-link/"
	RouteUsersToggleActive  = "/api/auth/users/toggle-active/"
)

// ItemPath returns the detail route for id under a collection route.
func ItemPath(collection string, id int) string {
	return collection + strconv.Itoa(id) + "/"
}
