package users

// Capability names an action gated on the signed-in user's role.
type Capability string

const (
	ManageAdmins        Capability = "manage_admins"
	RevokeAdmins        Capability = "revoke_admins"
	ViewActivityLogs    Capability = "view_activity_logs"
	ManageUsers         Capability = "manage_users"
	ChangeBookingStatus Capability = "change_booking_status"
	BookForOthers       Capability = "book_for_others"
)

// Can is the single authorization check used by every view and client.
// A nil profile (anonymous) has no capabilities.
func Can(profile *UserProfile, capability Capability) bool {
	if profile == nil || !profile.IsSuperuser {
		return false
	}
	switch capability {
	case RevokeAdmins:
		return profile.CanRevokeAdmins
	case ManageAdmins, ViewActivityLogs, ManageUsers, ChangeBookingStatus, BookForOthers:
		return true
	default:
		return false
	}
}

// CanRevoke reports whether profile may revoke the admin with targetID.
func CanRevoke(profile *UserProfile, targetID int) bool {
	return Can(profile, RevokeAdmins) && profile.ID != targetID
}

// CurrentUser supplies the signed in profile, nil when anonymous.
type CurrentUser interface {
	CurrentUser() *UserProfile
}

// CurrentUserFunc adapts a function to CurrentUser.
type CurrentUserFunc func() *UserProfile

func (f CurrentUserFunc) CurrentUser() *UserProfile {
	return f()
}
