// Package view renders the client state for a terminal and decides which
// views a session may open.
package view

import (
	"github.com/jrsteele09/go-booking-client/session"
	"github.com/jrsteele09/go-booking-client/users"
)

// Tab is a top level view.
type Tab string

const (
	TabLogin          Tab = "login"
	TabRegister       Tab = "register"
	TabForgotPassword Tab = "forgot-password"
	TabTodos          Tab = "todos"
	TabCreateBooking  Tab = "create-booking"
	TabViewBookings   Tab = "view-bookings"
	TabProfile        Tab = "profile"
	TabAdmins         Tab = "admins"
	TabUsers          Tab = "users"
	TabActivityLogs   Tab = "activity-logs"
)

// tabCapability lists the tabs that need more than being signed in.
var tabCapability = map[Tab]users.Capability{
	TabAdmins:       users.ManageAdmins,
	TabUsers:        users.ManageUsers,
	TabActivityLogs: users.ViewActivityLogs,
}

// Tabs returns the tabs available to s in display order. Nothing is shown
// while the session is still loading.
func Tabs(s session.Session) []Tab {
	switch {
	case s.Loading():
		return nil
	case !s.IsAuthenticated():
		return []Tab{TabLogin, TabRegister, TabForgotPassword}
	}
	tabs := []Tab{TabTodos, TabCreateBooking, TabViewBookings, TabProfile}
	for _, tab := range []Tab{TabAdmins, TabUsers, TabActivityLogs} {
		if users.Can(s.User, tabCapability[tab]) {
			tabs = append(tabs, tab)
		}
	}
	return tabs
}
