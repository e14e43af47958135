package view

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/go-booking-client/admin"
	"github.com/jrsteele09/go-booking-client/apiclient"
	"github.com/jrsteele09/go-booking-client/bookings"
	"github.com/jrsteele09/go-booking-client/session"
	"github.com/jrsteele09/go-booking-client/todos"
)

const timestampLayout = "2006-01-02 15:04"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// RenderError writes the user-facing message for err, using fallback when the
// server gave nothing better.
func RenderError(w io.Writer, err error, fallback string) error {
	if err == nil {
		return nil
	}
	_, werr := fmt.Fprintln(w, "Error:", apiclient.Message(err, fallback))
	return werr
}

// RenderSession writes who is signed in.
func RenderSession(w io.Writer, s session.Session) error {
	if s.Loading() {
		_, err := fmt.Fprintln(w, "Loading...")
		return err
	}
	if !s.IsAuthenticated() {
		_, err := fmt.Fprintln(w, "Not logged in")
		return err
	}
	t := newTable(w)
	fmt.Fprintf(t, "User:\t%s (#%d)\n", s.User.Username, s.User.ID)
	fmt.Fprintf(t, "Name:\t%s\n", s.User.DisplayName())
	fmt.Fprintf(t, "Email:\t%s\n", s.User.Email)
	role := "user"
	if s.User.IsSuperuser {
		role = "super user"
		if s.User.CanRevokeAdmins {
			role += " (can revoke admins)"
		}
	}
	fmt.Fprintf(t, "Role:\t%s\n", role)
	if s.User.ProfilePictureURL != "" {
		fmt.Fprintf(t, "Picture:\t%s\n", s.User.ProfilePictureURL)
	}
	return t.Flush()
}

// RenderTabs writes the tab bar.
func RenderTabs(w io.Writer, tabs []Tab) error {
	names := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		names = append(names, string(tab))
	}
	_, err := fmt.Fprintln(w, strings.Join(names, " | "))
	return err
}

// RenderTodos writes the heading and the todos visible under filter.
func RenderTodos(w io.Writer, list *todos.List, filter todos.Filter) error {
	fmt.Fprintln(w, list.Heading(filter))
	t := newTable(w)
	fmt.Fprintln(t, "ID\tDONE\tTITLE\tDESCRIPTION")
	for _, item := range list.Visible(filter) {
		done := " "
		if item.Completed {
			done = "x"
		}
		fmt.Fprintf(t, "%d\t[%s]\t%s\t%s\n", item.ID, done, item.Title, item.Description)
	}
	return t.Flush()
}

// RenderBookings writes bookings with per-status counts.
func RenderBookings(w io.Writer, items []bookings.Booking, counts map[bookings.Status]int, colour bool) error {
	summary := make([]string, 0, len(bookings.Statuses))
	for _, s := range bookings.Statuses {
		summary = append(summary, fmt.Sprintf("%s: %d", s.Label(), counts[s]))
	}
	fmt.Fprintln(w, strings.Join(summary, "  "))
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No bookings found.")
		return err
	}
	t := newTable(w)
	fmt.Fprintln(t, "ID\tSTATUS\tDATE\tTIME\tSERVICE\tNAME\tUSER\tNOTES")
	for _, b := range items {
		fmt.Fprintf(t, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, StatusBadge(b.Status, colour), b.BookingDate, b.BookingTime, b.Service, b.FullName, b.Username, b.Notes)
	}
	return t.Flush()
}

// RenderAccounts writes an admin or user list.
func RenderAccounts(w io.Writer, accounts []admin.Account) error {
	t := newTable(w)
	fmt.Fprintln(t, "ID\tUSERNAME\tEMAIL\tNAME\tACTIVE\tREVOKE\tLAST LOGIN")
	for _, a := range accounts {
		lastLogin := "never"
		if a.LastLogin != nil {
			lastLogin = a.LastLogin.Local().Format(timestampLayout)
		}
		fmt.Fprintf(t, "%d\t%s\t%s\t%s\t%t\t%t\t%s\n",
			a.ID, a.Username, a.Email, strings.TrimSpace(a.FirstName+" "+a.LastName), a.IsActive, a.CanRevokeAdmins, lastLogin)
	}
	return t.Flush()
}

// RenderActivityLogs writes the activity log, newest first as served.
func RenderActivityLogs(w io.Writer, logs []admin.ActivityLog) error {
	if len(logs) == 0 {
		_, err := fmt.Fprintln(w, "No activity yet.")
		return err
	}
	t := newTable(w)
	fmt.Fprintln(t, "WHEN\tACTION\tBY\tTARGET\tDETAILS")
	for _, l := range logs {
		fmt.Fprintf(t, "%s\t%s\t%s\t%s\t%s\n", formatTime(l.Timestamp), l.Action, l.PerformedBy, l.TargetUser, l.Details)
	}
	return t.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timestampLayout)
}
