package view

import "github.com/jrsteele09/go-booking-client/bookings"

const (
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Gray   = "\033[90m"

	// Inverse video colors
	GreenInverse  = "\033[7;32m"
	YellowInverse = "\033[7;33m"
	RedInverse    = "\033[7;31m"
	BlueInverse   = "\033[7;34m"

	ResetColor = "\033[0m"
)

var statusColors = map[bookings.Status]string{
	bookings.StatusPending:   YellowInverse,
	bookings.StatusConfirmed: GreenInverse,
	bookings.StatusCancelled: RedInverse,
	bookings.StatusCompleted: BlueInverse,
}

// StatusBadge renders status as a label, coloured when colour is set.
func StatusBadge(status bookings.Status, colour bool) string {
	label := status.Label()
	if !colour {
		return "[" + label + "]"
	}
	c, ok := statusColors[status]
	if !ok {
		c = Gray
	}
	return c + " " + label + " " + ResetColor
}
