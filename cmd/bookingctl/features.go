package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-booking-client/admin"
	"github.com/jrsteele09/go-booking-client/bookings"
	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/jrsteele09/go-booking-client/internal/utils"
	"github.com/jrsteele09/go-booking-client/passwordreset"
	"github.com/jrsteele09/go-booking-client/profile"
	"github.com/jrsteele09/go-booking-client/resource"
	"github.com/jrsteele09/go-booking-client/todos"
	"github.com/jrsteele09/go-booking-client/view"
)

var todoCommands = map[string]command{
	"list": func(ctx context.Context, a *app, args []string) error {
		fs := flag.NewFlagSet("todos list", flag.ContinueOnError)
		name := fs.String("filter", string(todos.FilterAll), "all, active or completed")
		if _, err := parseFlags(fs, args); err != nil {
			return err
		}
		filter, err := todos.ParseFilter(*name)
		if err != nil {
			return err
		}
		list, err := a.loadTodos(ctx)
		if err != nil {
			return err
		}
		return view.RenderTodos(a.out, list, filter)
	},
	"add": func(ctx context.Context, a *app, args []string) error {
		fs := flag.NewFlagSet("todos add", flag.ContinueOnError)
		description := fs.String("d", "", "description")
		rest, err := parseFlags(fs, args)
		if err != nil {
			return err
		}
		list, err := a.loadTodos(ctx)
		if err != nil {
			return err
		}
		created, err := list.Add(ctx, strings.Join(rest, " "), *description)
		if err != nil {
			return err
		}
		a.printf("Added todo %d\n", created.ID)
		return view.RenderTodos(a.out, list, todos.FilterAll)
	},
	"toggle": func(ctx context.Context, a *app, args []string) error {
		id, err := idArg(args, 0, "todo id")
		if err != nil {
			return err
		}
		list, err := a.loadTodos(ctx)
		if err != nil {
			return err
		}
		if _, err := list.Toggle(ctx, id); err != nil {
			return err
		}
		return view.RenderTodos(a.out, list, todos.FilterAll)
	},
	"rename": func(ctx context.Context, a *app, args []string) error {
		id, err := idArg(args, 0, "todo id")
		if err != nil {
			return err
		}
		list, err := a.loadTodos(ctx)
		if err != nil {
			return err
		}
		if _, err := list.Rename(ctx, id, strings.Join(args[1:], " ")); err != nil {
			return err
		}
		return view.RenderTodos(a.out, list, todos.FilterAll)
	},
	"rm": func(ctx context.Context, a *app, args []string) error {
		id, err := idArg(args, 0, "todo id")
		if err != nil {
			return err
		}
		list, err := a.loadTodos(ctx)
		if err != nil {
			return err
		}
		if err := list.Delete(ctx, id, a.confirmer); err != nil {
			return err
		}
		return view.RenderTodos(a.out, list, todos.FilterAll)
	},
}

func (a *app) loadTodos(ctx context.Context) (*todos.List, error) {
	if err := a.requireTab(view.TabTodos); err != nil {
		return nil, err
	}
	list, err := todos.New(a.api)
	if err != nil {
		return nil, err
	}
	return list, list.List(ctx)
}

// bookingFlags binds the booking form fields shared by create and edit.
type bookingFlags struct {
	fs                                       *flag.FlagSet
	service, date, clock, notes, name, email string
	userID                                   int
	status                                   string
}

func newBookingFlags(name string) *bookingFlags {
	f := &bookingFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	f.fs.StringVar(&f.service, "service", "", "one of: "+strings.Join(bookings.ServiceOptions, ", "))
	f.fs.StringVar(&f.date, "date", "", "booking date, YYYY-MM-DD")
	f.fs.StringVar(&f.clock, "time", "", "booking time, HH:MM")
	f.fs.StringVar(&f.notes, "notes", "", "notes")
	f.fs.StringVar(&f.name, "name", "", "full name")
	f.fs.StringVar(&f.email, "email", "", "contact email")
	f.fs.IntVar(&f.userID, "user-id", 0, "book on behalf of this user (super users)")
	f.fs.StringVar(&f.status, "status", "", "initial status (super users)")
	return f
}

// set reports whether flag name was given on the command line.
func (f *bookingFlags) set(name string) bool {
	found := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

func (f *bookingFlags) request(prefill bookings.Request) (bookings.Request, error) {
	req := prefill
	req.Service = f.service
	req.BookingDate = f.date
	req.BookingTime = f.clock
	req.Notes = f.notes
	if f.set("name") {
		req.FullName = f.name
	}
	if f.set("email") {
		req.Email = f.email
	}
	if f.set("user-id") {
		req.UserID = utils.Ptr(f.userID)
	}
	if f.set("status") {
		status, err := bookings.ParseStatus(f.status)
		if err != nil {
			return req, err
		}
		req.Status = status
	}
	return req, nil
}

func (f *bookingFlags) patch() (bookings.Patch, error) {
	var p bookings.Patch
	fields := []struct {
		name  string
		value *string
		dst   **string
	}{
		{"service", &f.service, &p.Service},
		{"date", &f.date, &p.BookingDate},
		{"time", &f.clock, &p.BookingTime},
		{"notes", &f.notes, &p.Notes},
		{"name", &f.name, &p.FullName},
		{"email", &f.email, &p.Email},
	}
	for _, field := range fields {
		if f.set(field.name) {
			*field.dst = field.value
		}
	}
	if f.set("status") {
		status, err := bookings.ParseStatus(f.status)
		if err != nil {
			return p, err
		}
		p.Status = utils.Ptr(status)
	}
	return p, nil
}

var bookingCommands = map[string]command{
	"list": func(ctx context.Context, a *app, args []string) error {
		fs := flag.NewFlagSet("bookings list", flag.ContinueOnError)
		status := fs.String("status", "", "only show bookings with this status")
		if _, err := parseFlags(fs, args); err != nil {
			return err
		}
		b, err := a.loadBookings(ctx, view.TabViewBookings)
		if err != nil {
			return err
		}
		items := b.Items()
		if *status != "" {
			s, err := bookings.ParseStatus(*status)
			if err != nil {
				return err
			}
			items = b.ByStatus(s)
		}
		return view.RenderBookings(a.out, items, b.Counts(), a.colour)
	},
	"create": func(ctx context.Context, a *app, args []string) error {
		f := newBookingFlags("bookings create")
		if _, err := parseFlags(f.fs, args); err != nil {
			return err
		}
		b, err := a.loadBookings(ctx, view.TabCreateBooking)
		if err != nil {
			return err
		}
		req, err := f.request(b.Prefill())
		if err != nil {
			return err
		}
		created, err := b.Create(ctx, req)
		if err != nil {
			return err
		}
		a.printf("Booking %d created for %s at %s %s\n", created.ID, created.Service, created.BookingDate, created.BookingTime)
		return nil
	},
	"edit": func(ctx context.Context, a *app, args []string) error {
		f := newBookingFlags("bookings edit")
		rest, err := parseFlags(f.fs, args)
		if err != nil {
			return err
		}
		id, err := idArg(rest, 0, "booking id")
		if err != nil {
			return err
		}
		patch, err := f.patch()
		if err != nil {
			return err
		}
		b, err := a.loadBookings(ctx, view.TabViewBookings)
		if err != nil {
			return err
		}
		if _, err := b.Edit(ctx, id, patch); err != nil {
			return err
		}
		return view.RenderBookings(a.out, b.Items(), b.Counts(), a.colour)
	},
	"status": func(ctx context.Context, a *app, args []string) error {
		id, err := idArg(args, 0, "booking id")
		if err != nil {
			return err
		}
		if len(args) < 2 {
			return apperrors.Wrapf(apperrors.ErrMissingField, "status")
		}
		status, err := bookings.ParseStatus(args[1])
		if err != nil {
			return err
		}
		b, err := a.loadBookings(ctx, view.TabViewBookings)
		if err != nil {
			return err
		}
		if _, err := b.SetStatus(ctx, id, status); err != nil {
			return err
		}
		return view.RenderBookings(a.out, b.Items(), b.Counts(), a.colour)
	},
	"rm": func(ctx context.Context, a *app, args []string) error {
		id, err := idArg(args, 0, "booking id")
		if err != nil {
			return err
		}
		b, err := a.loadBookings(ctx, view.TabViewBookings)
		if err != nil {
			return err
		}
		if err := b.Delete(ctx, id, a.confirmer); err != nil {
			return err
		}
		return view.RenderBookings(a.out, b.Items(), b.Counts(), a.colour)
	},
}

func (a *app) loadBookings(ctx context.Context, tab view.Tab) (*bookings.Bookings, error) {
	if err := a.requireTab(tab); err != nil {
		return nil, err
	}
	b, err := bookings.New(a.api, a.manager)
	if err != nil {
		return nil, err
	}
	return b, b.List(ctx)
}

// accountFlags binds the create form shared by admins and users.
func accountFlags(name string) (*flag.FlagSet, *admin.NewAccount) {
	var form admin.NewAccount
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&form.Username, "username", "", "username")
	fs.StringVar(&form.Email, "email", "", "email")
	fs.StringVar(&form.Password, "password", "", "password")
	fs.StringVar(&form.ConfirmPassword, "confirm", "", "password confirmation, defaults to -password")
	fs.StringVar(&form.FirstName, "first", "", "first name")
	fs.StringVar(&form.LastName, "last", "", "last name")
	return fs, &form
}

func defaultConfirm(form *admin.NewAccount) {
	if form.ConfirmPassword == "" {
		form.ConfirmPassword = form.Password
	}
}

func (a *app) console(tab view.Tab) (*admin.Console, error) {
	if err := a.requireTab(tab); err != nil {
		return nil, err
	}
	return a.adminConsole()
}

// findAccount returns the account with id from a loaded collection.
func findAccount(collection *resource.Collection[admin.Account], id int) (admin.Account, error) {
	account, ok := collection.Find(id)
	if !ok {
		return admin.Account{}, apperrors.Wrapf(apperrors.ErrNotFound, "account %d", id)
	}
	return account, nil
}

var adminCommands = map[string]command{
	"list": func(ctx context.Context, a *app, _ []string) error {
		c, err := a.console(view.TabAdmins)
		if err != nil {
			return err
		}
		if err := c.LoadAdmins(ctx); err != nil {
			return err
		}
		return view.RenderAccounts(a.out, c.Admins.Items())
	},
	"logs": func(ctx context.Context, a *app, _ []string) error {
		c, err := a.console(view.TabActivityLogs)
		if err != nil {
			return err
		}
		if err := c.LoadActivityLogs(ctx); err != nil {
			return err
		}
		return view.RenderActivityLogs(a.out, c.Logs.Items())
	},
	"create": func(ctx context.Context, a *app, args []string) error {
		fs, form := accountFlags("admins create")
		canRevoke := fs.Bool("can-revoke", false, "allow the new admin to revoke other admins")
		if _, err := parseFlags(fs, args); err != nil {
			return err
		}
		defaultConfirm(form)
		c, err := a.console(view.TabAdmins)
		if err != nil {
			return err
		}
		msg, err := c.CreateAdmin(ctx, admin.NewAdmin{
			Username:        form.Username,
			Email:           form.Email,
			Password:        form.Password,
			ConfirmPassword: form.ConfirmPassword,
			FirstName:       form.FirstName,
			LastName:        form.LastName,
			CanRevokeAdmins: *canRevoke,
		})
		if err != nil {
			return err
		}
		a.printf("%s\n", msg)
		return view.RenderAccounts(a.out, c.Admins.Items())
	},
	"revoke": func(ctx context.Context, a *app, args []string) error {
		id, err := idArg(args, 0, "admin id")
		if err != nil {
			return err
		}
		c, err := a.console(view.TabAdmins)
		if err != nil {
			return err
		}
		if err := c.Admins.List(ctx); err != nil {
			return err
		}
		target, err := findAccount(c.Admins, id)
		if err != nil {
			return err
		}
		msg, err := c.RevokeAdmin(ctx, target, a.confirmer)
		if err != nil {
			return err
		}
		a.printf("%s\n", msg)
		return view.RenderAccounts(a.out, c.Admins.Items())
	},
}

var userCommands = map[string]command{
	"list": func(ctx context.Context, a *app, _ []string) error {
		c, err := a.console(view.TabUsers)
		if err != nil {
			return err
		}
		if err := c.LoadUsers(ctx); err != nil {
			return err
		}
		return view.RenderAccounts(a.out, c.Users.Items())
	},
	"create": func(ctx context.Context, a *app, args []string) error {
		fs, form := accountFlags("users create")
		fs.StringVar(&form.Memorable.Question, "question", "", "memorable question: "+strings.Join(admin.MemorableQuestions, ", "))
		fs.StringVar(&form.Memorable.Answer, "answer", "", "memorable answer")
		if _, err := parseFlags(fs, args); err != nil {
			return err
		}
		defaultConfirm(form)
		c, err := a.console(view.TabUsers)
		if err != nil {
			return err
		}
		msg, err := c.CreateUser(ctx, *form)
		if err != nil {
			return err
		}
		a.printf("%s\n", msg)
		return view.RenderAccounts(a.out, c.Users.Items())
	},
	"passwd": func(ctx context.Context, a *app, args []string) error {
		fs := flag.NewFlagSet("users passwd", flag.ContinueOnError)
		password := fs.String("password", "", "new password")
		confirm := fs.String("confirm", "", "password confirmation, defaults to -password")
		rest, err := parseFlags(fs, args)
		if err != nil {
			return err
		}
		id, err := idArg(rest, 0, "user id")
		if err != nil {
			return err
		}
		if *confirm == "" {
			*confirm = *password
		}
		c, err := a.console(view.TabUsers)
		if err != nil {
			return err
		}
		msg, err := c.ChangePassword(ctx, id, *password, *confirm)
		if err != nil {
			return err
		}
		a.printf("%s\n", msg)
		return nil
	},
	"reset-link": func(ctx context.Context, a *app, args []string) error {
		id, err := idArg(args, 0, "user id")
		if err != nil {
			return err
		}
		c, err := a.console(view.TabUsers)
		if err != nil {
			return err
		}
		msg, err := c.SendResetLink(ctx, id)
		if err != nil {
			return err
		}
		a.printf("%s\n", msg)
		return nil
	},
	"toggle": func(ctx context.Context, a *app, args []string) error {
		id, err := idArg(args, 0, "user id")
		if err != nil {
			return err
		}
		c, err := a.console(view.TabUsers)
		if err != nil {
			return err
		}
		if err := c.Users.List(ctx); err != nil {
			return err
		}
		target, err := findAccount(c.Users, id)
		if err != nil {
			return err
		}
		msg, err := c.ToggleActive(ctx, target, a.confirmer)
		if err != nil {
			return err
		}
		a.printf("%s\n", msg)
		return view.RenderAccounts(a.out, c.Users.Items())
	},
}

var resetCommands = map[string]command{
	"request": func(ctx context.Context, a *app, args []string) error {
		fs := flag.NewFlagSet("reset request", flag.ContinueOnError)
		wait := fs.Bool("wait", false, "when rate limited, wait out the cooldown and retry once")
		rest, err := parseFlags(fs, args)
		if err != nil {
			return err
		}
		if len(rest) == 0 {
			return apperrors.Wrapf(apperrors.ErrMissingField, "email")
		}
		client, err := passwordreset.New(a.api)
		if err != nil {
			return err
		}
		msg, err := client.Request(ctx, rest[0])
		if cooldown, active := client.Cooldown(); err != nil && active && *wait {
			fmt.Fprintln(a.out, cooldown.Message)
			if err := view.RunCountdown(ctx, a.out, "Try again in", cooldown.Until, passwordreset.NowTimeFunc, time.Second); err != nil {
				return err
			}
			msg, err = client.Request(ctx, rest[0])
		}
		if err != nil {
			return err
		}
		a.printf("%s\n", msg)
		return nil
	},
	"validate": func(ctx context.Context, a *app, args []string) error {
		if len(args) == 0 {
			return apperrors.Wrapf(apperrors.ErrMissingField, "token")
		}
		client, err := passwordreset.New(a.api)
		if err != nil {
			return err
		}
		result, err := client.Validate(ctx, args[0])
		if err != nil {
			return err
		}
		if !result.Valid {
			a.printf("Invalid reset link: %s\n", result.Error)
			return errUsage
		}
		a.printf("%s\n", result.Message)
		return nil
	},
	"confirm": func(ctx context.Context, a *app, args []string) error {
		fs := flag.NewFlagSet("reset confirm", flag.ContinueOnError)
		password := fs.String("password", "", "new password")
		confirm := fs.String("confirm", "", "password confirmation, defaults to -password")
		rest, err := parseFlags(fs, args)
		if err != nil {
			return err
		}
		if len(rest) == 0 {
			return apperrors.Wrapf(apperrors.ErrMissingField, "token")
		}
		if *confirm == "" {
			*confirm = *password
		}
		client, err := passwordreset.New(a.api)
		if err != nil {
			return err
		}
		msg, err := client.Confirm(ctx, rest[0], *password, *confirm)
		if err != nil {
			return err
		}
		a.printf("%s\n", msg)
		return nil
	},
}

func avatarCommand(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("avatar", flag.ContinueOnError)
	hosted := fs.String("url", "", "record an already hosted picture URL")
	maxBytes := fs.Int64("max-bytes", 0, "largest accepted file size in bytes")
	rest, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := a.requireTab(view.TabProfile); err != nil {
		return err
	}
	options := []profile.ServiceOption{profile.WithMaxBytes(a.cfg.GetMaxUploadBytes())}
	if *maxBytes > 0 {
		options = append(options, profile.WithMaxBytes(*maxBytes))
	}
	var uploader profile.Uploader
	if *hosted == "" && len(rest) > 0 {
		if uploader, err = a.uploader(); err != nil {
			return err
		}
	}
	service, err := profile.NewService(a.api, uploader, a.manager, options...)
	if err != nil {
		return err
	}
	var pictureURL string
	switch {
	case *hosted != "":
		pictureURL, err = service.SetPictureURL(ctx, *hosted)
	case len(rest) > 0:
		pictureURL, err = service.UploadFile(ctx, rest[0])
	default:
		return apperrors.Wrapf(apperrors.ErrMissingField, "image file")
	}
	if err != nil {
		return err
	}
	a.printf("Profile picture updated: %s\n", pictureURL)
	return view.RenderSession(a.out, a.manager.Session())
}
