package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/jrsteele09/go-booking-client/users"
	"github.com/jrsteele09/go-booking-client/view"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"login":    loginCommand,
	"register": registerCommand,
	"logout":   logoutCommand,
	"whoami":   whoamiCommand,
	"tabs":     tabsCommand,
	"todos":    group(todoCommands),
	"bookings": group(bookingCommands),
	"admins":   group(adminCommands),
	"users":    group(userCommands),
	"reset":    group(resetCommands),
	"avatar":   avatarCommand,
}

func dispatch(ctx context.Context, a *app, args []string) error {
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(a.out, "unknown command %q\n\n", args[0])
		printUsage(a.out)
		return errUsage
	}
	return cmd(ctx, a, args[1:])
}

func group(sub map[string]command) command {
	return func(ctx context.Context, a *app, args []string) error {
		if len(args) == 0 {
			printUsage(a.out)
			return errUsage
		}
		cmd, ok := sub[args[0]]
		if !ok {
			fmt.Fprintf(a.out, "unknown subcommand %q\n\n", args[0])
			printUsage(a.out)
			return errUsage
		}
		return cmd(ctx, a, args[1:])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: bookingctl [-config file] [-api url] [-store memory|file|sqlite] [-yes] [-no-color] <command>

Session:
  login <username> [-p password]        sign in (password read from stdin when omitted)
  register -username u -email e -password p [-confirm p] [-first f] [-last l]
  logout                                forget the stored credential
  whoami                                show the signed in user
  tabs                                  list the views available to you

Todos:
  todos list [-filter all|active|completed]
  todos add <title> [-d description]
  todos toggle <id>
  todos rename <id> <title>
  todos rm <id>

Bookings:
  bookings list [-status pending|confirmed|cancelled|completed]
  bookings create -service s -date YYYY-MM-DD -time HH:MM [-notes n] [-name n] [-email e] [-user-id id] [-status s]
  bookings edit <id> [-service s] [-date d] [-time t] [-notes n] [-name n] [-email e]
  bookings status <id> <status>
  bookings rm <id>

Administration (super users):
  admins list | admins logs
  admins create -username u -email e -password p [-first f] [-last l] [-can-revoke]
  admins revoke <id>
  users list
  users create -username u -email e -password p [-first f] [-last l] [-question q -answer a]
  users passwd <id> -password p
  users reset-link <id>
  users toggle <id>

Password reset:
  reset request <email> [-wait]
  reset validate <token>
  reset confirm <token> -password p

Profile:
  avatar <image file> | avatar -url <hosted url>
`)
}

// parseFlags parses fs against args, allowing positional arguments before flags.
func parseFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	fs.SetOutput(io.Discard)
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidField, "%s", err.Error())
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func idArg(args []string, index int, what string) (int, error) {
	if len(args) <= index {
		return 0, apperrors.Wrapf(apperrors.ErrMissingField, "%s", what)
	}
	id, err := strconv.Atoi(args[index])
	if err != nil || id <= 0 {
		return 0, apperrors.Wrapf(apperrors.ErrInvalidField, "%s %q", what, args[index])
	}
	return id, nil
}

func readLine(in io.Reader) string {
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

func loginCommand(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	password := fs.String("p", "", "password")
	rest, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return apperrors.Wrapf(apperrors.ErrMissingField, "username")
	}
	if *password == "" {
		a.printf("Password: ")
		*password = readLine(a.in)
	}
	if err := a.manager.Login(ctx, rest[0], *password); err != nil {
		return err
	}
	a.printf("Logged in as %s\n", a.manager.Session().User.DisplayName())
	return nil
}

func registerCommand(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	var reg users.Registration
	fs.StringVar(&reg.Username, "username", "", "username")
	fs.StringVar(&reg.Email, "email", "", "email")
	fs.StringVar(&reg.Password, "password", "", "password")
	fs.StringVar(&reg.ConfirmPassword, "confirm", "", "password confirmation, defaults to -password")
	fs.StringVar(&reg.FirstName, "first", "", "first name")
	fs.StringVar(&reg.LastName, "last", "", "last name")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	if reg.ConfirmPassword == "" {
		reg.ConfirmPassword = reg.Password
	}
	if err := a.manager.Register(ctx, reg); err != nil {
		return err
	}
	a.printf("Registered and logged in as %s\n", reg.Username)
	return nil
}

func logoutCommand(_ context.Context, a *app, _ []string) error {
	if err := a.manager.Logout(); err != nil {
		return err
	}
	a.printf("Logged out\n")
	return nil
}

func whoamiCommand(_ context.Context, a *app, _ []string) error {
	return view.RenderSession(a.out, a.manager.Session())
}

func tabsCommand(_ context.Context, a *app, _ []string) error {
	return view.RenderTabs(a.out, view.Tabs(a.manager.Session()))
}
