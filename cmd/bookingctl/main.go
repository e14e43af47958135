package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		}
		os.Exit(1)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, rest, err := parseGlobalFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	if len(rest) == 0 || rest[0] == "help" {
		displayAppname("bookingctl")
		printUsage(os.Stdout)
		return nil
	}

	a, err := newApp(ctx, opts, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()
	return dispatch(ctx, a, rest)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
