package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-booking-client/fakeapi"
	"github.com/jrsteele09/go-booking-client/internal/config"
	"github.com/jrsteele09/go-booking-client/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running fake API")
	}
	log.Info().Msg("Fake API stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New("")
	if err != nil {
		return err
	}
	logging.New(c.GetEnv(), os.Stderr)
	displayAppname(c.GetAppName() + " API")

	api := fakeapi.New(fakeapi.WithEnv(c.GetEnv()))
	seed := c.GetDevAPIAdmin()
	id := api.AddUser(fakeapi.UserSeed{
		Username:        seed.Username,
		Email:           seed.Email,
		Password:        seed.Password,
		FirstName:       "Site",
		LastName:        "Admin",
		Superuser:       true,
		CanRevokeAdmins: true,
	})
	log.Info().Int("id", id).Str("username", seed.Username).Msg("Seeded super user")

	server := &http.Server{Addr: c.GetDevAPIAddr(), Handler: api, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(server) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Fake API listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
