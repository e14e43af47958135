package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-booking-client/admin"
	"github.com/jrsteele09/go-booking-client/apiclient"
	"github.com/jrsteele09/go-booking-client/credentials"
	"github.com/jrsteele09/go-booking-client/credentials/filestore"
	"github.com/jrsteele09/go-booking-client/credentials/memstore"
	"github.com/jrsteele09/go-booking-client/credentials/sqlitestore"
	"github.com/jrsteele09/go-booking-client/internal/config"
	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/jrsteele09/go-booking-client/internal/logging"
	"github.com/jrsteele09/go-booking-client/profile"
	"github.com/jrsteele09/go-booking-client/resource"
	"github.com/jrsteele09/go-booking-client/session"
	"github.com/jrsteele09/go-booking-client/view"
	"github.com/rs/zerolog/log"
)

var errUsage = errors.New("usage")

type globalOptions struct {
	configFile string
	apiURL     string
	store      string
	yes        bool
	noColor    bool
}

func parseGlobalFlags(args []string, stderr io.Writer) (globalOptions, []string, error) {
	var opts globalOptions
	fs := flag.NewFlagSet("bookingctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configFile, "config", "", "path to a bookingctl.yaml config file")
	fs.StringVar(&opts.apiURL, "api", "", "API base URL (overrides config)")
	fs.StringVar(&opts.store, "store", "", "credential store: memory, file or sqlite (overrides config)")
	fs.BoolVar(&opts.yes, "yes", false, "answer yes to every confirmation")
	fs.BoolVar(&opts.noColor, "no-color", false, "disable coloured status badges")
	fs.Usage = func() { printUsage(stderr) }
	if err := fs.Parse(args); err != nil {
		return opts, nil, errUsage
	}
	return opts, fs.Args(), nil
}

// app is the wiring shared by every subcommand.
type app struct {
	cfg       config.Config
	apiURL    string
	in        io.Reader
	out       io.Writer
	store     credentials.Store
	closers   []func() error
	api       *apiclient.Client
	manager   *session.Manager
	confirmer resource.Confirmer
	colour    bool
}

func newApp(ctx context.Context, opts globalOptions, in io.Reader, out io.Writer) (*app, error) {
	cfg, err := config.New(opts.configFile)
	if err != nil {
		return nil, err
	}
	logging.New(cfg.GetEnv(), os.Stderr)

	a := &app{
		cfg:    cfg,
		apiURL: cfg.GetAPIURL(),
		in:     in,
		out:    out,
		colour: !opts.noColor,
	}
	if opts.apiURL != "" {
		a.apiURL = opts.apiURL
	}
	a.confirmer = view.NewPromptConfirmer(in, out)
	if opts.yes {
		a.confirmer = resource.AlwaysConfirm
	}

	kind := cfg.GetCredentialStore()
	if opts.store != "" {
		kind = config.StoreKind(opts.store)
	}
	if a.store, err = a.openStore(kind); err != nil {
		return nil, err
	}

	if a.api, err = apiclient.New(a.apiURL, a.store); err != nil {
		return nil, err
	}
	if a.manager, err = session.NewManager(a.api, a.store); err != nil {
		return nil, err
	}
	if err := a.manager.Start(ctx); err != nil {
		log.Debug().Err(err).Msg("starting anonymous")
	}
	return a, nil
}

func (a *app) openStore(kind config.StoreKind) (credentials.Store, error) {
	folder := a.cfg.GetDataFolder()
	switch kind {
	case config.StoreMemory:
		return memstore.New(), nil
	case config.StoreSQLite:
		if err := os.MkdirAll(folder, 0o700); err != nil {
			return nil, fmt.Errorf("create data folder: %w", err)
		}
		store, err := sqlitestore.Open(filepath.Join(folder, "credentials.db"), a.apiURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	case config.StoreFile:
		var options []filestore.Option
		if passphrase := a.cfg.GetCredentialPassphrase(); passphrase != "" {
			options = append(options, filestore.WithPassphrase(passphrase))
		}
		return filestore.New(folder, a.apiURL, options...)
	default:
		return nil, apperrors.Wrapf(apperrors.ErrUnsupported, "credential store %q", kind)
	}
}

func (a *app) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			log.Err(err).Msg("close failed")
		}
	}
}

func (a *app) adminConsole() (*admin.Console, error) {
	return admin.New(a.api, a.manager, admin.WithActivityLogLimit(a.cfg.GetActivityLogLimit()))
}

func (a *app) uploader() (profile.Uploader, error) {
	switch a.cfg.GetUploadProvider() {
	case config.UploadObjectStore:
		s := a.cfg.GetObjectStore()
		return profile.NewObjectStoreUploader(profile.ObjectStoreSettings{
			Endpoint:      s.Endpoint,
			AccessKey:     s.AccessKey,
			SecretKey:     s.SecretKey,
			Bucket:        s.Bucket,
			Region:        s.Region,
			UseSSL:        s.UseSSL,
			PublicBaseURL: s.PublicBaseURL,
		})
	default:
		c := a.cfg.GetCloudinary()
		return profile.NewCloudinaryUploader(c.BaseURL, c.CloudName, c.UploadPreset, nil)
	}
}

// requireTab renders access denied and fails when the session may not open tab.
func (a *app) requireTab(tab view.Tab) error {
	err := view.Guard(a.manager.Session(), tab)
	if errors.Is(err, apperrors.ErrAccessDenied) {
		_ = view.RenderAccessDenied(a.out)
		return errUsage
	}
	return err
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrNotAuthenticated), errors.Is(err, apperrors.ErrNoCredential):
		return "not logged in, run: bookingctl login <username>"
	default:
		return apiclient.Message(err, err.Error())
	}
}
