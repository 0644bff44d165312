package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"baches/internal/config"
	"baches/internal/geocode"
	"baches/internal/kv"
	"baches/internal/log"
	"baches/internal/models"
	"baches/internal/remote"
	"baches/internal/report"
	"baches/internal/roster"
	"baches/internal/session"
	"baches/internal/storage"
)

var errNotLoggedIn = errors.New("not logged in, run `baches login` first")

type options struct {
	configFile string
	profile    string
	backend    string
	apiURL     string
	verbose    bool
}

// app is built once per invocation, before any subcommand runs.
type app struct {
	opts options

	cfg      *config.AppConfig
	log      zerolog.Logger
	store    kv.Store
	sessions *session.Manager
	reports  *report.Service
	roster   *roster.Service
	geocoder report.Reverser

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

func defaultProfile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "baches-profile.db"
	}
	return filepath.Join(home, ".baches", "profile.db")
}

func (a *app) open(ctx context.Context) error {
	cfg, err := config.LoadFrom(a.opts.configFile)
	if err != nil {
		return err
	}
	if a.opts.backend != "" {
		cfg.Backend = a.opts.backend
	}
	if a.opts.apiURL != "" {
		cfg.Remote.BaseURL = a.opts.apiURL
	}
	a.cfg = cfg

	level := "warn"
	if a.opts.verbose {
		level = "debug"
	}
	a.log = log.NewWithWriter(a.errOut, cfg.Environment, level)

	if dir := filepath.Dir(a.opts.profile); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create profile dir: %w", err)
		}
	}
	store, err := kv.OpenSQLite(ctx, a.opts.profile)
	if err != nil {
		return err
	}
	a.store = store

	var (
		auth session.Authenticator
		repo report.Repository
	)
	switch cfg.Backend {
	case config.BackendRemote:
		client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Timeout, a.log)
		auth = session.NewRemoteAuthenticator(client)
		repo = report.NewRemoteRepository(client)
		a.roster = roster.NewService(client, a.log)
	case config.BackendLocal:
		auth = session.NewLocalAuthenticator(store, cfg.Security.SessionSecret, a.log)
		local := report.NewLocalRepository(store, a.log)
		if err := local.RemoveLegacy(ctx); err != nil {
			a.log.Warn().Err(err).Msg("remove legacy report slot")
		}
		repo = local
	default:
		return fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	a.sessions = session.NewManager(session.NewStore(store, a.log), auth, a.log)
	a.sessions.Restore(ctx)

	a.geocoder = geocode.FromConfig(cfg.Geocode, nil, a.log)

	opts := report.Options{
		Geocoder:      a.geocoder,
		MaxPhotoBytes: int64(cfg.Storage.MaxPhotoMB) << 20,
	}
	if cfg.Storage.Enabled {
		photos, err := storage.NewPhotoStore(cfg.Storage)
		if err != nil {
			return err
		}
		opts.Photos = photos
	}
	a.reports = report.NewService(repo, opts, a.log)

	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

func (a *app) session() (models.Session, error) {
	current := a.sessions.Current()
	if current == nil {
		return models.Session{}, errNotLoggedIn
	}
	return *current, nil
}

// newRootCmd returns the command tree and the app it populates; the caller
// closes the app after Execute.
func newRootCmd(in io.Reader, out, errOut io.Writer) (*cobra.Command, *app) {
	a := &app{
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
	}

	root := &cobra.Command{
		Use:           "baches",
		Short:         "Report and track potholes from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.configFile, "config", "", "config file (default: ./config.yaml when present)")
	flags.StringVar(&a.opts.profile, "profile", defaultProfile(), "profile database holding the session and local reports")
	flags.StringVar(&a.opts.backend, "backend", "", "override the configured backend: local or remote")
	flags.StringVar(&a.opts.apiURL, "api-url", "", "override the hosted API base URL")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newReportsCmd(a),
		newWorkersCmd(a),
		newVehiclesCmd(a),
		newGeocodeCmd(a),
	)
	return root, a
}
