// Package main provides shelfctl, a maintenance CLI for a shelfwise database.
//
// Usage:
//
//	shelfctl seed fixtures.yaml
//	shelfctl token alice
//	shelfctl setop --as alice --op intersect --shelf alice/read --shelf bob/read
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shelfwise/shelfwise-server/internal/auth"
	"github.com/shelfwise/shelfwise-server/internal/config"
	"github.com/shelfwise/shelfwise-server/internal/logger"
	"github.com/shelfwise/shelfwise-server/internal/service"
	"github.com/shelfwise/shelfwise-server/internal/store/sqlite"
	"github.com/shelfwise/shelfwise-server/internal/validation"
)

var (
	// Global flags
	dbPath   string
	keyPath  string
	logLevel string
)

// rootCmd is the base command; subcommands open the database on demand.
var rootCmd = &cobra.Command{
	Use:           "shelfctl",
	Short:         "Maintenance tools for a shelfwise database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "Path to the SQLite database (default: DB_PATH or ~/Shelfwise/shelfwise.db)")
	rootCmd.PersistentFlags().StringVar(&keyPath, "key-path", "", "Path to the token signing key (default: next to the database)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(seedCmd, tokenCmd, setopCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app is the wiring a subcommand needs, built from the same config the
// server reads.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	store    *sqlite.Store
	users    *service.UserService
	taxonomy *service.TaxonomyService
	labels   *service.LabelResolver
	shelves  *service.ShelfService
	setops   *service.SetOperationEngine
}

func openApp() (*app, error) {
	args := []string{"--log-level", logLevel}
	if dbPath != "" {
		args = append(args, "--db-path", dbPath)
	}
	if keyPath != "" {
		args = append(args, "--key-path", keyPath)
	}

	cfg, err := config.Load(args)
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Writer:      os.Stderr,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	st, err := sqlite.Open(cfg.Database.Path, log.Logger)
	if err != nil {
		return nil, err
	}

	return newApp(cfg, log, st), nil
}

func newApp(cfg *config.Config, log *logger.Logger, st *sqlite.Store) *app {
	v := validation.New()
	guard := service.NewAccessGuard(st, log.Logger)

	return &app{
		cfg:      cfg,
		log:      log,
		store:    st,
		users:    service.NewUserService(st, v, log.Logger),
		taxonomy: service.NewTaxonomyService(st, v, log.Logger),
		labels:   service.NewLabelResolver(st, guard, nil, log.Logger),
		shelves:  service.NewShelfService(st, guard, v, log.Logger),
		setops: service.NewSetOperationEngine(st, guard, service.NewResultMaterializer(log.Logger),
			log.Logger, cfg.SetOps.MaxOperandItems),
	}
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Error("Failed to close database", "error", err)
	}
	_ = a.log.Close()
}

func (a *app) tokenService() (*auth.TokenService, error) {
	key, err := auth.LoadOrGenerateKey(a.cfg.Auth.KeyPath)
	if err != nil {
		return nil, err
	}
	return auth.NewTokenService(key, a.cfg.Auth.AccessTokenDuration)
}
