package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/accountstore/internal/cliconfig"
	"github.com/bft-labs/accountstore/pkg/accountstore"
	"github.com/bft-labs/accountstore/pkg/log"
)

const helpDescription = `
Inspect and drive the local account state: lifecycle status, profile,
settings, projects and team.

State lives in a data directory as one JSON file per slot or in a single
BuntDB file. Configure via file, env (ACCOUNTSTORE_*), or flags.
`

var exampleUsage = strings.TrimSpace(`
  accountstore login --email ada@example.com
  accountstore status --json
  accountstore --backend buntdb projects add "Engine"
  accountstore watch --metrics-file /var/lib/node_exporter/accountstore.prom
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries the resolved configuration to subcommands.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	logger  zerolog.Logger
}

func main() {
	c, root := newRootCmd()
	if err := root.Execute(); err != nil {
		c.logger.Error().Err(err).Msg("accountstore")
		os.Exit(1)
	}
}

func newRootCmd() (*cli, *cobra.Command) {
	c := &cli{
		cfg:    cliconfig.DefaultConfig(),
		logger: cliconfig.NewLogger(os.Stderr, "info"),
	}

	root := &cobra.Command{
		Use:           "accountstore",
		Short:         "Inspect and drive the local account state",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig(cmd)
		},
	}

	// Flags
	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.accountstore/config.toml)")
	pf.StringVar(&c.cfg.DataDir, "data-dir", c.cfg.DataDir, "directory holding the persisted slots")
	pf.StringVar(&c.cfg.Backend, "backend", c.cfg.Backend, "storage backend (file|buntdb)")
	pf.StringVar(&c.cfg.AccountKey, "account-key", c.cfg.AccountKey, "slot key of the account record")
	pf.StringVar(&c.cfg.ProjectsKey, "projects-key", c.cfg.ProjectsKey, "slot key of the project list")
	pf.StringVar(&c.cfg.TeamKey, "team-key", c.cfg.TeamKey, "slot key of the team")
	pf.DurationVar(&c.cfg.CleanupAfter, "cleanup-after", c.cfg.CleanupAfter, "age at which an unconfirmed account is eligible for cleanup")
	pf.DurationVar(&c.cfg.GracePeriod, "grace-period", c.cfg.GracePeriod, "how long a deletion request can be cancelled")
	pf.DurationVar(&c.cfg.DebounceDelay, "debounce", c.cfg.DebounceDelay, "coalesce slot writes for this long (0 writes through)")
	pf.DurationVar(&c.cfg.SweepInterval, "sweep-interval", c.cfg.SweepInterval, "how often watch checks for a stale account")
	pf.BoolVar(&c.cfg.PurgeStale, "purge-stale", c.cfg.PurgeStale, "log out an account eligible for cleanup during watch")
	pf.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level (debug|info|warn|error)")
	pf.StringVar(&c.cfg.MetricsFile, "metrics-file", c.cfg.MetricsFile, "write Prometheus metrics to this file on exit")
	pf.BoolVar(&c.cfg.JSON, "json", c.cfg.JSON, "print results as JSON")

	for _, name := range []string{"account-key", "projects-key", "team-key"} {
		if err := pf.MarkHidden(name); err != nil {
			c.logger.Info().Err(err).Str("flag", name).Msg("failed to hide flag")
		}
	}

	root.AddCommand(
		c.loginCmd(),
		c.profileCmd(),
		c.lifecycleCmd("confirm", "Mark the account as confirmed", (*accountstore.AccountStore).Confirm),
		c.lifecycleCmd("request-deletion", "Request account deletion and start the grace period", (*accountstore.AccountStore).RequestDeletion),
		c.lifecycleCmd("cancel-deletion", "Cancel a pending deletion request", (*accountstore.AccountStore).CancelDeletion),
		c.lifecycleCmd("logout", "Log out and clear the account, projects and team", (*accountstore.AccountStore).Logout),
		c.lifecycleCmd("reset", "Clear the account record only", (*accountstore.AccountStore).Reset),
		c.statusCmd(),
		c.settingsCmd(),
		c.projectsCmd(),
		c.teamCmd(),
		c.sweepCmd(),
		c.watchCmd(),
	)

	return c, root
}

// loadConfig resolves file, env and flag configuration in that order of
// increasing precedence.
func (c *cli) loadConfig(cmd *cobra.Command) error {
	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	// Build set of changed flags
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
	}

	// Apply environment variables (ACCOUNTSTORE_*)
	// These override file config but are overridden by flags (checked via changed map)
	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}

	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.logger = cliconfig.NewLogger(os.Stderr, c.cfg.LogLevel)
	c.logger.Debug().Interface("config", c.cfg).Msg("configuration")
	return nil
}

// open creates and opens the store with the resolved configuration.
func (c *cli) open(ctx context.Context, opts ...accountstore.Option) (*accountstore.AccountStore, error) {
	base := []accountstore.Option{
		accountstore.WithLogger(log.NewZerologAdapterWithLogger(c.logger)),
	}
	if c.cfg.MetricsFile != "" {
		base = append(base, accountstore.WithMetrics())
	}

	s, err := accountstore.New(accountstore.Config{
		DataDir:       c.cfg.DataDir,
		Backend:       c.cfg.Backend,
		AccountKey:    c.cfg.AccountKey,
		ProjectsKey:   c.cfg.ProjectsKey,
		TeamKey:       c.cfg.TeamKey,
		CleanupAfter:  c.cfg.CleanupAfter,
		GracePeriod:   c.cfg.GracePeriod,
		DebounceDelay: c.cfg.DebounceDelay,
	}, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	if err := s.Open(ctx); err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

// run opens the store, runs fn and closes the store, writing metrics if
// configured.
func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context, s *accountstore.AccountStore) error, opts ...accountstore.Option) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := c.open(ctx, opts...)
	if err != nil {
		return err
	}

	runErr := fn(ctx, s)

	if err := s.Close(context.Background()); err != nil && runErr == nil {
		runErr = fmt.Errorf("close store: %w", err)
	}
	if err := s.WriteMetrics(c.cfg.MetricsFile); err != nil {
		c.logger.Error().Err(err).Str("path", c.cfg.MetricsFile).Msg("failed to write metrics")
	}
	return runErr
}
