// Package cli wires the configuration, session, API client and todo store
// behind the todo command tree.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"todoboard/internal/api"
	"todoboard/internal/auth"
	"todoboard/internal/clock"
	"todoboard/internal/config"
	"todoboard/internal/log"
	"todoboard/internal/session"
	"todoboard/internal/todo"
	"todoboard/internal/ui"
	"todoboard/internal/weather"
)

// Version is stamped at build time with -ldflags "-X todoboard/internal/cli.Version=...".
var Version = "dev"

// app is the state shared by the commands of one invocation.
type app struct {
	configPath string

	cfg     config.Config
	loc     *time.Location
	session *session.Store
	gate    *auth.Gate
	client  *api.Client
	store   *todo.Store
	closers []io.Closer
}

func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "todo",
		Short:        "Todo board for the terminal",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         a.runTUI,
	}
	root.Version = Version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "client config file (default $TODOBOARD_CONFIG or the user config dir)")

	root.AddCommand(
		newServeCmd(),
		a.newListCmd(),
		a.newExportCmd(),
		a.newImportCmd(),
		a.newLoginCmd(),
		a.newLogoutCmd(),
		a.newCalCmd(),
		a.newWeatherCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}

// load reads the client config and builds the session-backed store. The
// TUI owns the terminal, so its log lines go to the configured log file.
func (a *app) load(logToFile bool) error {
	path := a.configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	log.SetLevel(cfg.LogLevel)

	if logToFile {
		f, err := openLogFile(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		log.SetOutput(f)
		a.closers = append(a.closers, f)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Warn("unknown timezone, using local time", "timezone", cfg.Timezone)
	}
	a.loc = loc

	sess, err := session.Open(cfg.SessionDB, cfg.SessionScope)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	a.session = sess
	a.closers = append(a.closers, sess)

	a.gate = auth.New(sess)
	a.client = api.NewClient(cfg.ServerURL, a.gate)
	a.store = todo.New(a.client, loc)
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Warn("close failed", "err", err)
		}
	}
	a.closers = nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// refresh loads the collection, turning a missing or rejected credential
// into a hint to log in.
func (a *app) refresh(cmd *cobra.Command) error {
	err := a.store.Refresh(cmd.Context())
	if errors.Is(err, todo.ErrAuthRequired) {
		return errors.New("not signed in: run `todo login`")
	}
	return err
}

func (a *app) runTUI(cmd *cobra.Command, args []string) error {
	if err := a.load(true); err != nil {
		return err
	}
	defer a.close()

	opts := ui.Options{
		Config: a.cfg,
		Store:  a.store,
		Gate:   a.gate,
		Clock:  clock.Real{Location: a.loc},
	}
	if a.cfg.Weather.Enabled {
		opts.Weather = weather.NewClient(a.cfg.ServerURL, a.gate)
	}
	log.Info("starting tui", "server", a.cfg.ServerURL)
	return ui.Run(opts)
}
