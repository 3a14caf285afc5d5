// Package cli implements canonicoctl, a terminal client for the canonical
// collection. It covers the admin page: list, status toggles, edits, and JSON
// export to the clipboard.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/oauth2"

	"github.com/pitabwire/canonico/internal/canonico"
	"github.com/pitabwire/canonico/internal/config"
	"github.com/pitabwire/canonico/internal/invoker"
	"github.com/pitabwire/canonico/internal/metadata"
	"github.com/pitabwire/canonico/internal/schema"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

const envPrefix = "CANONICOCTL"

// Settings are the resolved CLI settings: flags over CANONICOCTL_* env over
// the config file over defaults.
type Settings struct {
	Server  string        `mapstructure:"server"`
	Output  string        `mapstructure:"output"`
	Verbose bool          `mapstructure:"verbose"`
	Timeout time.Duration `mapstructure:"timeout"`
	Token   string        `mapstructure:"token"`
}

// Options configures the command tree. Zero values use the process streams
// and the system clipboard.
type Options struct {
	Out       io.Writer
	Err       io.Writer
	Clipboard metadata.Clipboard
}

type app struct {
	opts     Options
	v        *viper.Viper
	settings Settings
	logger   *zap.Logger
	svc      *canonico.Service
	notifier *colorNotifier
}

// NewRootCommand builds the canonicoctl command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Clipboard == nil {
		opts.Clipboard = SystemClipboard{}
	}

	a := &app{
		opts:     opts,
		v:        viper.New(),
		notifier: newColorNotifier(opts.Out, opts.Err),
	}

	var configFile string
	root := &cobra.Command{
		Use:           "canonicoctl",
		Short:         "Manage canonical configuration records",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  # List active records
  $ canonicoctl list

  # Inactivate a record
  $ canonicoctl inactivate foo

  # Copy a record's JSON to the clipboard
  $ canonicoctl export foo`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), configFile)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default ~/.canonicoctl/config.yaml)")
	flags.StringP("server", "s", config.DefaultBackendBaseURL, "canonical collection URL")
	flags.StringP("output", "o", OutputTable, "output format: table or json")
	flags.BoolP("verbose", "v", false, "log backend requests to stderr")
	flags.Duration("timeout", 10*time.Second, "backend request timeout")
	for _, name := range []string{"server", "output", "verbose", "timeout"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		a.listCommand(),
		a.getCommand(),
		a.createCommand(),
		a.updateCommand(),
		a.statusCommand("activate", "Mark a record active", (*canonico.Service).Activate),
		a.statusCommand("inactivate", "Mark a record inactive", (*canonico.Service).Inactivate),
		a.exportCommand(),
	)
	return root
}

// Execute runs the command tree against the process arguments and prints a
// failure in red.
func Execute(ctx context.Context) int {
	root := NewRootCommand(Options{})
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			printError(os.Stderr, err)
		}
		return 1
	}
	return 0
}

// setup resolves settings and builds the backend service.
func (a *app) setup(ctx context.Context, configFile string) error {
	if err := a.loadSettings(configFile); err != nil {
		return err
	}

	logger := zap.NewNop()
	if a.settings.Verbose {
		logger = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(a.opts.Err),
			zapcore.DebugLevel,
		))
	}
	a.logger = logger

	var clientOpts []invoker.Option
	if a.settings.Token != "" {
		clientOpts = append(clientOpts, invoker.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: a.settings.Token,
			TokenType:   "Bearer",
		})))
	}
	client := invoker.NewClient(config.BackendConfig{Timeout: a.settings.Timeout}, logger, clientOpts...)

	validator, err := schema.Load(ctx)
	if err != nil {
		return err
	}
	a.svc = canonico.NewService(client, a.settings.Server, canonico.WithValidator(validator))
	return nil
}

func (a *app) loadSettings(configFile string) error {
	v := a.v
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("token")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".canonicoctl"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("cli: reading config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return fmt.Errorf("cli: parsing config: %w", err)
	}
	switch s.Output {
	case OutputTable, OutputJSON:
	default:
		return fmt.Errorf("cli: unsupported output %q (want table or json)", s.Output)
	}
	a.settings = s
	return nil
}
