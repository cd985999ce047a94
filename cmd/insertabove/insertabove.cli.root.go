package main

import (
	"errors"
	"io"
	"time"

	"github.com/itsatony/go-insertabove"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// globalFlags are shared by every command. Flags win over the config file.
type globalFlags struct {
	configPath string
	dir        string
	storage    string
	dsn        string
	mediaURL   string
	debug      bool
	cacheTTL   time.Duration
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   CLIName,
		Short: "Render pongo2 templates with insert above tags",
		Long: `insertabove renders templates in which fragments declared anywhere in the
template tree are collected and emitted at a container placed earlier in the page.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, FlagConfig, FlagConfigShort, "", "YAML config file")
	pf.StringVar(&flags.dir, FlagDir, "", "template directory (default \".\" when no storage is configured)")
	pf.StringVar(&flags.storage, FlagStorage, "", "storage driver: memory, filesystem, postgres, redis")
	pf.StringVar(&flags.dsn, FlagDSN, "", "storage connection string")
	pf.StringVar(&flags.mediaURL, FlagMediaURL, "", "prefix for relative asset URLs")
	pf.BoolVar(&flags.debug, FlagDebug, false, "log insert tag timing")
	pf.DurationVar(&flags.cacheTTL, FlagCacheTTL, 0, "cache stored templates in memory for this long (0 disables)")

	root.AddCommand(
		newRenderCmd(flags),
		newServeCmd(flags),
		newFormatsCmd(flags),
		newTemplatesCmd(flags),
		newVersionCmd(),
	)
	return root
}

// cliEnv is the engine and its supporting pieces for one command run.
type cliEnv struct {
	config   *insertabove.Config
	engine   *insertabove.Engine
	storage  insertabove.TemplateStorage
	registry *prometheus.Registry
	logger   *zap.Logger
}

// open builds the engine described by the config file and flags. Logs go to stderr.
func (f *globalFlags) open(stderr io.Writer) (*cliEnv, error) {
	cfg := &insertabove.Config{}
	if f.configPath != "" {
		loaded, err := insertabove.LoadConfig(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if f.dir != "" {
		cfg.Templates.Dir = f.dir
	}
	if f.storage != "" {
		cfg.Storage.Driver = f.storage
		cfg.Storage.DSN = f.dsn
	}
	if f.mediaURL != "" {
		cfg.Media.URL = f.mediaURL
	}
	if f.debug {
		cfg.Debug = true
	}
	if f.cacheTTL > 0 {
		cfg.Storage.CacheTTL = f.cacheTTL
	}
	if cfg.Templates.Dir == "" && cfg.Storage.Driver == "" {
		cfg.Templates.Dir = FlagDefaultDir
	}

	logger := newLogger(stderr, cfg.Debug)

	opts, storage, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics, err := insertabove.NewMetrics(registry)
	if err != nil {
		closeStorage(storage)
		return nil, err
	}
	opts = append(opts, insertabove.WithLogger(logger), insertabove.WithMetrics(metrics))

	engine, err := insertabove.New(opts...)
	if err != nil {
		closeStorage(storage)
		return nil, err
	}
	// One engine per process: let the media_tag filter follow its settings.
	insertabove.SetDefaultMediaFormatter(engine.Formatter())

	logger.Debug(insertabove.LogMsgConfigLoaded,
		zap.String(insertabove.LogFieldPath, f.configPath),
		zap.String(insertabove.LogFieldMediaURL, engine.Formatter().BaseURL()),
	)

	return &cliEnv{
		config:   cfg,
		engine:   engine,
		storage:  storage,
		registry: registry,
		logger:   logger,
	}, nil
}

// Close releases the engine and any storage opened for it.
func (e *cliEnv) Close() error {
	err := e.engine.Close()
	if e.storage != nil {
		err = errors.Join(err, e.storage.Close())
	}
	_ = e.logger.Sync()
	return err
}

func closeStorage(storage insertabove.TemplateStorage) {
	if storage != nil {
		_ = storage.Close()
	}
}

// newLogger writes console-encoded logs to w. Only warnings are shown unless debug is set.
func newLogger(w io.Writer, debug bool) *zap.Logger {
	level := zapcore.WarnLevel
	if debug {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core)
}
