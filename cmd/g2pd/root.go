package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"g2pd/internal/backend"
	"g2pd/internal/config"
	"g2pd/internal/manager"
	"g2pd/internal/registry"
)

// app carries state shared by the subcommands once the persistent flags
// have been resolved.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "g2pd",
		Short:         "Grapheme-to-phoneme manifest conversion",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (.yaml, .json or .toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults G2PD_LOG_LEVEL or info)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "console", "Log format: console|json")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup(cmd.ErrOrStderr())
	}

	root.AddCommand(newConvertCmd(a), newModelsCmd(a), newServeCmd(a), newVersionCmd())
	return root
}

// setup layers defaults < config file < environment < flags and builds the
// logger.
func (a *app) setup(logOut io.Writer) error {
	var cfg config.Config
	if a.configPath != "" {
		c, err := config.Load(a.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	cfg.ApplyDefaults()
	a.cfg = cfg

	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	switch a.logFormat {
	case "json":
	case "", "console":
		logOut = zerolog.ConsoleWriter{Out: logOut, TimeFormat: time.RFC3339}
	default:
		return fmt.Errorf("invalid log format %q (want console or json)", a.logFormat)
	}
	a.log = zerolog.New(logOut).Level(lvl).With().Timestamp().Logger()
	return nil
}

func (a *app) backendOptions() backend.Options {
	c := a.cfg
	return backend.Options{
		Remote: backend.RemoteOptions{
			URL:     c.Remote.URL,
			APIKey:  c.Remote.APIKey,
			Timeout: time.Duration(c.Remote.TimeoutSeconds) * time.Second,
			RPS:     c.Remote.RPS,
			Burst:   c.Remote.Burst,
		},
		OpenAI: backend.OpenAIOptions{
			APIKey:  firstNonEmpty(c.OpenAI.APIKey, os.Getenv("OPENAI_API_KEY")),
			BaseURL: c.OpenAI.BaseURL,
			Model:   c.OpenAI.Model,
		},
		Llama: backend.LlamaOptions{
			CtxSize: c.Llama.CtxSize,
			Threads: c.Llama.Threads,
		},
		Lexicon: backend.LexiconOptions{
			CacheTTL: time.Duration(c.Lexicon.CacheTTLSeconds) * time.Second,
		},
	}
}

// newStore builds the catalog store from the catalog file and models dir.
func (a *app) newStore() (*registry.Store, error) {
	storeLog := a.log.With().Str("component", "registry").Logger()
	return registry.NewStore(registry.StoreConfig{
		CatalogPath:  a.cfg.Catalog,
		ModelsDir:    a.cfg.ModelsDir,
		ModelsFamily: a.cfg.ModelsFamily,
		Root:         a.cfg.Family,
		Logger:       &storeLog,
	})
}

func (a *app) newManager(store *registry.Store) *manager.Manager {
	mgrLog := a.log.With().Str("component", "manager").Logger()
	return manager.NewWithConfig(manager.ManagerConfig{
		Store:          store,
		BackendOptions: a.backendOptions(),
		Family:         a.cfg.Family,
		DefaultVariant: a.cfg.DefaultVariant,
		Defaults: manager.ConvertDefaults{
			GraphemeField: a.cfg.GraphemeField,
			PredField:     a.cfg.PredField,
			BatchSize:     a.cfg.BatchSize,
			NumWorkers:    a.cfg.NumWorkers,
		},
		MaxQueueDepth: a.cfg.MaxQueueDepth,
		MaxWait:       a.cfg.MaxWait(),
		Logger:        &mgrLog,
	})
}

func firstNonEmpty(v ...string) string {
	for _, s := range v {
		if s != "" {
			return s
		}
	}
	return ""
}
