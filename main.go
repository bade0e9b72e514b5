package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"personachat/internal/completion"
	"personachat/internal/config"
	"personachat/internal/db"
	"personachat/internal/service"
	"personachat/internal/store"
	"personachat/internal/ui"
)

var (
	configPath   string
	verbose      bool
	apiKeyFlag   string
	noModeration bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "personachat",
	Short: "Chat with TV-inspired AI personas",
	Long: `personachat is a terminal chat client for a cast of AI personas:
Better Call Saul, SheldonGPT, Wolf of Wall Street, Jarvis and Q.

Replies come from a SambaNova OpenAI-compatible endpoint when an API key is
configured, and from a simulated backend otherwise.

Run without arguments to start the interactive chat interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		logger, err = newLogger(cfg, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveChat()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "SambaNova API key (overrides config and stored key)")
	rootCmd.PersistentFlags().BoolVar(&noModeration, "no-moderation", false, "disable the content filter")

	rootCmd.AddCommand(askCmd, agentsCmd, feedbackCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger writes JSON logs to the configured file so they never mix with
// the terminal UI.
func newLogger(c *config.Config, debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	if debug {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	path := c.GetLogFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}
	return zc.Build()
}

// app is the wired object graph shared by every subcommand.
type app struct {
	conn   *sql.DB
	repo   *db.Repository
	client *completion.Client
	svc    *service.Service
	store  *store.Store
}

func newApp() (*app, error) {
	conn, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	repo := db.NewRepository(conn)

	key, source := resolveAPIKey(repo)
	logger.Info("starting personachat",
		zap.String("api_url", cfg.APIURL),
		zap.String("key_source", source))

	minDelay, maxDelay := cfg.GetMockDelays()
	client := completion.NewClient(key, completion.Options{
		BaseURL:        cfg.APIURL,
		FallbackModel:  cfg.FallbackModel,
		RequestTimeout: cfg.GetRequestTimeout(),
		TopP:           cfg.TopP,
		Mock:           completion.NewMockBackend(minDelay, maxDelay),
		Logger:         logger.Named("completion"),
	})

	moderator := service.NewModerator(cfg.ModerationEnabled && !noModeration, nil, logger.Named("moderation"))
	svc := service.New(client, moderator, logger.Named("service"))

	st := store.New(svc, client, store.Options{
		Credentials: repo,
		Feedback:    repo,
		Logger:      logger.Named("store"),
	})
	if cfg.DefaultAgent != "" {
		if err := st.SelectAgent(cfg.DefaultAgent); err != nil {
			logger.Warn("default agent not available", zap.String("agent", cfg.DefaultAgent), zap.Error(err))
			st.ClearError()
		}
	}

	return &app{conn: conn, repo: repo, client: client, svc: svc, store: st}, nil
}

// resolveAPIKey prefers the flag, then env or config, then the key saved
// from a previous session.
func resolveAPIKey(repo *db.Repository) (key, source string) {
	if k := strings.TrimSpace(apiKeyFlag); k != "" {
		return k, "flag"
	}
	if k := strings.TrimSpace(cfg.APIKey); k != "" {
		return k, "config"
	}
	k, err := repo.LoadAPIKey()
	if err != nil {
		logger.Warn("failed to load stored API key", zap.Error(err))
		return "", "none"
	}
	if k != "" {
		return k, "database"
	}
	return "", "none"
}

func (a *app) Close() {
	a.store.Close()
	if err := a.conn.Close(); err != nil {
		logger.Warn("failed to close database", zap.Error(err))
	}
}

func runInteractiveChat() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, _ := ui.NewProgram(a.store, ui.Options{Logger: logger.Named("ui")})
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}
