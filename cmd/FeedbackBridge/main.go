package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/BTreeMap/FeedbackBridge/internal/api"
	"github.com/BTreeMap/FeedbackBridge/internal/config"
	"github.com/BTreeMap/FeedbackBridge/internal/lockfile"
	"github.com/BTreeMap/FeedbackBridge/internal/messaging"
	"github.com/BTreeMap/FeedbackBridge/internal/ratelimit"
	"github.com/BTreeMap/FeedbackBridge/internal/relay"
	"github.com/BTreeMap/FeedbackBridge/internal/store"
	"github.com/BTreeMap/FeedbackBridge/internal/telegram"
	"github.com/BTreeMap/FeedbackBridge/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for FeedbackBridge state data
	DefaultStateDir = "/var/lib/feedbackbridge"
	// DefaultConfigFileName is the default bot configuration filename
	DefaultConfigFileName = "config.json"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	envCfg := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(envCfg)

	if err := run(flags); err != nil {
		slog.Error("FeedbackBridge failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("FeedbackBridge exited successfully")
}

// Config holds environment configuration
type Config struct {
	StateDir    string
	ConfigPath  string
	DatabaseURL string
	BotToken    string
	APIEndpoint string
	APIAddr     string
	Debug       bool
}

// Flags holds command line flag values
type Flags struct {
	stateDir    *string
	configPath  *string
	dbDSN       *string
	botToken    *string
	apiEndpoint *string
	apiAddr     *string
	debug       *bool
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	envCfg := Config{
		StateDir:    os.Getenv("FEEDBACKBRIDGE_STATE_DIR"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		BotToken:    os.Getenv("BOT_TOKEN"),
		APIEndpoint: os.Getenv("TELEGRAM_API_ENDPOINT"),
		APIAddr:     os.Getenv("API_ADDR"),
		Debug:       util.ParseBoolEnv("FEEDBACKBRIDGE_DEBUG", false),
	}

	// Set default state directory if not specified
	if envCfg.StateDir == "" {
		envCfg.StateDir = DefaultStateDir
		slog.Debug("No FEEDBACKBRIDGE_STATE_DIR set, using default", "default_state_dir", envCfg.StateDir)
	} else {
		slog.Debug("FEEDBACKBRIDGE_STATE_DIR found in environment", "state_dir", envCfg.StateDir)
	}

	// Default config path lives in the state directory
	envCfg.ConfigPath = util.GetenvOr("FEEDBACKBRIDGE_CONFIG", filepath.Join(envCfg.StateDir, DefaultConfigFileName))
	slog.Debug("Configuration path resolved", "config_path", envCfg.ConfigPath)

	slog.Debug("environment variables loaded",
		"FEEDBACKBRIDGE_STATE_DIR", envCfg.StateDir,
		"FEEDBACKBRIDGE_CONFIG", envCfg.ConfigPath,
		"DATABASE_URL_SET", envCfg.DatabaseURL != "",
		"BOT_TOKEN_SET", envCfg.BotToken != "",
		"TELEGRAM_API_ENDPOINT", envCfg.APIEndpoint,
		"API_ADDR", envCfg.APIAddr,
		"FEEDBACKBRIDGE_DEBUG", envCfg.Debug)

	return envCfg
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(envCfg Config) Flags {
	flags := Flags{
		stateDir:    flag.String("state-dir", envCfg.StateDir, "state directory for FeedbackBridge data (overrides $FEEDBACKBRIDGE_STATE_DIR)"),
		configPath:  flag.String("config", envCfg.ConfigPath, "path to bot configuration file (overrides $FEEDBACKBRIDGE_CONFIG)"),
		dbDSN:       flag.String("db-dsn", envCfg.DatabaseURL, "database DSN for the moderation store (overrides $DATABASE_URL; empty uses JSON files)"),
		botToken:    flag.String("bot-token", envCfg.BotToken, "Telegram bot token (overrides $BOT_TOKEN and the config file)"),
		apiEndpoint: flag.String("telegram-api-endpoint", envCfg.APIEndpoint, "Telegram Bot API endpoint (overrides $TELEGRAM_API_ENDPOINT)"),
		apiAddr:     flag.String("api-addr", envCfg.APIAddr, "status API server address (overrides $API_ADDR; empty disables the server)"),
		debug:       flag.Bool("debug", envCfg.Debug, "enable Telegram client debug logging (overrides $FEEDBACKBRIDGE_DEBUG)"),
	}

	flag.Parse()

	// Config path defaulted from the state directory follows a state-dir override
	if *flags.configPath == envCfg.ConfigPath && envCfg.ConfigPath == filepath.Join(envCfg.StateDir, DefaultConfigFileName) && *flags.stateDir != envCfg.StateDir {
		*flags.configPath = filepath.Join(*flags.stateDir, DefaultConfigFileName)
		slog.Debug("Updated config path based on state directory", "config_path", *flags.configPath)
	}

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"configPath", *flags.configPath,
		"dbDSN_set", *flags.dbDSN != "",
		"botToken_set", *flags.botToken != "",
		"apiEndpoint", *flags.apiEndpoint,
		"apiAddr", *flags.apiAddr,
		"debug", *flags.debug)

	return flags
}

// buildStoreOptions constructs moderation store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	storeOpts := []store.Option{store.WithStateDir(*flags.stateDir)}
	if *flags.dbDSN != "" {
		slog.Debug("Database DSN provided, configuring SQL store", "dsn_type", store.DetectDSNType(*flags.dbDSN))
		storeOpts = append(storeOpts, store.WithDSN(*flags.dbDSN))
	} else {
		slog.Debug("No database DSN provided, using JSON file store", "state_dir", *flags.stateDir)
	}
	return storeOpts
}

// buildTelegramOptions constructs Telegram client configuration options
func buildTelegramOptions(flags Flags, token string) []telegram.Option {
	tgOpts := []telegram.Option{telegram.WithToken(token)}
	if *flags.apiEndpoint != "" {
		tgOpts = append(tgOpts, telegram.WithAPIEndpoint(*flags.apiEndpoint))
	}
	if *flags.debug {
		tgOpts = append(tgOpts, telegram.WithDebug())
	}
	return tgOpts
}

// run wires the modules together and blocks until shutdown
func run(flags Flags) error {
	// Hold the state directory for the lifetime of the process
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	cfg, err := config.Load(*flags.configPath)
	if err != nil {
		return err
	}
	if *flags.botToken != "" {
		cfg.Token = *flags.botToken
		slog.Debug("Bot token overridden from environment or flag")
	}

	st, err := store.NewStore(buildStoreOptions(flags)...)
	if err != nil {
		return err
	}
	defer st.Close()

	client, err := telegram.NewClient(buildTelegramOptions(flags, cfg.Token)...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limiter := ratelimit.New(cfg.SlowModeDuration())
	limiter.StartSweeper(ctx)

	svc := messaging.NewTelegramService(client)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	if *flags.apiAddr != "" {
		apiSrv := api.NewServer(*flags.apiAddr, st, limiter)
		apiSrv.Start()
		defer func() {
			if err := apiSrv.Stop(); err != nil {
				slog.Error("Failed to stop status API server", "error", err)
			}
		}()
	}

	slog.Info("FeedbackBridge started",
		"admins", len(cfg.Admins),
		"slow_mode_interval", cfg.SlowModeInterval,
		"banned_users", st.BannedCount(),
		"correlations", st.CorrelationCount())

	engine := relay.NewEngine(svc, st, limiter, cfg)
	return engine.Run(ctx)
}
