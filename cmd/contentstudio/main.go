package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Praveenbabu5991/ContentStudio/internal/api"
	"github.com/Praveenbabu5991/ContentStudio/internal/capability"
	"github.com/Praveenbabu5991/ContentStudio/internal/flow"
	"github.com/Praveenbabu5991/ContentStudio/internal/genai"
	"github.com/Praveenbabu5991/ContentStudio/internal/lockfile"
	"github.com/Praveenbabu5991/ContentStudio/internal/memory"
	"github.com/Praveenbabu5991/ContentStudio/internal/notify"
	"github.com/Praveenbabu5991/ContentStudio/internal/policy"
	"github.com/Praveenbabu5991/ContentStudio/internal/session"
	"github.com/Praveenbabu5991/ContentStudio/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for Content Studio state data
	DefaultStateDir = "/var/lib/contentstudio"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "contentstudio.db"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	slog.Info("Bootstrapping Content Studio with configured modules")
	if err := run(flags); err != nil {
		slog.Error("Content Studio failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Content Studio exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL    string
	StateDir       string
	OpenAIKey      string
	APIAddr        string
	ImageDir       string
	UploadDir      string
	VideoAPIURL    string
	SessionTimeout time.Duration
}

// Flags holds command line flag values
type Flags struct {
	stateDir       *string
	dbDSN          *string
	openaiKey      *string
	apiAddr        *string
	imageDir       *string
	uploadDir      *string
	videoAPIURL    *string
	sessionTimeout *time.Duration
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

	config := Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		StateDir:       os.Getenv("CONTENTSTUDIO_STATE_DIR"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		APIAddr:        os.Getenv("API_ADDR"),
		ImageDir:       os.Getenv("IMAGE_OUTPUT_DIR"),
		UploadDir:      os.Getenv("UPLOAD_DIR"),
		VideoAPIURL:    os.Getenv("VIDEO_API_URL"),
		SessionTimeout: util.ParseDurationEnv("SESSION_TIMEOUT", session.DefaultSessionTimeout),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No CONTENTSTUDIO_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"CONTENTSTUDIO_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"VIDEO_API_URL_SET", config.VideoAPIURL != "",
		"SESSION_TIMEOUT", config.SessionTimeout)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:       flag.String("state-dir", config.StateDir, "state directory for Content Studio data (overrides $CONTENTSTUDIO_STATE_DIR)"),
		dbDSN:          flag.String("db-dsn", config.DatabaseURL, "database DSN for the memory store (overrides $DATABASE_URL)"),
		openaiKey:      flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:        flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		imageDir:       flag.String("image-dir", config.ImageDir, "output directory for generated images (overrides $IMAGE_OUTPUT_DIR)"),
		uploadDir:      flag.String("upload-dir", config.UploadDir, "directory for uploaded images (overrides $UPLOAD_DIR)"),
		videoAPIURL:    flag.String("video-api-url", config.VideoAPIURL, "base URL of the video generation service (overrides $VIDEO_API_URL)"),
		sessionTimeout: flag.Duration("session-timeout", config.SessionTimeout, "idle session expiry (overrides $SESSION_TIMEOUT)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"videoAPIURL_set", *flags.videoAPIURL != "",
		"sessionTimeout", *flags.sessionTimeout)

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if memory.DetectDSNType(*flags.dbDSN) != "postgres" {
		stateDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
			return err
		}
	}
	return nil
}

// buildStoreOptions constructs memory store configuration options
func buildStoreOptions(flags Flags) []memory.Option {
	var storeOpts []memory.Option
	if *flags.dbDSN != "" {
		if memory.DetectDSNType(*flags.dbDSN) == "postgres" {
			slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_set", true)
			storeOpts = append(storeOpts, memory.WithPostgresDSN(*flags.dbDSN))
		} else {
			slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", *flags.dbDSN)
			storeOpts = append(storeOpts, memory.WithSQLiteDSN(*flags.dbDSN))
		}
	} else {
		slog.Debug("No database DSN provided, will use in-memory store")
	}
	return storeOpts
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	return genaiOpts
}

// buildImageOptions constructs image generator configuration options
func buildImageOptions(flags Flags) []capability.ImageOption {
	var imageOpts []capability.ImageOption
	if *flags.openaiKey != "" {
		imageOpts = append(imageOpts, capability.WithImageAPIKey(*flags.openaiKey))
	}
	if *flags.imageDir != "" {
		imageOpts = append(imageOpts, capability.WithImageOutputDir(*flags.imageDir))
	}
	return imageOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.uploadDir != "" {
		apiOpts = append(apiOpts, api.WithUploadDir(*flags.uploadDir))
	}
	return apiOpts
}

// buildNotifier returns a Twilio notifier when credentials are configured,
// otherwise a no-op.
func buildNotifier() notify.Notifier {
	if os.Getenv("TWILIO_ACCOUNT_SID") == "" {
		slog.Debug("No Twilio credentials configured, video notices disabled")
		return notify.NoopNotifier{}
	}
	notifier, err := notify.NewTwilioNotifier()
	if err != nil {
		slog.Warn("Twilio notifier unavailable, video notices disabled", "error", err)
		return notify.NoopNotifier{}
	}
	return notifier
}

// buildCapabilities wires every generation backend the engine can use.
func buildCapabilities(flags Flags, llm *genai.Client) (flow.Capabilities, error) {
	images, err := capability.NewOpenAIImages(buildImageOptions(flags)...)
	if err != nil {
		return flow.Capabilities{}, err
	}
	writer := capability.NewGenAIWriter(llm)

	caps := flow.Capabilities{
		Images:   images,
		Editor:   images,
		Writer:   writer,
		Ideas:    writer,
		Trends:   writer,
		Calendar: capability.NewStaticCalendar(),
	}
	if *flags.videoAPIURL != "" {
		caps.Video = capability.NewPollingVideoGenerator(capability.NewHTTPVideoService(*flags.videoAPIURL))
		slog.Debug("Video generation enabled", "baseURL", *flags.videoAPIURL)
	} else {
		slog.Debug("No VIDEO_API_URL configured, video generation disabled")
	}
	return caps, nil
}

func run(flags Flags) error {
	// A file-backed database means this process owns the state directory.
	if *flags.dbDSN != "" && memory.DetectDSNType(*flags.dbDSN) != "postgres" {
		lock, err := lockfile.Acquire(filepath.Dir(*flags.dbDSN))
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				slog.Warn("Failed to release state directory lock", "error", err)
			}
		}()
	}

	store, err := memory.NewStore(buildStoreOptions(flags)...)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close memory store", "error", err)
		}
	}()

	llm, err := genai.NewClient(buildGenAIOptions(flags)...)
	if err != nil {
		return err
	}

	caps, err := buildCapabilities(flags, llm)
	if err != nil {
		return err
	}

	sessions := session.NewManager(session.WithTimeout(*flags.sessionTimeout))
	engine := flow.NewEngine(sessions, store, policy.NewRulePolicy(), caps,
		flow.WithNotifier(buildNotifier()))
	server := api.NewServer(engine, sessions, store, buildAPIOptions(flags)...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx)
}
