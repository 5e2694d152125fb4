package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/campscout/campscout/internal/api"
	"github.com/campscout/campscout/internal/campdb"
	"github.com/campscout/campscout/internal/genai"
	"github.com/campscout/campscout/internal/geo"
	"github.com/campscout/campscout/internal/store"
	"github.com/campscout/campscout/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for CampScout state data
	DefaultStateDir = "/var/lib/campscout"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "campscout.db"
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

	// Build module options
	storeOpts := buildStoreOptions(flags)
	genaiOpts := buildGenAIOptions(flags)
	campdbOpts := buildCampDBOptions(flags)
	apiOpts := buildAPIOptions(flags)

	// Start the service
	slog.Info("Bootstrapping CampScout with configured modules")
	slog.Debug("Module options counts", "store", len(storeOpts), "genai", len(genaiOpts), "campdb", len(campdbOpts), "api", len(apiOpts))
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "", "api_addr", *flags.apiAddr, "chat_mode", *flags.chatMode)
	if err := api.Run(storeOpts, genaiOpts, campdbOpts, apiOpts); err != nil {
		slog.Error("CampScout failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("CampScout exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	CampDBURL   string
	StateDir    string
	OpenAIKey   string
	MapsKey     string
	APIAddr     string
	ChatMode    string
}

// Flags holds command line flag values
type Flags struct {
	stateDir  *string
	dbDSN     *string
	campDBDSN *string
	openaiKey *string
	mapsKey   *string
	apiAddr   *string
	chatMode  *string
}

// initializeLogger sets up structured logging, at debug level unless
// CAMPSCOUT_DEBUG disables it
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("CAMPSCOUT_DEBUG", true) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
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
		DatabaseURL: os.Getenv("DATABASE_URL"),
		CampDBURL:   os.Getenv("CAMP_DATABASE_URL"),
		StateDir:    util.GetEnv("CAMPSCOUT_STATE_DIR", DefaultStateDir),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		MapsKey:     os.Getenv("GOOGLE_MAPS_API_KEY"),
		APIAddr:     os.Getenv("API_ADDR"),
		ChatMode:    os.Getenv("CHAT_MODE"),
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"CAMP_DATABASE_URL_SET", config.CampDBURL != "",
		"CAMPSCOUT_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"GOOGLE_MAPS_API_KEY_SET", config.MapsKey != "",
		"API_ADDR", config.APIAddr,
		"CHAT_MODE", config.ChatMode)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:  flag.String("state-dir", config.StateDir, "state directory for CampScout data (overrides $CAMPSCOUT_STATE_DIR)"),
		dbDSN:     flag.String("db-dsn", config.DatabaseURL, "session store DSN (overrides $DATABASE_URL)"),
		campDBDSN: flag.String("camp-db-dsn", config.CampDBURL, "camp catalog PostgreSQL DSN (overrides $CAMP_DATABASE_URL)"),
		openaiKey: flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		mapsKey:   flag.String("maps-api-key", config.MapsKey, "Google Maps API key (overrides $GOOGLE_MAPS_API_KEY)"),
		apiAddr:   flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		chatMode:  flag.String("chat-mode", config.ChatMode, "chat orchestrator: profile or intent (overrides $CHAT_MODE)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"campDBDSN_set", *flags.campDBDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"mapsKeySet", *flags.mapsKey != "",
		"apiAddr", *flags.apiAddr,
		"chatMode", *flags.chatMode)

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "dsn_updated", true, "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	// Ensure state directory exists if we're using a file-based DSN
	if !strings.Contains(*flags.dbDSN, "postgres://") && !strings.Contains(*flags.dbDSN, "host=") {
		stateDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
			return err
		}
		slog.Debug("State directory created successfully", "state_dir", stateDir)
	}
	return nil
}

// buildStoreOptions constructs session store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN != "" {
		// Check if it's a PostgreSQL DSN using the shared detection function
		if store.DetectDSNType(*flags.dbDSN) == "postgres" {
			slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql", "dsn_set", true)
			storeOpts = append(storeOpts, store.WithPostgresDSN(*flags.dbDSN))
		} else {
			// Assume SQLite for file paths
			slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
			storeOpts = append(storeOpts, store.WithSQLiteDSN(*flags.dbDSN))
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

// buildCampDBOptions constructs camp catalog configuration options
func buildCampDBOptions(flags Flags) []campdb.Option {
	var campdbOpts []campdb.Option
	if *flags.campDBDSN != "" {
		campdbOpts = append(campdbOpts, campdb.WithDSN(*flags.campDBDSN))
	}
	if *flags.mapsKey != "" {
		calc, err := geo.NewGoogleMapsCalculator(geo.WithAPIKey(*flags.mapsKey))
		if err != nil {
			slog.Error("Failed to create Google Maps calculator, distance filtering disabled", "error", err)
		} else {
			campdbOpts = append(campdbOpts, campdb.WithGeoCalculator(calc))
		}
	} else {
		slog.Debug("No Google Maps API key provided, distance filtering disabled")
	}
	return campdbOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.chatMode != "" {
		apiOpts = append(apiOpts, api.WithChatMode(*flags.chatMode))
	}
	if secs := util.ParseIntEnv("CHAT_TIMEOUT_SECONDS", 0); secs > 0 {
		apiOpts = append(apiOpts, api.WithRequestTimeout(time.Duration(secs)*time.Second))
	}
	return apiOpts
}
