// ABOUTME: Entry point for the voyager-gateway conversation server
// ABOUTME: Wires providers, session store, and the HTTP API together

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/voyager-gateway/internal/capability"
	"github.com/2389/voyager-gateway/internal/config"
	"github.com/2389/voyager-gateway/internal/httpapi"
	"github.com/2389/voyager-gateway/internal/intent"
	"github.com/2389/voyager-gateway/internal/interpreter"
	"github.com/2389/voyager-gateway/internal/orchestrator"
	"github.com/2389/voyager-gateway/internal/resilient"
	"github.com/2389/voyager-gateway/internal/session"
	"github.com/2389/voyager-gateway/internal/store"
	"github.com/2389/voyager-gateway/internal/travelapi"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
__   _____  _   _  __ _  __ _  ___ _ __       __ _  __ _| |_ _____      ____ _ _   _
\ \ / / _ \| | | |/ _' |/ _' |/ _ \ '__|____ / _' |/ _' | __/ _ \ \ /\ / / _' | | | |
 \ V / (_) | |_| | (_| | (_| |  __/ | |_____| (_| | (_| | ||  __/\ V  V / (_| | |_| |
  \_/ \___/ \__, |\__,_|\__, |\___|_|        \__, |\__,_|\__\___| \_/\_/ \__,_|\__, |
            |___/       |___/                |___/                             |___/
`

// getConfigPath returns the path to the gateway config file.
// Priority: VOYAGER_CONFIG env var > XDG_CONFIG_HOME/voyager/gateway.yaml > ~/.config/voyager/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("VOYAGER_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "voyager", "gateway.yaml")
}

// getDataPath returns the path to the voyager data directory.
// Priority: XDG_DATA_HOME/voyager > ~/.local/share/voyager
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "voyager")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: voyager-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the conversation server")
		fmt.Println("  init     Create a new config file interactively")
		fmt.Println("  token    Generate an API bearer token")
		fmt.Println("  health   Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "token":
		err = runToken()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Sessions: in-memory")
	if cfg.Database.Path != "" {
		fmt.Printf(", persisted to %s", cfg.Database.Path)
	}
	fmt.Println()
	if cfg.Auth.JWTSecret == "" {
		yellow.Print("    ▶ ")
		fmt.Println("Auth:     disabled (no jwt_secret configured)")
	}

	fmt.Println()

	logger.Info("starting voyager-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	caller := resilient.New(resilient.Options{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseBackoff: cfg.Retry.BaseBackoff,
		Timeout:     cfg.Retry.CallTimeout,
	}, logger)

	interp := interpreter.NewOpenAIClient(
		cfg.Interpreter.Endpoint,
		cfg.Interpreter.APIKey,
		cfg.Interpreter.Model,
		caller,
		logger,
	)

	flights := travelapi.NewFlightsAPI(travelapi.New("flights", cfg.Providers.Flights.BaseURL, cfg.Providers.Flights.APIKey, caller, logger))
	hotels := travelapi.NewHotelsAPI(travelapi.New("hotels", cfg.Providers.Hotels.BaseURL, cfg.Providers.Hotels.APIKey, caller, logger))
	restaurants := travelapi.NewRestaurantsAPI(travelapi.New("restaurants", cfg.Providers.Restaurants.BaseURL, cfg.Providers.Restaurants.APIKey, caller, logger))
	excursions := travelapi.NewExcursionsAPI(travelapi.New("excursions", cfg.Providers.Excursions.BaseURL, cfg.Providers.Excursions.APIKey, caller, logger))

	registry := capability.NewRegistry(logger)
	for _, p := range []capability.Provider{
		capability.NewFlightProvider(flights, interp, logger),
		capability.NewHotelProvider(hotels, interp, logger),
		capability.NewRestaurantProvider(restaurants, interp, logger),
		capability.NewExcursionProvider(excursions, interp, logger),
	} {
		if err := registry.Register(p); err != nil {
			return fmt.Errorf("registering provider: %w", err)
		}
	}

	var repo session.Repository
	if cfg.Database.Path != "" {
		sqliteRepo, err := store.NewSQLiteRepository(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("opening conversation store: %w", err)
		}
		defer sqliteRepo.Close()
		repo = sqliteRepo
	}

	sessions := session.NewStore(cfg.Session.TTL, repo, logger)
	router := intent.NewRouter(interp, logger)
	engine := orchestrator.New(sessions, registry, router, cfg.Session.TurnDeadline, logger)

	var verifier httpapi.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		verifier = httpapi.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	}
	api := httpapi.NewServer(engine, verifier, logger)

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Make HTTP request to health endpoint with context
	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

// runToken generates a bearer token signed with the configured JWT secret.
// Supports "--subject value" and "--ttl value" flags.
func runToken() error {
	subject := "api-client"
	ttl := 30 * 24 * time.Hour

	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--subject" || arg == "-s":
			if i+1 >= len(args) {
				return fmt.Errorf("--subject requires a value")
			}
			subject = args[i+1]
			i++
		case strings.HasPrefix(arg, "--subject="):
			subject = strings.TrimPrefix(arg, "--subject=")
		case arg == "--ttl":
			if i+1 >= len(args) {
				return fmt.Errorf("--ttl requires a value")
			}
			d, err := time.ParseDuration(args[i+1])
			if err != nil {
				return fmt.Errorf("parsing --ttl: %w", err)
			}
			ttl = d
			i++
		case strings.HasPrefix(arg, "--ttl="):
			d, err := time.ParseDuration(strings.TrimPrefix(arg, "--ttl="))
			if err != nil {
				return fmt.Errorf("parsing --ttl: %w", err)
			}
			ttl = d
		default:
			return fmt.Errorf("unknown flag: %s", arg)
		}
	}

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt_secret not configured in %s", configPath)
	}

	verifier := httpapi.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	token, err := verifier.Generate(subject, ttl)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	fmt.Println(token)
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("voyager-gateway configuration setup")
	fmt.Println("===================================")
	fmt.Println()

	// Default paths
	defaultConfigPath := getConfigPath()
	defaultDataPath := getDataPath()
	defaultDbPath := filepath.Join(defaultDataPath, "conversations.db")

	// Output filename
	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Server configuration
	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "localhost:8080")

	// Database
	fmt.Println("\n--- Conversation Store ---")
	persist := prompt(reader, "Persist conversations to SQLite?", "yes")
	var dbPath string
	if strings.ToLower(persist) == "yes" || strings.ToLower(persist) == "y" {
		dbPath = prompt(reader, "SQLite database path", defaultDbPath)
	}

	// Auth
	fmt.Println("\n--- Authentication ---")
	enableAuth := prompt(reader, "Require bearer tokens?", "yes")
	var jwtSecret string
	if strings.ToLower(enableAuth) == "yes" || strings.ToLower(enableAuth) == "y" {
		secretBytes := make([]byte, 32)
		if _, err := rand.Read(secretBytes); err != nil {
			return fmt.Errorf("generating JWT secret: %w", err)
		}
		jwtSecret = base64.StdEncoding.EncodeToString(secretBytes)
	}

	// Interpreter
	fmt.Println("\n--- Interpreter Configuration ---")
	interpEndpoint := prompt(reader, "OpenAI-compatible endpoint", "https://api.openai.com/v1")
	interpModel := prompt(reader, "Model", "gpt-4")

	// Providers
	fmt.Println("\n--- Travel API Configuration ---")
	flightsURL := prompt(reader, "Flights API base URL", "http://localhost:9001")
	hotelsURL := prompt(reader, "Hotels API base URL", "http://localhost:9002")
	restaurantsURL := prompt(reader, "Restaurants API base URL", "http://localhost:9003")
	excursionsURL := prompt(reader, "Excursions API base URL", "http://localhost:9004")

	// Logging
	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	// Generate config
	var cfg strings.Builder
	cfg.WriteString("# voyager-gateway configuration\n")
	cfg.WriteString("# Generated by voyager-gateway init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: \"%s\"\n", httpAddr))
	cfg.WriteString("\n")

	if dbPath != "" {
		cfg.WriteString("database:\n")
		cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", dbPath))
		cfg.WriteString("\n")
	}

	if jwtSecret != "" {
		cfg.WriteString("auth:\n")
		cfg.WriteString(fmt.Sprintf("  jwt_secret: \"%s\"\n", jwtSecret))
		cfg.WriteString("\n")
	}

	cfg.WriteString("session:\n")
	cfg.WriteString("  ttl: \"30m\"\n")
	cfg.WriteString("  turn_deadline: \"30s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("retry:\n")
	cfg.WriteString("  max_attempts: 3\n")
	cfg.WriteString("  base_backoff: \"1s\"\n")
	cfg.WriteString("  call_timeout: \"10s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("interpreter:\n")
	cfg.WriteString(fmt.Sprintf("  endpoint: \"%s\"\n", interpEndpoint))
	cfg.WriteString("  api_key: \"${OPENAI_API_KEY}\"\n")
	cfg.WriteString(fmt.Sprintf("  model: \"%s\"\n", interpModel))
	cfg.WriteString("\n")

	cfg.WriteString("providers:\n")
	cfg.WriteString("  flights:\n")
	cfg.WriteString(fmt.Sprintf("    base_url: \"%s\"\n", flightsURL))
	cfg.WriteString("    api_key: \"${FLIGHTS_API_KEY}\"\n")
	cfg.WriteString("  hotels:\n")
	cfg.WriteString(fmt.Sprintf("    base_url: \"%s\"\n", hotelsURL))
	cfg.WriteString("    api_key: \"${HOTELS_API_KEY}\"\n")
	cfg.WriteString("  restaurants:\n")
	cfg.WriteString(fmt.Sprintf("    base_url: \"%s\"\n", restaurantsURL))
	cfg.WriteString("    api_key: \"${RESTAURANTS_API_KEY}\"\n")
	cfg.WriteString("  excursions:\n")
	cfg.WriteString(fmt.Sprintf("    base_url: \"%s\"\n", excursionsURL))
	cfg.WriteString("    api_key: \"${EXCURSIONS_API_KEY}\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	// Ensure config directory exists
	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Write config file
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	// Ensure data directory exists
	if dbPath != "" {
		dataDir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		fmt.Printf("Data directory: %s\n", dataDir)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  voyager-gateway serve\n")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
