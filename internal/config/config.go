package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	Environment string
	ServiceName string
	Version     string

	// APIKey guards the write endpoints of the HTTP API. Empty disables
	// authentication, which is only sensible in local development.
	APIKey         string
	TrustedProxies []string

	// GameHostURL is the base URL of the game host component that actually
	// plays the games. Empty means no host is attached and game starts are
	// only logged.
	GameHostURL string
	GameHostKey string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	Duel DuelConfig
}

// DuelConfig carries every timer threshold and sizing rule of the series
// engine. The standard values are defaults here, not invariants.
type DuelConfig struct {
	// PhaseTimeout bounds the Picking, Banning and Selecting phases
	PhaseTimeout time.Duration
	// RestTimeout bounds the inter-game Resting phase
	RestTimeout time.Duration
	// ConfirmCountdown is the cancelable delay after both players confirm
	ConfirmCountdown time.Duration
	// ShowcaseDelay displays the chosen opening before Playing begins
	ShowcaseDelay time.Duration
	// NoStartGrace is how long an unstarted game may sit before it resolves
	// as no_start
	NoStartGrace time.Duration
	// DisconnectAfter is how long without a presence ping before a player
	// counts as disconnected
	DisconnectAfter time.Duration
	// PingInterval is the expected presence ping cadence of the transport
	PingInterval time.Duration

	PoolCapacity  int
	PoolMinimum   int
	PicksRequired int
	BansRequired  int

	// WinRateFloor/Ceiling bound the acceptable historical win rate of an
	// opening added to a pool, once MinSampleGames results exist
	WinRateFloor   float64
	WinRateCeiling float64
	MinSampleGames int
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		Environment: getEnv("ENVIRONMENT", "dev"),
		ServiceName: getEnv("SERVICE_NAME", "openduel"),
		Version:     getEnv("VERSION", "dev"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBName:      getEnv("DB_NAME", "openduel"),
		APIKey:      getEnv("API_KEY", ""),
		GameHostURL: getEnv("GAME_HOST_URL", ""),
		GameHostKey: getEnv("GAME_HOST_KEY", ""),
	}

	if proxies := getEnv("TRUSTED_PROXIES", ""); proxies != "" {
		for _, p := range strings.Split(proxies, ",") {
			cfg.TrustedProxies = append(cfg.TrustedProxies, strings.TrimSpace(p))
		}
	}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	duel, err := loadDuelConfig()
	if err != nil {
		return nil, err
	}
	cfg.Duel = duel

	return cfg, nil
}

// DefaultDuelConfig returns the engine defaults used by tests and by Load
// when no environment overrides are present
func DefaultDuelConfig() DuelConfig {
	return DuelConfig{
		PhaseTimeout:     30 * time.Second,
		RestTimeout:      30 * time.Second,
		ConfirmCountdown: 3 * time.Second,
		ShowcaseDelay:    5 * time.Second,
		NoStartGrace:     26 * time.Second,
		DisconnectAfter:  5 * time.Second,
		PingInterval:     3 * time.Second,
		PoolCapacity:     10,
		PoolMinimum:      5,
		PicksRequired:    5,
		BansRequired:     2,
		WinRateFloor:     0.30,
		WinRateCeiling:   0.70,
		MinSampleGames:   20,
	}
}

func loadDuelConfig() (DuelConfig, error) {
	d := DefaultDuelConfig()

	var err error
	if d.PhaseTimeout, err = getDuration("DUEL_PHASE_TIMEOUT", d.PhaseTimeout); err != nil {
		return d, err
	}
	if d.RestTimeout, err = getDuration("DUEL_REST_TIMEOUT", d.RestTimeout); err != nil {
		return d, err
	}
	if d.ConfirmCountdown, err = getDuration("DUEL_CONFIRM_COUNTDOWN", d.ConfirmCountdown); err != nil {
		return d, err
	}
	if d.ShowcaseDelay, err = getDuration("DUEL_SHOWCASE_DELAY", d.ShowcaseDelay); err != nil {
		return d, err
	}
	if d.NoStartGrace, err = getDuration("DUEL_NOSTART_GRACE", d.NoStartGrace); err != nil {
		return d, err
	}
	if d.DisconnectAfter, err = getDuration("DUEL_DISCONNECT_AFTER", d.DisconnectAfter); err != nil {
		return d, err
	}
	if d.PingInterval, err = getDuration("DUEL_PING_INTERVAL", d.PingInterval); err != nil {
		return d, err
	}
	if d.PoolCapacity, err = getInt("DUEL_POOL_CAPACITY", d.PoolCapacity); err != nil {
		return d, err
	}
	if d.PoolMinimum, err = getInt("DUEL_POOL_MINIMUM", d.PoolMinimum); err != nil {
		return d, err
	}

	if d.PoolMinimum > d.PoolCapacity {
		return d, fmt.Errorf("DUEL_POOL_MINIMUM (%d) exceeds DUEL_POOL_CAPACITY (%d)", d.PoolMinimum, d.PoolCapacity)
	}
	if d.PicksRequired > d.PoolMinimum {
		return d, fmt.Errorf("picks required (%d) exceeds pool minimum (%d)", d.PicksRequired, d.PoolMinimum)
	}
	return d, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return n, nil
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
