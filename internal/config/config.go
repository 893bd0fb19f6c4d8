package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Corpus
	CorpusFile     string        // path to the corpus YAML file
	ReloadInterval time.Duration // periodic corpus reload, 0 = only on demand / file change
	WatchCorpus    bool          // reload when the corpus file changes on disk
	WatchDebounce  time.Duration // quiet period before a file change triggers a reload

	// Search
	DefaultRole string // role used when a request names none
	SearchLimit int    // max results per search (0 = no limit)

	// Sessions
	DefaultSession       string        // session used when X-Hub-Session is missing
	SessionIdle          time.Duration // unused sessions are dropped from memory after this
	JanitorInterval      time.Duration // how often idle sessions are swept
	SnapshotTTL          time.Duration // snapshot expiry in Redis (0 = never)
	SnapshotWriteTimeout time.Duration // bound on a single snapshot write

	// Redis (optional, empty address => in-memory snapshots)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Access
	AllowedHosts    []string // optional, restrict /api to specific Host headers
	AllowedCIDRS    []string // optional, restrict admin endpoints to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy      bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	CORSOrigins     []string // optional, origins allowed to call the API from a browser
	RateLimitBurst  int      // per-IP burst on /api (0 = no rate limit)
	RateLimitPerMin int      // per-IP refill rate on /api
}

// Load reads the configuration from the environment. Variables from a .env
// file (HUB_ENV_FILE, default ".env") are loaded first without overriding
// variables already set.
func Load() (*Config, error) {
	envFile := getenv("HUB_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("HUB_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("HUB_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("HUB_LOG_LEVEL", "info"),
		PrettyLog: mustBool("HUB_PRETTY_LOG", false),

		// Corpus
		CorpusFile:     getenv("HUB_CORPUS_FILE", "configs/corpus.yaml"),
		ReloadInterval: mustDuration("HUB_RELOAD_INTERVAL", time.Hour),
		WatchCorpus:    mustBool("HUB_WATCH_CORPUS", true),
		WatchDebounce:  mustDuration("HUB_WATCH_DEBOUNCE", 400*time.Millisecond),

		// Search
		DefaultRole: getenv("HUB_DEFAULT_ROLE", "SW"),
		SearchLimit: getenvInt("HUB_SEARCH_LIMIT", 50),

		// Sessions
		DefaultSession:       getenv("HUB_DEFAULT_SESSION", "default"),
		SessionIdle:          mustDuration("HUB_SESSION_IDLE", 30*time.Minute),
		JanitorInterval:      mustDuration("HUB_JANITOR_INTERVAL", 5*time.Minute),
		SnapshotTTL:          mustDuration("HUB_SNAPSHOT_TTL", 30*24*time.Hour),
		SnapshotWriteTimeout: mustDuration("HUB_SNAPSHOT_WRITE_TIMEOUT", 2*time.Second),

		// Redis settings
		RedisAddr:             getenv("HUB_REDIS_ADDR", ""),
		RedisUser:             getenv("HUB_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("HUB_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("HUB_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("HUB_REDIS_DB", 0),
		RedisDT:               mustDuration("HUB_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("HUB_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("HUB_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("HUB_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("HUB_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("HUB_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("HUB_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("HUB_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("HUB_REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts:    splitAndTrim(getenv("HUB_ALLOWED_HOSTS", "")),
		AllowedCIDRS:    splitAndTrim(getenv("HUB_ALLOWED_CIDRS", "")),
		TrustProxy:      mustBool("HUB_TRUST_PROXY", false),
		CORSOrigins:     splitAndTrim(getenv("HUB_CORS_ORIGINS", "")),
		RateLimitBurst:  getenvInt("HUB_RATE_LIMIT_BURST", 60),
		RateLimitPerMin: getenvInt("HUB_RATE_LIMIT_PER_MIN", 120),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg, nil
}

// UseRedis reports whether snapshots go to Redis.
func (c *Config) UseRedis() bool {
	return c.RedisAddr != ""
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch {
	case c.CorpusFile == "":
		return errors.New("HUB_CORPUS_FILE must not be empty")
	case c.UseRedis() && c.RedisPasswordRequired && c.RedisPassword == "":
		return errors.New("HUB_REDIS_PASSWORD is required when HUB_REDIS_PASSWORD_REQUIRED=true")
	case c.ReloadInterval < 0:
		return fmt.Errorf("HUB_RELOAD_INTERVAL must be >= 0, got %v", c.ReloadInterval)
	case c.SessionIdle <= 0:
		return fmt.Errorf("HUB_SESSION_IDLE must be > 0, got %v", c.SessionIdle)
	case c.JanitorInterval <= 0:
		return fmt.Errorf("HUB_JANITOR_INTERVAL must be > 0, got %v", c.JanitorInterval)
	case c.SnapshotTTL < 0:
		return fmt.Errorf("HUB_SNAPSHOT_TTL must be >= 0, got %v", c.SnapshotTTL)
	case c.SearchLimit < 0:
		return fmt.Errorf("HUB_SEARCH_LIMIT must be >= 0, got %d", c.SearchLimit)
	}
	return nil
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
