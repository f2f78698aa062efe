package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "agentdeck.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// CLIFlags carries command-line overrides. Nil fields were not set.
type CLIFlags struct {
	ConfigPath *string
	Port       *string
	LogLevel   *string
	DSN        *string
	NatsURL    *string
}

// ParseFlags parses command-line arguments into CLIFlags.
// Supported: --config/-c, --port/-p, --log-level, --dsn, --nats-url.
func ParseFlags(args []string) (CLIFlags, error) {
	fs := flag.NewFlagSet("agentdeck", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var configPath, port, logLevel, dsn, natsURL string
	fs.StringVar(&configPath, "config", "", "path to YAML config file")
	fs.StringVar(&configPath, "c", "", "path to YAML config file (shorthand)")
	fs.StringVar(&port, "port", "", "HTTP listen port")
	fs.StringVar(&port, "p", "", "HTTP listen port (shorthand)")
	fs.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&dsn, "dsn", "", "PostgreSQL DSN")
	fs.StringVar(&natsURL, "nats-url", "", "NATS server URL")

	if err := fs.Parse(args); err != nil {
		return CLIFlags{}, fmt.Errorf("parse flags: %w", err)
	}

	var flags CLIFlags
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "config", "c":
			flags.ConfigPath = &configPath
		case "port", "p":
			flags.Port = &port
		case "log-level":
			flags.LogLevel = &logLevel
		case "dsn":
			flags.DSN = &dsn
		case "nats-url":
			flags.NatsURL = &natsURL
		}
	})

	return flags, nil
}

// LoadWithCLI returns a Config using the full hierarchy:
// defaults < YAML < ENV < CLI flags. Returns the resolved YAML path.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	path := DefaultConfigFile
	if flags.ConfigPath != nil {
		path = *flags.ConfigPath
	}

	cfg := Defaults()

	if err := loadYAML(&cfg, path); err != nil {
		return nil, "", fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)
	applyCLI(&cfg, flags)

	if err := validate(&cfg); err != nil {
		return nil, "", fmt.Errorf("config validate: %w", err)
	}

	return &cfg, path, nil
}

// applyCLI overlays non-nil CLI flags onto cfg. CLI wins over ENV and YAML.
func applyCLI(cfg *Config, flags CLIFlags) {
	if flags.Port != nil {
		cfg.Server.Port = *flags.Port
	}
	if flags.LogLevel != nil {
		cfg.Logging.Level = *flags.LogLevel
	}
	if flags.DSN != nil {
		cfg.Postgres.DSN = *flags.DSN
	}
	if flags.NatsURL != nil {
		cfg.NATS.URL = *flags.NatsURL
	}
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "AGENTDECK_PORT")
	setString(&cfg.Server.CORSOrigin, "AGENTDECK_CORS_ORIGIN")
	setString(&cfg.Server.BaseURL, "AGENTDECK_BASE_URL")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "AGENTDECK_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "AGENTDECK_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "AGENTDECK_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "AGENTDECK_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "AGENTDECK_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setInt64(&cfg.Cache.L1MaxSizeMB, "AGENTDECK_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "AGENTDECK_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "AGENTDECK_CACHE_L2_TTL")
	setDuration(&cfg.Cache.KPITTL, "AGENTDECK_CACHE_KPI_TTL")
	setDuration(&cfg.Cache.PricingTTL, "AGENTDECK_CACHE_PRICING_TTL")
	setString(&cfg.Logging.Level, "AGENTDECK_LOG_LEVEL")
	setString(&cfg.Logging.Service, "AGENTDECK_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "AGENTDECK_LOG_ASYNC")
	setBool(&cfg.Telemetry.Enabled, "AGENTDECK_OTEL_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "AGENTDECK_OTEL_ENDPOINT")
	setBool(&cfg.Auth.Enabled, "AGENTDECK_AUTH_ENABLED")
	setInt(&cfg.Auth.BcryptCost, "AGENTDECK_BCRYPT_COST")
	setInt(&cfg.Analytics.TrailingDays, "AGENTDECK_TRAILING_DAYS")
	setFloat64(&cfg.Analytics.AnomalyK, "AGENTDECK_ANOMALY_K")
	setInt(&cfg.Analytics.AnomalyMinSample, "AGENTDECK_ANOMALY_MIN_SAMPLE")
	setInt(&cfg.Analytics.AnomalyMaxWindowDays, "AGENTDECK_ANOMALY_MAX_WINDOW_DAYS")
	setInt(&cfg.Analytics.AnomalyTopN, "AGENTDECK_ANOMALY_TOP_N")
	setString(&cfg.Analytics.CostSource, "AGENTDECK_COST_SOURCE")
	setDuration(&cfg.Analytics.RecentWindow, "AGENTDECK_RECENT_WINDOW")
	setFloat64(&cfg.Budget.MonthlyUSD, "AGENTDECK_BUDGET_MONTHLY_USD")
	setString(&cfg.Budget.Currency, "AGENTDECK_BUDGET_CURRENCY")
	setString(&cfg.Knowledge.Dir, "AGENTDECK_KNOWLEDGE_DIR")
	setBool(&cfg.MCP.Enabled, "AGENTDECK_MCP_ENABLED")
	setString(&cfg.MCP.Addr, "AGENTDECK_MCP_ADDR")
	setString(&cfg.MCP.APIKey, "AGENTDECK_MCP_API_KEY")
	setInt64(&cfg.Limits.MaxRequestBodySize, "AGENTDECK_MAX_BODY_SIZE")
	setInt(&cfg.Breaker.MaxFailures, "AGENTDECK_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "AGENTDECK_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "AGENTDECK_RATE_RPS")
	setInt(&cfg.Rate.Burst, "AGENTDECK_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "AGENTDECK_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "AGENTDECK_RATE_MAX_IDLE_TIME")
	setString(&cfg.Idempotency.Bucket, "AGENTDECK_IDEMPOTENCY_BUCKET")
	setDuration(&cfg.Idempotency.TTL, "AGENTDECK_IDEMPOTENCY_TTL")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Analytics.TrailingDays < 1 {
		return errors.New("analytics.trailing_days must be >= 1")
	}
	if cfg.Analytics.AnomalyK <= 0 {
		return errors.New("analytics.anomaly_k must be > 0")
	}
	if cfg.Analytics.AnomalyMinSample < 2 {
		return errors.New("analytics.anomaly_min_sample must be >= 2")
	}
	if cfg.Analytics.AnomalyMaxWindowDays < 1 {
		return errors.New("analytics.anomaly_max_window_days must be >= 1")
	}
	if cfg.Analytics.AnomalyTopN < 1 {
		return errors.New("analytics.anomaly_top_n must be >= 1")
	}
	if cfg.Analytics.CostSource != CostSourceStored && cfg.Analytics.CostSource != CostSourceRecompute {
		return errors.New(`analytics.cost_source must be "stored" or "recompute"`)
	}
	if cfg.Budget.MonthlyUSD < 0 {
		return errors.New("budget.monthly_usd must be >= 0")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
