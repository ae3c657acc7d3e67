package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App   AppConfig
	DB    DBConfig
	Redis RedisConfig
	Auth  AuthConfig

	Cache      CacheConfig
	Sources    SourcesConfig
	Savings    SavingsConfig
	Phone      PhoneConfig
	Sheets     SheetsConfig
	VoiceAgent VoiceAgentConfig
	Webhook    WebhookConfig
}

type AppConfig struct {
	Env  string
	Port int
	// Dashboard origins allowed by CORS. "*" allows any origin.
	// Env form: CORS_ALLOWED_ORIGINS=https://a.example,https://b.example
	CORSOrigins []string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit for AWS-ready posture.
	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string

	// Pool sizing; zero takes the pool defaults.
	MaxOpenConns int
	MaxIdleConns int
	// ConnectAttempts is how many startup pings are tried before giving up.
	ConnectAttempts int
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
	JWTAudience string
	AccessTokenTTL time.Duration
	RefreshTokenTTL time.Duration
}

type CacheConfig struct {
	// Backend is memory or redis.
	Backend string
	MaxAge  time.Duration
	Shards  int
}

type SourcesConfig struct {
	Timeout time.Duration
	Retries int
	// SyntheticFallback serves synthetic data when every configured source fails.
	SyntheticFallback bool
}

type SavingsConfig struct {
	MinorPerHour int64
	Currency     string
}

type PhoneConfig struct {
	DefaultRegion string
}

type SheetsConfig struct {
	APIKey   string
	Endpoint string
}

type VoiceAgentConfig struct {
	BaseURL string
	APIKey  string
	// Credentials maps a tenant handle's credential ref to an API key.
	// Env form: VOICE_AGENT_CREDENTIALS=ref1=key1,ref2=key2
	Credentials map[string]string
	RateLimit   float64
	Burst       int
}

type WebhookConfig struct {
	Queue string
}

// Load reads config from env. A .env file in the working directory is applied first
// when present; real env vars win.
func Load() (Config, error) {
	_ = godotenv.Load()

	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	for _, f := range []struct {
		key string
		dst *int
	}{
		{"DB_MAX_OPEN_CONNS", &c.DB.MaxOpenConns},
		{"DB_MAX_IDLE_CONNS", &c.DB.MaxIdleConns},
		{"DB_CONNECT_ATTEMPTS", &c.DB.ConnectAttempts},
	} {
		n, err := optionalInt(f.key)
		n, parseErrs = appendParseErr(parseErrs, n, err)
		*f.dst = n
	}

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Duration env vars are optional; defaults applied in Validate() based on env.
	c.Auth.AccessTokenTTL = mustDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = mustDuration("JWT_REFRESH_TTL")

	c.Cache.Backend = strings.ToLower(strings.TrimSpace(os.Getenv("CACHE_BACKEND")))
	c.Cache.MaxAge = mustDuration("CACHE_MAX_AGE")
	{
		n, err := optionalInt("CACHE_SHARDS")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Cache.Shards = n
	}

	c.Sources.Timeout = mustDuration("SOURCE_TIMEOUT")
	// Unset means default; an explicit 0 disables retries.
	c.Sources.Retries = -1
	if strings.TrimSpace(os.Getenv("SOURCE_RETRIES")) != "" {
		n, err := optionalInt("SOURCE_RETRIES")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Sources.Retries = n
	}
	c.Sources.SyntheticFallback = optionalBool("SYNTHETIC_FALLBACK")

	{
		n, err := optionalInt("SAVINGS_RATE_MINOR_PER_HOUR")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Savings.MinorPerHour = int64(n)
	}
	c.Savings.Currency = strings.ToUpper(strings.TrimSpace(os.Getenv("SAVINGS_CURRENCY")))
	c.Phone.DefaultRegion = strings.ToUpper(strings.TrimSpace(os.Getenv("PHONE_DEFAULT_REGION")))

	c.Sheets.APIKey = os.Getenv("SHEETS_API_KEY")
	c.Sheets.Endpoint = strings.TrimSpace(os.Getenv("SHEETS_ENDPOINT"))

	c.VoiceAgent.BaseURL = strings.TrimSpace(os.Getenv("VOICE_AGENT_BASE_URL"))
	c.VoiceAgent.APIKey = os.Getenv("VOICE_AGENT_API_KEY")
	{
		m, err := keyValueList("VOICE_AGENT_CREDENTIALS")
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.VoiceAgent.Credentials = m
	}
	{
		f, err := optionalFloat("VOICE_AGENT_RATE_LIMIT")
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.VoiceAgent.RateLimit = f
	}
	{
		n, err := optionalInt("VOICE_AGENT_BURST")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.VoiceAgent.Burst = n
	}

	c.Webhook.Queue = strings.TrimSpace(os.Getenv("WEBHOOK_QUEUE"))

	for _, o := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			c.App.CORSOrigins = append(c.App.CORSOrigins, o)
		}
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks c and fills defaults for optional values in place.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			// Allowed values are enforced below.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.DB.MaxOpenConns < 0 || c.DB.MaxIdleConns < 0 || c.DB.ConnectAttempts < 0 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS and DB_CONNECT_ATTEMPTS must not be negative"))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}

	if c.Auth.AccessTokenTTL <= 0 {
		// Default: short-lived access tokens.
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		// Default: longer-lived refresh tokens.
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	switch c.Cache.Backend {
	case "":
		c.Cache.Backend = "memory"
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be memory or redis, got %q", c.Cache.Backend))
	}
	if c.Cache.MaxAge <= 0 {
		c.Cache.MaxAge = 60 * time.Second
	}
	if c.Cache.Shards <= 0 {
		c.Cache.Shards = 32
	}

	if c.Sources.Timeout <= 0 {
		c.Sources.Timeout = 5 * time.Second
	}
	if c.Sources.Retries < 0 {
		c.Sources.Retries = 1
	}
	if c.Sources.Retries > 5 {
		errs = append(errs, fmt.Errorf("SOURCE_RETRIES must be at most 5, got %d", c.Sources.Retries))
	}

	if c.Savings.MinorPerHour < 0 {
		errs = append(errs, fmt.Errorf("SAVINGS_RATE_MINOR_PER_HOUR must not be negative, got %d", c.Savings.MinorPerHour))
	} else if c.Savings.MinorPerHour == 0 {
		c.Savings.MinorPerHour = 2500
	}
	if c.Savings.Currency == "" {
		c.Savings.Currency = "USD"
	} else if len(c.Savings.Currency) != 3 {
		errs = append(errs, fmt.Errorf("SAVINGS_CURRENCY must be an ISO 4217 code, got %q", c.Savings.Currency))
	}
	if c.Phone.DefaultRegion == "" {
		c.Phone.DefaultRegion = "US"
	}

	if c.VoiceAgent.RateLimit <= 0 {
		c.VoiceAgent.RateLimit = 5
	}
	if c.VoiceAgent.Burst <= 0 {
		c.VoiceAgent.Burst = 10
	}
	if c.IsProduction() && c.VoiceAgent.BaseURL != "" && c.VoiceAgent.APIKey == "" {
		errs = append(errs, errors.New("VOICE_AGENT_API_KEY is required in production when VOICE_AGENT_BASE_URL is set"))
	}
	if c.Webhook.Queue == "" {
		c.Webhook.Queue = "webhooks"
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalFloat(key string) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, v)
	}
	return f, nil
}

func keyValueList(key string) (map[string]string, error) {
	out := map[string]string{}
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return out, nil
	}
	for _, pair := range strings.Split(v, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || strings.TrimSpace(k) == "" || val == "" {
			return out, fmt.Errorf("%s must be a comma separated list of ref=key pairs", key)
		}
		out[strings.TrimSpace(k)] = val
	}
	return out, nil
}

func optionalBool(key string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return b
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
