package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server        ServerConfig
	Redis         RedisConfig
	JWT           JWTConfig
	OIDC          OIDCConfig
	Gateway       GatewayConfig
	RateLimit     RateLimitConfig
	OpenAI        OpenAIConfig
	Fashn         FashnConfig
	Visualization VisualizationConfig
	Storage       StorageConfig
	Twilio        TwilioConfig
	Activity      ActivityConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	LogLevel    string
	LogFormat   string
	ApiDomain   string
	BodyLimitMB int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type OIDCConfig struct {
	Issuer   string
	ClientID string
}

type GatewayConfig struct {
	Enabled bool // behind Traefik ForwardAuth: trust X-User-* headers
}

type RateLimitConfig struct {
	OutfitsPerHour   int
	VisualizePerHour int
	UploadPerHour    int
	SMSPerMin        int
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type FashnConfig struct {
	APIKey       string
	BaseURL      string
	PollInterval int // seconds
	MaxWait      int // seconds
}

type VisualizationConfig struct {
	DefaultProvider string
	JobTimeout      int // seconds, enforced by the queue broker
	RetentionHours  int
	EstimatedTime   int // seconds, reported to clients on enqueue
}

type StorageConfig struct {
	Endpoint        string // S3-compatible endpoint, empty for AWS
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	WebhookURL string // public base URL, used for signature validation
}

type ActivityConfig struct {
	Timezone      string // fixed zone for day partitioning
	RetentionDays int
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("OPENAI_API_KEY")
	readSecret("FASHN_API_KEY")
	readSecret("S3_ACCESS_KEY_ID")
	readSecret("S3_SECRET_ACCESS_KEY")
	readSecret("TWILIO_AUTH_TOKEN")
	readSecret("OIDC_CLIENT_ID")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("server.log_format", "LOG_FORMAT")
	_ = viper.BindEnv("server.api_domain", "API_DOMAIN")
	_ = viper.BindEnv("server.body_limit_mb", "BODY_LIMIT_MB")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = viper.BindEnv("oidc.issuer", "OIDC_ISSUER")
	_ = viper.BindEnv("oidc.client_id", "OIDC_CLIENT_ID")
	_ = viper.BindEnv("gateway.enabled", "GATEWAY_ENABLED")
	_ = viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = viper.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	_ = viper.BindEnv("openai.model", "OPENAI_MODEL")
	_ = viper.BindEnv("fashn.api_key", "FASHN_API_KEY")
	_ = viper.BindEnv("fashn.base_url", "FASHN_BASE_URL")
	_ = viper.BindEnv("fashn.poll_interval", "FASHN_POLL_INTERVAL")
	_ = viper.BindEnv("fashn.max_wait", "FASHN_MAX_WAIT")
	_ = viper.BindEnv("visualization.default_provider", "VISUALIZATION_PROVIDER")
	_ = viper.BindEnv("visualization.job_timeout", "VISUALIZATION_JOB_TIMEOUT")
	_ = viper.BindEnv("visualization.retention_hours", "VISUALIZATION_RETENTION_HOURS")
	_ = viper.BindEnv("visualization.estimated_time", "VISUALIZATION_ESTIMATED_TIME")
	_ = viper.BindEnv("storage.endpoint", "S3_ENDPOINT")
	_ = viper.BindEnv("storage.region", "S3_REGION")
	_ = viper.BindEnv("storage.access_key_id", "S3_ACCESS_KEY_ID")
	_ = viper.BindEnv("storage.secret_access_key", "S3_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("storage.bucket_name", "S3_BUCKET_NAME")
	_ = viper.BindEnv("storage.public_url", "S3_PUBLIC_URL")
	_ = viper.BindEnv("twilio.account_sid", "TWILIO_ACCOUNT_SID")
	_ = viper.BindEnv("twilio.auth_token", "TWILIO_AUTH_TOKEN")
	_ = viper.BindEnv("twilio.from_number", "TWILIO_FROM_NUMBER")
	_ = viper.BindEnv("twilio.webhook_url", "TWILIO_WEBHOOK_URL")
	_ = viper.BindEnv("activity.timezone", "ACTIVITY_TIMEZONE")
	_ = viper.BindEnv("activity.retention_days", "ACTIVITY_RETENTION_DAYS")
	_ = viper.BindEnv("ratelimit.outfits_per_hour", "RATELIMIT_OUTFITS_PER_HOUR")
	_ = viper.BindEnv("ratelimit.visualize_per_hour", "RATELIMIT_VISUALIZE_PER_HOUR")
	_ = viper.BindEnv("ratelimit.upload_per_hour", "RATELIMIT_UPLOAD_PER_HOUR")
	_ = viper.BindEnv("ratelimit.sms_per_min", "RATELIMIT_SMS_PER_MIN")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("server.log_format", "console")
	viper.SetDefault("server.body_limit_mb", 25)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)
	viper.SetDefault("gateway.enabled", false)
	viper.SetDefault("ratelimit.outfits_per_hour", 20)
	viper.SetDefault("ratelimit.visualize_per_hour", 10)
	viper.SetDefault("ratelimit.upload_per_hour", 50)
	viper.SetDefault("ratelimit.sms_per_min", 5)

	// OpenAI defaults
	viper.SetDefault("openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("openai.model", "gpt-4o")

	// Fashn defaults
	viper.SetDefault("fashn.base_url", "https://api.fashn.ai/v1")
	viper.SetDefault("fashn.poll_interval", 3)
	viper.SetDefault("fashn.max_wait", 90)

	// Visualization defaults
	viper.SetDefault("visualization.default_provider", "fashn")
	viper.SetDefault("visualization.job_timeout", 120)
	viper.SetDefault("visualization.retention_hours", 24)
	viper.SetDefault("visualization.estimated_time", 30)

	// Storage defaults
	viper.SetDefault("storage.region", "auto")

	// Activity defaults
	viper.SetDefault("activity.timezone", "America/New_York")
	viper.SetDefault("activity.retention_days", 90)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:        viper.GetString("server.port"),
			Env:         viper.GetString("server.env"),
			LogLevel:    viper.GetString("server.log_level"),
			LogFormat:   viper.GetString("server.log_format"),
			ApiDomain:   viper.GetString("server.api_domain"),
			BodyLimitMB: viper.GetInt("server.body_limit_mb"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		OIDC: OIDCConfig{
			Issuer:   viper.GetString("oidc.issuer"),
			ClientID: viper.GetString("oidc.client_id"),
		},
		Gateway: GatewayConfig{
			Enabled: viper.GetBool("gateway.enabled"),
		},
		RateLimit: RateLimitConfig{
			OutfitsPerHour:   viper.GetInt("ratelimit.outfits_per_hour"),
			VisualizePerHour: viper.GetInt("ratelimit.visualize_per_hour"),
			UploadPerHour:    viper.GetInt("ratelimit.upload_per_hour"),
			SMSPerMin:        viper.GetInt("ratelimit.sms_per_min"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  viper.GetString("openai.api_key"),
			BaseURL: viper.GetString("openai.base_url"),
			Model:   viper.GetString("openai.model"),
		},
		Fashn: FashnConfig{
			APIKey:       viper.GetString("fashn.api_key"),
			BaseURL:      viper.GetString("fashn.base_url"),
			PollInterval: viper.GetInt("fashn.poll_interval"),
			MaxWait:      viper.GetInt("fashn.max_wait"),
		},
		Visualization: VisualizationConfig{
			DefaultProvider: viper.GetString("visualization.default_provider"),
			JobTimeout:      viper.GetInt("visualization.job_timeout"),
			RetentionHours:  viper.GetInt("visualization.retention_hours"),
			EstimatedTime:   viper.GetInt("visualization.estimated_time"),
		},
		Storage: StorageConfig{
			Endpoint:        viper.GetString("storage.endpoint"),
			Region:          viper.GetString("storage.region"),
			AccessKeyID:     viper.GetString("storage.access_key_id"),
			SecretAccessKey: viper.GetString("storage.secret_access_key"),
			BucketName:      viper.GetString("storage.bucket_name"),
			PublicURL:       viper.GetString("storage.public_url"),
		},
		Twilio: TwilioConfig{
			AccountSID: viper.GetString("twilio.account_sid"),
			AuthToken:  viper.GetString("twilio.auth_token"),
			FromNumber: viper.GetString("twilio.from_number"),
			WebhookURL: viper.GetString("twilio.webhook_url"),
		},
		Activity: ActivityConfig{
			Timezone:      viper.GetString("activity.timezone"),
			RetentionDays: viper.GetInt("activity.retention_days"),
		},
	}

	return cfg, nil
}
