package config

import (
	"os"
	"strings"
	"time"

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

// Config is built once at startup and passed by pointer into each
// component constructor. It is never mutated after Load returns.
type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Pipeline  PipelineConfig
	OpenAI    OpenAIConfig
	Vizard    VizardConfig
	Resolver  ResolverConfig
	Social    SocialConfig
	R2        R2Config
	Gateway   GatewayConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
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

type RateLimitConfig struct {
	IngestPerHour int
	AdvancePerMin int
	ReportPerHour int
}

// PipelineConfig tunes the stage machine.
type PipelineConfig struct {
	StaleAfter  time.Duration // RUNNING assets older than this are reaped as zombies
	PollDelay   time.Duration // re-enqueue delay for POLLING stages
	AutoAdvance bool          // enqueue the next stage automatically after ingest
}

type OpenAIConfig struct {
	APIKey           string
	BaseURL          string
	WhisperModel     string
	AnalysisModel    string
	CaptionModel     string
	MaxAudioSizeMB   int
	MaxTranscriptLen int
}

type VizardConfig struct {
	APIKey       string
	BaseURL      string
	PreferLength int // preferred clip length in seconds
}

type ResolverConfig struct {
	YtDlpPath string
	TempDir   string
}

type SocialConfig struct {
	Instagram InstagramConfig
	YouTube   YouTubeConfig
}

type InstagramConfig struct {
	AccessToken string
	UserID      string
	BaseURL     string
}

type YouTubeConfig struct {
	AccessToken string
	BaseURL     string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type GatewayConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("OPENAI_API_KEY")
	readSecret("VIZARD_API_KEY")
	readSecret("INSTAGRAM_ACCESS_TOKEN")
	readSecret("YOUTUBE_ACCESS_TOKEN")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")

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
	_ = viper.BindEnv("server.api_domain", "API_DOMAIN")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = viper.BindEnv("pipeline.stale_after_seconds", "PIPELINE_STALE_AFTER_SECONDS")
	_ = viper.BindEnv("pipeline.poll_delay_seconds", "PIPELINE_POLL_DELAY_SECONDS")
	_ = viper.BindEnv("pipeline.auto_advance", "PIPELINE_AUTO_ADVANCE")
	_ = viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = viper.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	_ = viper.BindEnv("openai.whisper_model", "OPENAI_WHISPER_MODEL")
	_ = viper.BindEnv("openai.analysis_model", "OPENAI_ANALYSIS_MODEL")
	_ = viper.BindEnv("openai.caption_model", "OPENAI_CAPTION_MODEL")
	_ = viper.BindEnv("vizard.api_key", "VIZARD_API_KEY")
	_ = viper.BindEnv("vizard.base_url", "VIZARD_BASE_URL")
	_ = viper.BindEnv("vizard.prefer_length", "VIZARD_PREFER_LENGTH")
	_ = viper.BindEnv("resolver.ytdlp_path", "YTDLP_PATH")
	_ = viper.BindEnv("resolver.temp_dir", "RESOLVER_TEMP_DIR")
	_ = viper.BindEnv("social.instagram.access_token", "INSTAGRAM_ACCESS_TOKEN")
	_ = viper.BindEnv("social.instagram.user_id", "INSTAGRAM_USER_ID")
	_ = viper.BindEnv("social.instagram.base_url", "INSTAGRAM_BASE_URL")
	_ = viper.BindEnv("social.youtube.access_token", "YOUTUBE_ACCESS_TOKEN")
	_ = viper.BindEnv("social.youtube.base_url", "YOUTUBE_BASE_URL")
	_ = viper.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = viper.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = viper.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = viper.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = viper.BindEnv("gateway.enabled", "GATEWAY_ENABLED")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)
	viper.SetDefault("ratelimit.ingest_per_hour", 20)
	viper.SetDefault("ratelimit.advance_per_min", 30)
	viper.SetDefault("ratelimit.report_per_hour", 20)

	// Pipeline defaults
	viper.SetDefault("pipeline.stale_after_seconds", 120)
	viper.SetDefault("pipeline.poll_delay_seconds", 30)
	viper.SetDefault("pipeline.auto_advance", true)

	// OpenAI defaults
	viper.SetDefault("openai.base_url", "")
	viper.SetDefault("openai.whisper_model", "whisper-1")
	viper.SetDefault("openai.analysis_model", "gpt-4o")
	viper.SetDefault("openai.caption_model", "gpt-4o-mini")
	viper.SetDefault("openai.max_audio_size_mb", 25)
	viper.SetDefault("openai.max_transcript_len", 8000)

	// Vizard defaults
	viper.SetDefault("vizard.base_url", "https://elb-api.vizard.ai/hvizard-server-front/open-api/v1")
	viper.SetDefault("vizard.prefer_length", 30)

	// Resolver defaults
	viper.SetDefault("resolver.ytdlp_path", "yt-dlp")
	viper.SetDefault("resolver.temp_dir", "")

	// Social defaults
	viper.SetDefault("social.instagram.base_url", "https://graph.facebook.com/v19.0")
	viper.SetDefault("social.youtube.base_url", "https://www.googleapis.com/upload/youtube/v3")

	// Gateway defaults
	viper.SetDefault("gateway.enabled", false)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      viper.GetString("server.port"),
			Env:       viper.GetString("server.env"),
			LogLevel:  viper.GetString("server.log_level"),
			ApiDomain: viper.GetString("server.api_domain"),
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
		RateLimit: RateLimitConfig{
			IngestPerHour: viper.GetInt("ratelimit.ingest_per_hour"),
			AdvancePerMin: viper.GetInt("ratelimit.advance_per_min"),
			ReportPerHour: viper.GetInt("ratelimit.report_per_hour"),
		},
		Pipeline: PipelineConfig{
			StaleAfter:  time.Duration(viper.GetInt("pipeline.stale_after_seconds")) * time.Second,
			PollDelay:   time.Duration(viper.GetInt("pipeline.poll_delay_seconds")) * time.Second,
			AutoAdvance: viper.GetBool("pipeline.auto_advance"),
		},
		OpenAI: OpenAIConfig{
			APIKey:           viper.GetString("openai.api_key"),
			BaseURL:          viper.GetString("openai.base_url"),
			WhisperModel:     viper.GetString("openai.whisper_model"),
			AnalysisModel:    viper.GetString("openai.analysis_model"),
			CaptionModel:     viper.GetString("openai.caption_model"),
			MaxAudioSizeMB:   viper.GetInt("openai.max_audio_size_mb"),
			MaxTranscriptLen: viper.GetInt("openai.max_transcript_len"),
		},
		Vizard: VizardConfig{
			APIKey:       viper.GetString("vizard.api_key"),
			BaseURL:      viper.GetString("vizard.base_url"),
			PreferLength: viper.GetInt("vizard.prefer_length"),
		},
		Resolver: ResolverConfig{
			YtDlpPath: viper.GetString("resolver.ytdlp_path"),
			TempDir:   viper.GetString("resolver.temp_dir"),
		},
		Social: SocialConfig{
			Instagram: InstagramConfig{
				AccessToken: viper.GetString("social.instagram.access_token"),
				UserID:      viper.GetString("social.instagram.user_id"),
				BaseURL:     viper.GetString("social.instagram.base_url"),
			},
			YouTube: YouTubeConfig{
				AccessToken: viper.GetString("social.youtube.access_token"),
				BaseURL:     viper.GetString("social.youtube.base_url"),
			},
		},
		R2: R2Config{
			AccountID:       viper.GetString("r2.account_id"),
			AccessKeyID:     viper.GetString("r2.access_key_id"),
			SecretAccessKey: viper.GetString("r2.secret_access_key"),
			BucketName:      viper.GetString("r2.bucket_name"),
			PublicURL:       viper.GetString("r2.public_url"),
		},
		Gateway: GatewayConfig{
			Enabled: viper.GetBool("gateway.enabled"),
		},
	}

	return cfg, nil
}
