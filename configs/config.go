package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/maheshrc27/crosspost/pkg/utils"
	"github.com/spf13/cast"
)

const encryptedPrefix = "enc:"

type S3 struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	PublicURL string
	AccessKey string
	SecretKey string
}

type Bedrock struct {
	AccessKey string
	SecretKey string
	Region    string
	ModelID   string
}

type Instagram struct {
	AccessToken string
	PageID      string
	BaseURL     string
}

type Threads struct {
	AccessToken string
	BaseURL     string
}

type Tiktok struct {
	AccessToken string
	BaseURL     string
}

type Tumblr struct {
	ConsumerKey      string
	ConsumerSecret   string
	OAuthToken       string
	OAuthTokenSecret string
	BlogName         string
	BaseURL          string
}

type Bluesky struct {
	Username string
	Password string
	BaseURL  string
}

// Polling holds the per-platform polling ceilings. Zero values fall back to
// the publisher defaults.
type Polling struct {
	InstagramInterval time.Duration
	InstagramAttempts int
	ThreadsInterval   time.Duration
	ThreadsAttempts   int
	TiktokInterval    time.Duration
	TiktokAttempts    int
}

type Config struct {
	QueueFile     string
	MediaLinkFile string
	MediaDir      string
	DownloadDir   string
	RetentionDays int
	PostSchedule  string
	RunTimeout    time.Duration
	HTTPAddr      string
	APIKey        string
	SecretKey     string
	PostgresURI   string
	RedisURI      string
	LogLevel      string
	LogFormat     string
	S3            S3
	Bedrock       Bedrock
	Instagram     Instagram
	Threads       Threads
	Tiktok        Tiktok
	Tumblr        Tumblr
	Bluesky       Bluesky
	Polling       Polling
}

func LoadConfig() (*Config, error) {
	secretKey := getEnv("SECRET_KEY", "")
	secret := func(key string) (string, error) {
		return resolveSecret(key, getEnv(key, ""), secretKey)
	}

	cfg := &Config{
		QueueFile:     getEnv("CONTENT_QUEUE_FILE", "scheduled_posts/content_queue.json"),
		MediaLinkFile: getEnv("MEDIA_LINKS_FILE", "scheduled_posts/media_links.json"),
		MediaDir:      getEnv("MEDIA_DIR", "media"),
		DownloadDir:   getEnv("DOWNLOAD_DIR", "temp"),
		RetentionDays: getEnvInt("RETENTION_DAYS", 30),
		PostSchedule:  getEnv("POST_SCHEDULE", "@every 06h00m00s"),
		RunTimeout:    getEnvDuration("RUN_TIMEOUT", 30*time.Minute),
		HTTPAddr:      getEnv("HTTP_ADDR", ":3000"),
		SecretKey:     secretKey,
		PostgresURI:   getEnv("POSTGRES_URI", ""),
		RedisURI:      getEnv("REDIS_URI", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		S3: S3{
			Bucket:    getEnv("S3_BUCKET", ""),
			Prefix:    getEnv("S3_PREFIX", "posts_insta"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			PublicURL: getEnv("S3_PUBLIC_URL", ""),
		},
		Bedrock: Bedrock{
			Region:  getEnv("BEDROCK_REGION", "eu-west-2"),
			ModelID: getEnv("BEDROCK_MODEL_ID", "amazon.nova-pro-v1:0"),
		},
		Instagram: Instagram{
			PageID:  getEnv("INSTAGRAM_PAGE_ID", ""),
			BaseURL: getEnv("INSTAGRAM_BASE_URL", "https://graph.facebook.com/v21.0"),
		},
		Threads: Threads{
			BaseURL: getEnv("THREADS_BASE_URL", "https://graph.threads.net/v1.0"),
		},
		Tiktok: Tiktok{
			BaseURL: getEnv("TIKTOK_BASE_URL", "https://open.tiktokapis.com/v2"),
		},
		Tumblr: Tumblr{
			BlogName: getEnv("TUMBLR_BLOG_NAME", ""),
			BaseURL:  getEnv("TUMBLR_BASE_URL", "https://api.tumblr.com/v2"),
		},
		Bluesky: Bluesky{
			Username: getEnv("BLUESKY_USERNAME", ""),
			BaseURL:  getEnv("BLUESKY_BASE_URL", "https://bsky.social"),
		},
		Polling: Polling{
			InstagramInterval: getEnvDuration("INSTAGRAM_POLL_INTERVAL", 0),
			InstagramAttempts: getEnvInt("INSTAGRAM_POLL_ATTEMPTS", 0),
			ThreadsInterval:   getEnvDuration("THREADS_POLL_INTERVAL", 0),
			ThreadsAttempts:   getEnvInt("THREADS_POLL_ATTEMPTS", 0),
			TiktokInterval:    getEnvDuration("TIKTOK_POLL_INTERVAL", 0),
			TiktokAttempts:    getEnvInt("TIKTOK_POLL_ATTEMPTS", 0),
		},
	}

	secrets := []struct {
		key    string
		target *string
	}{
		{"API_KEY", &cfg.APIKey},
		{"AWS_ACCESS_KEY_ID_S3", &cfg.S3.AccessKey},
		{"AWS_SECRET_ACCESS_KEY_S3", &cfg.S3.SecretKey},
		{"AWS_ACCESS_KEY_ID", &cfg.Bedrock.AccessKey},
		{"AWS_SECRET_ACCESS_KEY", &cfg.Bedrock.SecretKey},
		{"INSTAGRAM_ACCESS_TOKEN", &cfg.Instagram.AccessToken},
		{"THREADS_ACCESS_TOKEN", &cfg.Threads.AccessToken},
		{"TIKTOK_ACCESS_TOKEN", &cfg.Tiktok.AccessToken},
		{"TUMBLR_CONSUMER_KEY", &cfg.Tumblr.ConsumerKey},
		{"TUMBLR_CONSUMER_SECRET", &cfg.Tumblr.ConsumerSecret},
		{"TUMBLR_OAUTH_TOKEN", &cfg.Tumblr.OAuthToken},
		{"TUMBLR_OAUTH_TOKEN_SECRET", &cfg.Tumblr.OAuthTokenSecret},
		{"BLUESKY_PASSWORD", &cfg.Bluesky.Password},
	}
	for _, s := range secrets {
		value, err := secret(s.key)
		if err != nil {
			return nil, err
		}
		*s.target = value
	}

	return cfg, nil
}

// resolveSecret decrypts values stored as "enc:<base64 ciphertext>".
func resolveSecret(key, value, secretKey string) (string, error) {
	if !strings.HasPrefix(value, encryptedPrefix) {
		return value, nil
	}
	if secretKey == "" {
		return "", fmt.Errorf("%s is encrypted but SECRET_KEY is not set", key)
	}
	plain, err := utils.Decrypt(strings.TrimPrefix(value, encryptedPrefix), []byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("decrypt %s: %w", key, err)
	}
	return plain, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := cast.ToIntE(getEnv(key, ""))
	if err != nil || os.Getenv(key) == "" {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	value, err := cast.ToDurationE(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
