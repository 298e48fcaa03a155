package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	// Store
	DatabaseURI   string // DATABASE_URI, postgres DSN or mongodb:// URI
	StoreDriver   string // postgres | mongo
	MongoDatabase string

	// Object storage
	AWSKey        string
	AWSSecret     string
	AWSRegion     string
	AWSBucket     string
	AWSEndpoint   string
	StoragePrefix string // e.g. CablePornDev

	// Social platform
	ConsumerKey      string
	ConsumerSecret   string
	UserAccessToken  string
	UserAccessSecret string

	// Feed
	Subreddit string
	FeedLabel string
	UserAgent string

	// Schedule
	Timezone        string
	IngestSchedule  string
	PublishSchedule string
	IngestOnBoot    bool
	PublishOnBoot   bool

	// Limits
	IngestConcurrency int
	HTTPTimeout       time.Duration
	ItemTimeout       time.Duration
	CycleTimeout      time.Duration
	DownloadRate      float64 // downloads per second
	TempDir           string

	// Operator surface
	Port              string
	AdminPasswordHash string
	AuthSecret        string
}

// Load reads an optional env file (path may be empty) and then the process environment.
func Load(envFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("read %s: %w", envFile, err)
			}
		}
	}
	v.AutomaticEnv()

	c := Config{
		DatabaseURI:   v.GetString("DATABASE_URI"),
		StoreDriver:   strings.ToLower(v.GetString("STORE_DRIVER")),
		MongoDatabase: v.GetString("MONGO_DATABASE"),

		AWSKey:        v.GetString("AWS_KEY"),
		AWSSecret:     v.GetString("AWS_SECRET"),
		AWSRegion:     v.GetString("AWS_REGION"),
		AWSBucket:     v.GetString("AWS_BUCKET"),
		AWSEndpoint:   v.GetString("AWS_ENDPOINT"),
		StoragePrefix: v.GetString("STORAGE_PREFIX"),

		ConsumerKey:      v.GetString("CONSUMER_KEY"),
		ConsumerSecret:   v.GetString("CONSUMER_SECRET"),
		UserAccessToken:  v.GetString("USER_ACCESS_TOKEN"),
		UserAccessSecret: v.GetString("USER_ACCESS_SECRET"),

		Subreddit: v.GetString("SUBREDDIT"),
		FeedLabel: v.GetString("FEED_LABEL"),
		UserAgent: v.GetString("USER_AGENT"),

		Timezone:        v.GetString("TZ_NAME"),
		IngestSchedule:  v.GetString("INGEST_SCHEDULE"),
		PublishSchedule: v.GetString("PUBLISH_SCHEDULE"),
		IngestOnBoot:    v.GetBool("INGEST_ON_BOOT"),
		PublishOnBoot:   v.GetBool("PUBLISH_ON_BOOT"),

		IngestConcurrency: v.GetInt("INGEST_CONCURRENCY"),
		HTTPTimeout:       v.GetDuration("HTTP_TIMEOUT"),
		ItemTimeout:       v.GetDuration("ITEM_TIMEOUT"),
		CycleTimeout:      v.GetDuration("CYCLE_TIMEOUT"),
		DownloadRate:      v.GetFloat64("DOWNLOAD_RATE"),
		TempDir:           v.GetString("TEMP_DIR"),

		Port:              v.GetString("PORT"),
		AdminPasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
		AuthSecret:        v.GetString("AUTH_SECRET"),
	}
	return c, c.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("MONGO_DATABASE", "cableposter")
	v.SetDefault("AWS_REGION", "ap-northeast-1")
	v.SetDefault("STORAGE_PREFIX", "CablePornDev")
	v.SetDefault("SUBREDDIT", "cableporn")
	v.SetDefault("FEED_LABEL", "r/CablePorn")
	v.SetDefault("USER_AGENT", "cableposter/1.0")
	v.SetDefault("TZ_NAME", "Asia/Tokyo")
	v.SetDefault("INGEST_SCHEDULE", "0 0 * * *")
	v.SetDefault("PUBLISH_SCHEDULE", "0 14 * * *")
	v.SetDefault("INGEST_ON_BOOT", false)
	v.SetDefault("PUBLISH_ON_BOOT", true)
	v.SetDefault("INGEST_CONCURRENCY", 4)
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("ITEM_TIMEOUT", "2m")
	v.SetDefault("CYCLE_TIMEOUT", "15m")
	v.SetDefault("DOWNLOAD_RATE", 1.0)
	v.SetDefault("TEMP_DIR", "/tmp/cableposter")
	v.SetDefault("PORT", "8080")
}

func (c Config) Validate() error {
	var missing []string
	for _, kv := range [][2]string{
		{"DATABASE_URI", c.DatabaseURI},
		{"AWS_BUCKET", c.AWSBucket},
		{"CONSUMER_KEY", c.ConsumerKey},
		{"CONSUMER_SECRET", c.ConsumerSecret},
		{"USER_ACCESS_TOKEN", c.UserAccessToken},
		{"USER_ACCESS_SECRET", c.UserAccessSecret},
	} {
		if kv[1] == "" {
			missing = append(missing, kv[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	switch c.StoreDriver {
	case DriverPostgres, DriverMongo:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TZ_NAME: %w", err)
	}
	return nil
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
