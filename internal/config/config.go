// Package config provides configuration loading for the extraction
// services. Values come from an optional YAML file with environment
// overrides under the ADS_ prefix (ADS_WAREHOUSE_DSN, ADS_SERVER_ADDR...).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service configuration (file + env overrides).
type Config struct {
	Server struct {
		Addr     string `mapstructure:"addr"`
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"server"`

	API struct {
		Host    string `mapstructure:"host"`
		Version string `mapstructure:"version"`
		// AccessToken, when set, bypasses the secret blob.
		AccessToken      string  `mapstructure:"access_token"`
		RateLimit        float64 `mapstructure:"rate_limit"`
		RateBurst        int     `mapstructure:"rate_burst"`
		TimeoutSeconds   int     `mapstructure:"timeout_seconds"`
		MaxRetries       int     `mapstructure:"max_retries"`
		BaseDelaySeconds int     `mapstructure:"base_delay_seconds"`
		SleepSeconds     int     `mapstructure:"sleep_seconds"`
	} `mapstructure:"api"`

	Extraction struct {
		// Datasets merges over the default toggles, so a file only
		// needs to name the flags it changes.
		Datasets             map[string]bool       `mapstructure:"datasets"`
		Breakdowns           map[string][][]string `mapstructure:"breakdowns"`
		DaysBack             int                   `mapstructure:"days_back"`
		CreativeLimit        int                   `mapstructure:"creative_limit"`
		DownloadImages       bool                  `mapstructure:"download_images"`
		DownloadVideos       bool                  `mapstructure:"download_videos"`
		TargetImages         int                   `mapstructure:"target_images"`
		TargetVideos         int                   `mapstructure:"target_videos"`
		ArchiveRaw           bool                  `mapstructure:"archive_raw"`
		ClientDelaySeconds   int                   `mapstructure:"client_delay_seconds"`
		AccountDelaySeconds  int                   `mapstructure:"account_delay_seconds"`
		CategoryDelaySeconds int                   `mapstructure:"category_delay_seconds"`
		RunTimeoutMinutes    int                   `mapstructure:"run_timeout_minutes"`
	} `mapstructure:"extraction"`

	ObjectStore struct {
		// Endpoint is the S3 endpoint URL; empty selects the local
		// directory store under LocalDir.
		Endpoint          string `mapstructure:"endpoint"`
		Region            string `mapstructure:"region"`
		AccessKey         string `mapstructure:"access_key"`
		SecretKey         string `mapstructure:"secret_key"`
		LocalDir          string `mapstructure:"local_dir"`
		ArchiveBucket     string `mapstructure:"archive_bucket"`
		ConfigBucket      string `mapstructure:"config_bucket"`
		MediaBucketSuffix string `mapstructure:"media_bucket_suffix"`
	} `mapstructure:"object_store"`

	Warehouse struct {
		DSN     string `mapstructure:"dsn"`
		Dataset string `mapstructure:"dataset"`
	} `mapstructure:"warehouse"`

	Credentials struct {
		TokenKey  string `mapstructure:"token_key"`
		RosterKey string `mapstructure:"roster_key"`
	} `mapstructure:"credentials"`
}

// Load reads configs/pipeline.yaml (optional) and the environment.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("pipeline")
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional; env and defaults can fully configure

	v.SetEnvPrefix("ADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides bind even
// without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.log_level", "info")

	v.SetDefault("api.host", "graph.facebook.com")
	v.SetDefault("api.version", "v22.0")
	v.SetDefault("api.access_token", "")
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("api.rate_burst", 5)
	v.SetDefault("api.timeout_seconds", 30)
	v.SetDefault("api.max_retries", 3)
	v.SetDefault("api.base_delay_seconds", 1)
	v.SetDefault("api.sleep_seconds", 5)

	v.SetDefault("extraction.datasets", map[string]bool{
		"ads":            true,
		"ad_creatives":   true,
		"ad_performance": true,
	})
	v.SetDefault("extraction.days_back", 90)
	v.SetDefault("extraction.creative_limit", 0)
	v.SetDefault("extraction.download_images", false)
	v.SetDefault("extraction.download_videos", false)
	v.SetDefault("extraction.target_images", 0)
	v.SetDefault("extraction.target_videos", 0)
	v.SetDefault("extraction.archive_raw", false)
	v.SetDefault("extraction.client_delay_seconds", 10)
	v.SetDefault("extraction.account_delay_seconds", 2)
	v.SetDefault("extraction.category_delay_seconds", 0)
	v.SetDefault("extraction.run_timeout_minutes", 0)

	v.SetDefault("object_store.endpoint", "")
	v.SetDefault("object_store.region", "")
	v.SetDefault("object_store.access_key", "")
	v.SetDefault("object_store.secret_key", "")
	v.SetDefault("object_store.local_dir", "data")
	v.SetDefault("object_store.archive_bucket", "meta-ads-raw")
	v.SetDefault("object_store.config_bucket", "clients-config")
	v.SetDefault("object_store.media_bucket_suffix", "-meta-ads")

	v.SetDefault("warehouse.dsn", "")
	v.SetDefault("warehouse.dataset", "meta_ads")

	v.SetDefault("credentials.token_key", "meta-access-token.json")
	v.SetDefault("credentials.roster_key", "clients.json")
}

func (c Config) APITimeout() time.Duration { return seconds(c.API.TimeoutSeconds) }
func (c Config) BaseDelay() time.Duration  { return seconds(c.API.BaseDelaySeconds) }
func (c Config) SleepDelay() time.Duration { return seconds(c.API.SleepSeconds) }

func (c Config) ClientDelay() time.Duration   { return seconds(c.Extraction.ClientDelaySeconds) }
func (c Config) AccountDelay() time.Duration  { return seconds(c.Extraction.AccountDelaySeconds) }
func (c Config) CategoryDelay() time.Duration { return seconds(c.Extraction.CategoryDelaySeconds) }

// RunTimeout bounds a whole batch run; zero means no deadline.
func (c Config) RunTimeout() time.Duration {
	return time.Duration(c.Extraction.RunTimeoutMinutes) * time.Minute
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
