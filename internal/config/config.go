package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StoreConfig selects the durable key/value backend: memory, sqlite, redis or postgres.
type StoreConfig struct {
	Driver string
	Path   string
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Enabled     bool
	Endpoint    string
	AccessKey   string
	SecretKey   string
	BucketPhoto string
	// PublicURL prefixes object keys in stored report photos; defaults to the endpoint.
	PublicURL  string
	UseSSL     bool
	Region     string
	MaxPhotoMB int
}

type RemoteConfig struct {
	BaseURL string
	Timeout time.Duration
}

type GeocodeConfig struct {
	Enabled   bool
	BaseURL   string
	UserAgent string
	Rate      float64
	CacheTTL  time.Duration
	Timeout   time.Duration
}

type SecurityConfig struct {
	SessionSecret string
}

type QueueConfig struct {
	Enabled       bool
	Stream        string
	Group         string
	Consumer      string
	ClaimInterval time.Duration
}

type JobsConfig struct {
	SweepSchedule string
}

type LoggingConfig struct {
	Level string
}

type AppConfig struct {
	Environment      string
	Backend          string
	HTTP             HTTPConfig
	Store            StoreConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Remote           RemoteConfig
	Geocode          GeocodeConfig
	Security         SecurityConfig
	Queue            QueueConfig
	Jobs             JobsConfig
	Logging          LoggingConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	return LoadFrom("")
}

// LoadFrom reads the named config file, or searches the default locations when file is empty.
func LoadFrom(file string) (*AppConfig, error) {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("../config")
	}

	v.SetEnvPrefix("BACHES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.Backend {
	case BackendLocal, BackendRemote:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Backend == BackendRemote && c.Remote.BaseURL == "" {
		return fmt.Errorf("remote.baseurl required for remote backend")
	}
	if c.Backend == BackendLocal && c.Security.SessionSecret == "" {
		return fmt.Errorf("security.sessionsecret required for local backend")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("backend", BackendLocal)

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "baches.db")

	v.SetDefault("postgres.maxopen", 10)
	v.SetDefault("postgres.maxidle", 2)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.bucketphoto", "baches-photos")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.maxphotomb", 8)

	v.SetDefault("remote.baseurl", "https://baches-yucatan-1.onrender.com/api")
	v.SetDefault("remote.timeout", "15s")

	v.SetDefault("geocode.enabled", false)
	v.SetDefault("geocode.baseurl", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.useragent", "baches-dashboard/1.0")
	v.SetDefault("geocode.rate", 1.0)
	v.SetDefault("geocode.cachettl", "720h")
	v.SetDefault("geocode.timeout", "10s")

	v.SetDefault("security.sessionsecret", "change-me")

	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.stream", "reports:enrich")
	v.SetDefault("queue.group", "enrich-workers")
	v.SetDefault("queue.consumer", "worker-1")
	v.SetDefault("queue.claiminterval", "30s")

	v.SetDefault("jobs.sweepschedule", "0 0 */1 * * *") // hourly

	v.SetDefault("logging.level", "info")
}
