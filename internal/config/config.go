package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Redis   RedisConfig
	Cache   CacheConfig
	Log     LogConfig
	Worker  WorkerConfig
	Cluster ClusterConfig
	Layers  LayersConfig
	Dataset DatasetConfig
	Routing RoutingConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Env         string
	CORSOrigins string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	HiddenNamesTTL time.Duration
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	MaxRetries        int
	PoolSize          int
	BatchSize         int
}

// ClusterConfig - параметры пространственного индекса
type ClusterConfig struct {
	MinZoom   int
	MaxZoom   int
	MinPoints int
	Radius    float64
	Extent    float64
}

// LayersConfig - пороги зума для композиции слоёв
type LayersConfig struct {
	ClusterMaxZoom    float64
	DetailMinZoom     float64
	IconMinZoom       float64
	LabelMinZoom      float64
	ProxyRadiusPixels float64
	MaxClusterScale   float64
}

type DatasetConfig struct {
	Path string
}

type RoutingConfig struct {
	BaseURL        string
	AccessToken    string
	Profile        string
	RequestTimeout time.Duration
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// .env необязателен, окружения достаточно
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !isNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_HOST", "0.0.0.0")
	v.SetDefault("API_PORT", 8080)
	v.SetDefault("API_ENV", "development")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("HIDDEN_NAMES_CACHE_TTL", 600)
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("WORKER_ENABLED", true)
	v.SetDefault("WORKER_CONSUMER_GROUP", "visibility-workers")
	v.SetDefault("WORKER_STREAM_READ_TIMEOUT", 5000)
	v.SetDefault("WORKER_MAX_RETRIES", 3)
	v.SetDefault("WORKER_POOL_SIZE", 4)
	v.SetDefault("WORKER_BATCH_SIZE", 10)

	v.SetDefault("CLUSTER_MIN_ZOOM", 0)
	v.SetDefault("CLUSTER_MAX_ZOOM", 16)
	v.SetDefault("CLUSTER_MIN_POINTS", 2)
	v.SetDefault("CLUSTER_RADIUS", 40)
	v.SetDefault("CLUSTER_EXTENT", 512)

	v.SetDefault("LAYERS_CLUSTER_MAX_ZOOM", 13)
	v.SetDefault("LAYERS_DETAIL_MIN_ZOOM", 15)
	v.SetDefault("LAYERS_ICON_MIN_ZOOM", 13)
	v.SetDefault("LAYERS_LABEL_MIN_ZOOM", 14)
	v.SetDefault("LAYERS_PROXY_RADIUS", 18)
	v.SetDefault("LAYERS_MAX_CLUSTER_SCALE", 2.5)

	v.SetDefault("DATASET_PATH", "data/points.geojson")

	v.SetDefault("ROUTING_BASE_URL", "https://api.mapbox.com")
	v.SetDefault("ROUTING_PROFILE", "walking")
	v.SetDefault("ROUTING_REQUEST_TIMEOUT", 10)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Host:        v.GetString("API_HOST"),
			Port:        v.GetInt("API_PORT"),
			Env:         v.GetString("API_ENV"),
			CORSOrigins: v.GetString("API_CORS_ORIGINS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			HiddenNamesTTL: time.Duration(v.GetInt("HIDDEN_NAMES_CACHE_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:           v.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     v.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(v.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			MaxRetries:        v.GetInt("WORKER_MAX_RETRIES"),
			PoolSize:          v.GetInt("WORKER_POOL_SIZE"),
			BatchSize:         v.GetInt("WORKER_BATCH_SIZE"),
		},
		Cluster: ClusterConfig{
			MinZoom:   v.GetInt("CLUSTER_MIN_ZOOM"),
			MaxZoom:   v.GetInt("CLUSTER_MAX_ZOOM"),
			MinPoints: v.GetInt("CLUSTER_MIN_POINTS"),
			Radius:    v.GetFloat64("CLUSTER_RADIUS"),
			Extent:    v.GetFloat64("CLUSTER_EXTENT"),
		},
		Layers: LayersConfig{
			ClusterMaxZoom:    v.GetFloat64("LAYERS_CLUSTER_MAX_ZOOM"),
			DetailMinZoom:     v.GetFloat64("LAYERS_DETAIL_MIN_ZOOM"),
			IconMinZoom:       v.GetFloat64("LAYERS_ICON_MIN_ZOOM"),
			LabelMinZoom:      v.GetFloat64("LAYERS_LABEL_MIN_ZOOM"),
			ProxyRadiusPixels: v.GetFloat64("LAYERS_PROXY_RADIUS"),
			MaxClusterScale:   v.GetFloat64("LAYERS_MAX_CLUSTER_SCALE"),
		},
		Dataset: DatasetConfig{
			Path: v.GetString("DATASET_PATH"),
		},
		Routing: RoutingConfig{
			BaseURL:        v.GetString("ROUTING_BASE_URL"),
			AccessToken:    v.GetString("ROUTING_ACCESS_TOKEN"),
			Profile:        v.GetString("ROUTING_PROFILE"),
			RequestTimeout: time.Duration(v.GetInt("ROUTING_REQUEST_TIMEOUT")) * time.Second,
		},
	}
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
