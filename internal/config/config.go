package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервиса.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Raycast   RaycastConfig   `yaml:"raycast"`
	World     WorldConfig     `yaml:"world"`
	Storage   StorageConfig   `yaml:"storage"`
	Entities  EntitiesConfig  `yaml:"entities"`
	Redis     RedisConfig     `yaml:"redis"`
	NATS      NATSConfig      `yaml:"nats"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	RESTPort     int           `yaml:"rest_port"`
	MetricsPort  int           `yaml:"metrics_port"`
	CastTimeout  time.Duration `yaml:"cast_timeout"`
	NodeID       string        `yaml:"node_id"`
	AllowOrigins []string      `yaml:"allow_origins"`
}

// RaycastConfig - параметры Marcher и пользовательские пресеты шага
type RaycastConfig struct {
	MaxSteps         int                `yaml:"max_steps"`
	Margin           float64            `yaml:"margin"`
	CancelCheckEvery int                `yaml:"cancel_check_every"`
	DefaultPolicy    string             `yaml:"default_policy"`
	MaxDistance      float64            `yaml:"max_distance"`
	Policies         map[string]float64 `yaml:"policies"`
}

type WorldConfig struct {
	Seed             int64         `yaml:"seed"`
	SeaLevel         int           `yaml:"sea_level"`
	MinY             int           `yaml:"min_y"`
	MaxY             int           `yaml:"max_y"`
	ChunkCacheSize   int           `yaml:"chunk_cache_size"`
	AutoSaveInterval time.Duration `yaml:"autosave_interval"`
}

type StorageConfig struct {
	Backend  string        `yaml:"backend"` // badger | redis | tiered | memory
	DataPath string        `yaml:"data_path"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type EntitiesConfig struct {
	Backend string `yaml:"backend"` // memory | redis | maria
	DSN     string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	FileLevel  string `yaml:"file_level"`
	FileOutput bool   `yaml:"file_output"`
	Dir        string `yaml:"dir"`
	JSON       bool   `yaml:"json"`
	// Консольные уровни отдельных компонентов, например raycast: DEBUG
	Components map[string]string `yaml:"components"`
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	Insecure    bool    `yaml:"insecure"`     // OTLP по HTTP без TLS
	SampleRatio float64 `yaml:"sample_ratio"` // доля корневых трасс, 0..1
}

// Default возвращает полную конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			CastTimeout: 2 * time.Second,
			NodeID:      "",
		},
		Raycast: RaycastConfig{
			MaxSteps:         100_000,
			Margin:           0.5,
			CancelCheckEvery: 256,
			DefaultPolicy:    "precise_block",
			MaxDistance:      256,
			Policies:         map[string]float64{},
		},
		World: WorldConfig{
			Seed:             1,
			SeaLevel:         62,
			MinY:             0,
			MaxY:             256,
			ChunkCacheSize:   4096,
			AutoSaveInterval: 5 * time.Minute,
		},
		Storage: StorageConfig{
			Backend:  "badger",
			DataPath: "data",
			CacheTTL: 10 * time.Minute,
		},
		Entities: EntitiesConfig{
			Backend: "memory",
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "raycast:",
		},
		NATS: NATSConfig{
			URL:     "nats://localhost:4222",
			Subject: "raycast.chunks.invalidate",
		},
		Logging: LoggingConfig{
			Level:     "INFO",
			FileLevel: "DEBUG",
			Dir:       "logs",
		},
		Telemetry: TelemetryConfig{
			Endpoint:    "localhost:4318",
			ServiceName: "raycast",
			Insecure:    true,
			SampleRatio: 1,
		},
	}
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "RAYCAST_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "RAYCAST_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл поверх значений по умолчанию.
// Если path == "", берётся RAYCAST_CONFIG; без него возвращается Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("RAYCAST_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	r := c.Raycast
	if r.MaxSteps <= 0 {
		return fmt.Errorf("raycast.max_steps должен быть положительным: %d", r.MaxSteps)
	}
	if r.Margin < 0 || math.IsNaN(r.Margin) || math.IsInf(r.Margin, 0) {
		return fmt.Errorf("raycast.margin некорректен: %v", r.Margin)
	}
	if r.CancelCheckEvery <= 0 {
		return fmt.Errorf("raycast.cancel_check_every должен быть положительным: %d", r.CancelCheckEvery)
	}
	if r.MaxDistance <= 0 || math.IsNaN(r.MaxDistance) || math.IsInf(r.MaxDistance, 0) {
		return fmt.Errorf("raycast.max_distance некорректен: %v", r.MaxDistance)
	}
	for name, advance := range r.Policies {
		if name == "" {
			return fmt.Errorf("raycast.policies: пустое имя пресета")
		}
		if advance <= 0 || math.IsNaN(advance) || math.IsInf(advance, 0) {
			return fmt.Errorf("raycast.policies.%s: шаг должен быть положительным: %v", name, advance)
		}
	}

	if c.World.MaxY <= c.World.MinY {
		return fmt.Errorf("world: max_y (%d) должен быть больше min_y (%d)", c.World.MaxY, c.World.MinY)
	}

	switch c.Storage.Backend {
	case "badger", "redis", "tiered", "memory":
	default:
		return fmt.Errorf("storage.backend: неизвестное значение %q", c.Storage.Backend)
	}

	switch c.Entities.Backend {
	case "memory", "redis":
	case "maria":
		if c.Entities.DSN == "" {
			return fmt.Errorf("entities.dsn обязателен для backend maria")
		}
	default:
		return fmt.Errorf("entities.backend: неизвестное значение %q", c.Entities.Backend)
	}

	if ratio := c.Telemetry.SampleRatio; ratio < 0 || ratio > 1 || math.IsNaN(ratio) {
		return fmt.Errorf("telemetry.sample_ratio должен быть в диапазоне [0, 1]: %v", ratio)
	}
	return nil
}
