package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	// Commands must settle well inside a UI refresh cycle.
	maxCommandTimeout = 10 * time.Second
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"local"`
	Storage    string     `yaml:"storage" env:"STORAGE" env-default:"memory"`
	DB         DB         `yaml:"db"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Camera     Camera     `yaml:"camera"`
	FanOut     FanOut     `yaml:"fanout"`
}

type DB struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	Username string `yaml:"username" env:"POSTGRES_USER" env-default:"postgres"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-default:"ptz_console"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
	Password string `yaml:"-"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:3001"`
	Timeout     time.Duration `yaml:"timeout" env-default:"15s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Camera struct {
	CommandTimeout  time.Duration `yaml:"command_timeout" env-default:"5s"`
	LivenessTimeout time.Duration `yaml:"liveness_timeout" env-default:"3s"`
	ScrapeTimeout   time.Duration `yaml:"scrape_timeout" env-default:"10s"`
	ScrapeSettle    time.Duration `yaml:"scrape_settle" env-default:"500ms"`
	ChromePath      string        `yaml:"chrome_path" env:"CHROME_PATH"`
}

type FanOut struct {
	// MaxConcurrency caps in-flight calls per round; 0 means one per camera.
	MaxConcurrency int           `yaml:"max_concurrency" env-default:"0"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout" env-default:"30s"`
}

func MustLoad() *Config {
	loadDotEnv()

	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	if err := cfg.Validate(); err != nil {
		panic("invalid config: " + err.Error())
	}

	return &cfg
}

func (c *Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}

	if c.Camera.CommandTimeout <= 0 || c.Camera.CommandTimeout >= maxCommandTimeout {
		return fmt.Errorf("camera.command_timeout must be in (0, %s), got %s", maxCommandTimeout, c.Camera.CommandTimeout)
	}

	if c.Camera.LivenessTimeout <= 0 || c.Camera.ScrapeTimeout <= 0 {
		return fmt.Errorf("camera probe timeouts must be positive")
	}

	if c.FanOut.MaxConcurrency < 0 {
		return fmt.Errorf("fanout.max_concurrency must not be negative")
	}

	return nil
}

// fetchConfigPath fetches config path from command line flag or environment variable.
// Priority: flag > env > default.
func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}

func loadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}

	if err := godotenv.Load(".env"); err != nil {
		log.Fatal(err)
	}
}
