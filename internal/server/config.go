package server

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gogpu/jxf"
)

// Config holds the service settings.
type Config struct {
	Addr         string
	DBPath       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
	CacheBudget  int64
	Workers      int
	Sampling     jxf.SampleConfig
}

// Load reads the configuration from the environment:
//
//	JXF_ADDR           listen address (":3000")
//	JXF_DB_PATH        buffer database ("data/buffers.db")
//	JXF_READ_TIMEOUT   seconds (10)
//	JXF_WRITE_TIMEOUT  seconds (30)
//	JXF_BODY_LIMIT     bytes (64 MiB)
//	JXF_CACHE_BUDGET   resolver cache bytes (256 MiB)
//	JXF_WORKERS        EvaluateAll workers (GOMAXPROCS)
//	JXF_SAMPLING       YAML file with the default sampling config
func Load() (Config, error) {
	cfg := Config{
		Addr:         getEnv("JXF_ADDR", ":3000"),
		DBPath:       getEnv("JXF_DB_PATH", "data/buffers.db"),
		ReadTimeout:  time.Duration(getEnvAsInt("JXF_READ_TIMEOUT", 10)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("JXF_WRITE_TIMEOUT", 30)) * time.Second,
		BodyLimit:    getEnvAsInt("JXF_BODY_LIMIT", 64<<20),
		CacheBudget:  int64(getEnvAsInt("JXF_CACHE_BUDGET", 256<<20)),
		Workers:      getEnvAsInt("JXF_WORKERS", 0),
		Sampling:     jxf.DefaultSampleConfig(),
	}

	if path := os.Getenv("JXF_SAMPLING"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("sampling config: %w", err)
		}
		cfg.Sampling, err = jxf.ParseSampleConfig(data)
		if err != nil {
			return Config{}, fmt.Errorf("sampling config %s: %w", path, err)
		}
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
