package config

import (
	"bufio"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Configuration
	HTTPAddr string

	// Remote daemon (Ollama) Configuration
	OllamaURL     string
	OllamaModel   string
	OllamaTimeout time.Duration

	// Local model (llama-server) Configuration
	LlamaURL     string
	LlamaTimeout time.Duration

	// Startup probe
	ProbeTimeout time.Duration

	// Interaction log
	LogPath string

	// NATS Configuration (transport disabled when NatsURL is empty)
	NatsURL           string
	Subject           string
	QueueGroup        string
	Concurrency       int
	HeartbeatInterval time.Duration // non-positive disables heartbeats

	// Request rate limit (0 disables)
	RateLimitRPS float64
	RateBurst    int
}

func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := loadDotEnv(envFile); err != nil {
			slog.Warn("Could not load env file", "file", envFile, "error", err)
		} else {
			slog.Info("Environment loaded", "file", envFile)
		}
	}

	return &Config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8000"),
		OllamaURL:         getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "llama2:7b"),
		OllamaTimeout:     getEnvDuration("OLLAMA_TIMEOUT", "30s"),
		LlamaURL:          getEnv("LLAMA_URL", "http://127.0.0.1:8080"),
		LlamaTimeout:      getEnvDuration("LLAMA_TIMEOUT", "120s"),
		ProbeTimeout:      getEnvDuration("PROBE_TIMEOUT", "5s"),
		LogPath:           getEnv("LOG_PATH", "logs/log.jsonl"),
		NatsURL:           getEnv("NATS_URL", ""),
		Subject:           getEnv("NATS_SUBJECT", "minivault.generate.request"),
		QueueGroup:        getEnv("QUEUE_GROUP", "minivault-workers"),
		Concurrency:       getEnvInt("WORKER_CONCURRENCY", 2),
		HeartbeatInterval: getEnvDuration("HEARTBEAT_INTERVAL", "30s"),
		RateLimitRPS:      getEnvFloat("RATE_LIMIT_RPS", 10),
		RateBurst:         getEnvInt("RATE_BURST", 20),
	}, nil
}

func loadDotEnv(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key, defaultVal string) time.Duration {
	val := getEnv(key, defaultVal)
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	d, _ := time.ParseDuration(defaultVal)
	return d
}
