package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	Password      string `json:"password"`
	DialTimeoutMs int64  `json:"dial_timeout_ms"`
	BenchClients  int    `json:"bench_clients"`
	BenchRequests int    `json:"bench_requests"`
}

func DefaultConfig() Config {
	return Config{
		Host:          "127.0.0.1",
		Port:          8080,
		DialTimeoutMs: 2000,
		BenchClients:  4,
		BenchRequests: 1000,
	}
}

func LoadConfig(configPath string) (Config, error) {
	config := DefaultConfig()
	file, err := os.Open(configPath)
	if err != nil {
		return config, err
	}
	defer file.Close()
	decoder := json.NewDecoder(file)
	err = decoder.Decode(&config)
	if err != nil {
		return config, err
	}
	return config, nil
}

// ApplyEnv overlays the CACHEW_* environment variables, matching the
// server's precedence of env over config file.
func (c *Config) ApplyEnv() {
	if host := os.Getenv("CACHEW_HOST"); host != "" {
		c.Host = host
	}
	if portString := os.Getenv("CACHEW_PORT"); portString != "" {
		if port, err := strconv.Atoi(portString); err == nil {
			c.Port = port
		}
	}
	if password := os.Getenv("CACHEW_PASSWORD"); password != "" {
		c.Password = password
	}
}

func (c Config) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutMs) * time.Millisecond
}
