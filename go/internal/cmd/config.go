package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds server settings loadable from a YAML file. Environment
// variables override the file where both are set.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Nats struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`
	Realtime struct {
		Channel string `yaml:"channel"`
	} `yaml:"realtime"`
}

func defaultConfig() *Config {
	var config Config
	config.Server.Port = "8080"
	config.Nats.URL = "nats://localhost:4222"
	config.Realtime.Channel = "game_changes"
	return &config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := defaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}
