package config

import "os"

// parseEnv overlays values from environment variables.
func parseEnv(config *Config) {
	if v := os.Getenv("ADDR"); v != "" {
		config.Addr = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		config.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		config.RedisPassword = v
	}
	if v := os.Getenv("FOLDER_PATH"); v != "" {
		config.FolderPath = v
	}
}
