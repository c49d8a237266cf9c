package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/filevault/internal/flagx"
	"github.com/dmitrijs2005/filevault/internal/timex"
)

// JsonConfig mirrors Config for JSON unmarshalling. It uses timex.Duration
// for interval fields, which accepts both strings such as "24h" and integer
// nanoseconds. After unmarshalling, its fields are copied into the runtime
// Config.
type JsonConfig struct {
	Addr          string         `json:"addr"`
	DatabaseDSN   string         `json:"database_dsn"`
	RedisAddr     string         `json:"redis_addr"`
	RedisPassword string         `json:"redis_password"`
	FolderPath    string         `json:"folder_path"`
	SessionTTL    timex.Duration `json:"session_ttl"`
}

// parseJson overlays values from the JSON file named by the -c/-config
// flags, if any. An unreadable or invalid file panics: a config file that
// was explicitly requested must not be silently ignored.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.Addr != "" {
		config.Addr = c.Addr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.RedisAddr != "" {
		config.RedisAddr = c.RedisAddr
	}
	if c.RedisPassword != "" {
		config.RedisPassword = c.RedisPassword
	}
	if c.FolderPath != "" {
		config.FolderPath = c.FolderPath
	}
	if c.SessionTTL.Duration != 0 {
		config.SessionTTL = time.Duration(c.SessionTTL.Duration)
	}
}
