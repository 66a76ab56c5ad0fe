package powertimer

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

const (
	AddrEnv          = "POWERTIMER_ADDR"
	DatabaseURLEnv   = "POWERTIMER_DB_URL"
	DatabaseNameEnv  = "POWERTIMER_DB_NAME"
	LogLevelEnv      = "POWERTIMER_LOG_LEVEL"
	CORSOriginsEnv   = "POWERTIMER_CORS_ORIGINS"
	SeedTemplatesEnv = "POWERTIMER_SEED_TEMPLATES"
)

type Config struct {
	Addr          string
	DatabaseURL   string
	DatabaseName  string
	LogLevel      log.Level
	CORSOrigins   []string
	SeedTemplates bool
}

// fileConfig mirrors the TOML file. Nil fields were not set.
type fileConfig struct {
	Server struct {
		Addr          *string  `toml:"addr"`
		LogLevel      *string  `toml:"log_level"`
		CORSOrigins   []string `toml:"cors_origins"`
		SeedTemplates *bool    `toml:"seed_templates"`
	} `toml:"server"`
	Database struct {
		URL  *string `toml:"url"`
		Name *string `toml:"name"`
	} `toml:"database"`
}

func DefaultConfig() Config {
	return Config{
		Addr:         ":8001",
		DatabaseURL:  "powertimer.db",
		DatabaseName: "powertimer",
		LogLevel:     log.InfoLevel,
		CORSOrigins:  []string{"*"},
	}
}

// LoadConfig layers defaults, the optional TOML file at path, the .env file and
// the process environment, in that order.
func LoadConfig(path string, isProd bool) (Config, error) {
	config := DefaultConfig()

	if path != "" {
		if err := applyFile(&config, path); err != nil {
			return Config{}, err
		}
	}

	if isProd {
		_ = godotenv.Load(".env")
	} else {
		_ = godotenv.Load(".env.dev")
	}

	if err := applyEnv(&config); err != nil {
		return Config{}, err
	}

	if config.DatabaseURL == "" {
		return Config{}, fmt.Errorf("required environment variable: %s", DatabaseURLEnv)
	}

	return config, nil
}

func applyFile(config *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat config: %w", err)
	}

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	if fc.Server.Addr != nil {
		config.Addr = *fc.Server.Addr
	}
	if fc.Server.LogLevel != nil {
		lvl, err := log.ParseLevel(*fc.Server.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log_level %q: %w", *fc.Server.LogLevel, err)
		}
		config.LogLevel = lvl
	}
	if len(fc.Server.CORSOrigins) > 0 {
		config.CORSOrigins = fc.Server.CORSOrigins
	}
	if fc.Server.SeedTemplates != nil {
		config.SeedTemplates = *fc.Server.SeedTemplates
	}
	if fc.Database.URL != nil {
		config.DatabaseURL = *fc.Database.URL
	}
	if fc.Database.Name != nil {
		config.DatabaseName = *fc.Database.Name
	}
	return nil
}

func applyEnv(config *Config) error {
	if v := os.Getenv(AddrEnv); v != "" {
		config.Addr = v
	}
	if v := os.Getenv(DatabaseURLEnv); v != "" {
		config.DatabaseURL = v
	}
	if v := os.Getenv(DatabaseNameEnv); v != "" {
		config.DatabaseName = v
	}
	if v := os.Getenv(LogLevelEnv); v != "" {
		lvl, err := log.ParseLevel(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", LogLevelEnv, v, err)
		}
		config.LogLevel = lvl
	}
	if v := os.Getenv(CORSOriginsEnv); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		config.CORSOrigins = origins
	}
	if v := os.Getenv(SeedTemplatesEnv); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", SeedTemplatesEnv, v, err)
		}
		config.SeedTemplates = b
	}
	return nil
}

// IsMongo reports whether DatabaseURL points at a document store rather than a
// SQLite file.
func (c Config) IsMongo() bool {
	return strings.HasPrefix(c.DatabaseURL, "mongodb://") || strings.HasPrefix(c.DatabaseURL, "mongodb+srv://")
}
