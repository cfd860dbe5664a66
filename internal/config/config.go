package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Env          string
	Port         string // liveness HTTP
	BotToken     string
	AdminChatIDs []int64
	StateBackend string // file | postgres
	StateFile    string
	DBURL        string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:          env("APP_ENV", "dev"),
		Port:         env("HEALTH_PORT", "8000"),
		BotToken:     os.Getenv("BOT_TOKEN"),
		StateBackend: env("STATE_BACKEND", "file"),
		StateFile:    env("STATE_FILE", "ticket_data.json"),
		DBURL:        os.Getenv("DB_DSN"),
	}

	ids, err := ParseAdminIDs(os.Getenv("ADMIN_CHAT_ID"))
	if err != nil {
		return Config{}, err
	}
	cfg.AdminChatIDs = ids

	if cfg.BotToken == "" {
		return Config{}, fmt.Errorf("BOT_TOKEN missing, put it in .env")
	}
	if cfg.StateBackend == "postgres" && cfg.DBURL == "" {
		return Config{}, fmt.Errorf("STATE_BACKEND=postgres requires DB_DSN")
	}
	return cfg, nil
}

// ParseAdminIDs parses the comma-separated ADMIN_CHAT_ID value. An empty
// value is valid and means no admins are configured.
func ParseAdminIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_CHAT_ID entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
