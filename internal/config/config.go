package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type BotConfig struct {
	TelegramToken string
	BotDebug      bool
	BotPassword   string
	ManagerChatID int64

	DatabaseURL string
	HTTPAddr    string
	APIToken    string
	LogLevel    logrus.Level

	// APIAllowOpen permits a tokenless API on a non-loopback address.
	APIAllowOpen bool

	DefaultVacationBalance  int
	DefaultEmergencyBalance int

	// CancelledBlocksConflicts keeps cancelled requests in the overlap check.
	CancelledBlocksConflicts bool
	ResetCheckInterval       time.Duration
}

var instance *BotConfig
var once sync.Once

func GetBotConfig() *BotConfig {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			logrus.Warnf("no .env file loaded: %s", err.Error())
		}

		instance = loadFromEnv()

		if instance.DatabaseURL == "" {
			logrus.Fatal("could not get db url")
		}
		if instance.TelegramToken != "" && instance.BotPassword == "" {
			logrus.Fatal("BOT_PASSWORD is required when the telegram bot is enabled")
		}
		if instance.APIExposed() {
			logrus.Fatalf("API_TOKEN is required to listen on %s, set API_ALLOW_OPEN=true to run without one", instance.HTTPAddr)
		}
	})

	return instance
}

func loadFromEnv() *BotConfig {
	cfg := &BotConfig{}

	cfg.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	cfg.BotDebug = getEnvAsBool("BOT_DEBUG", false)
	cfg.BotPassword = getEnv("BOT_PASSWORD", "")
	cfg.ManagerChatID = getEnvAsInt("MANAGER_CHAT_ID", 0)

	cfg.DatabaseURL = getEnv("DATABASE_URL", "employees.db")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", "127.0.0.1:8080")
	cfg.APIToken = getEnv("API_TOKEN", "")
	cfg.APIAllowOpen = getEnvAsBool("API_ALLOW_OPEN", false)

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	cfg.LogLevel = level

	cfg.DefaultVacationBalance = int(getEnvAsInt("DEFAULT_VACATION_BALANCE", 30))
	cfg.DefaultEmergencyBalance = int(getEnvAsInt("DEFAULT_EMERGENCY_BALANCE", 12))

	cfg.CancelledBlocksConflicts = getEnvAsBool("CANCELLED_BLOCKS_CONFLICTS", true)
	cfg.ResetCheckInterval = getEnvAsDuration("RESET_CHECK_INTERVAL", time.Hour)

	return cfg
}

// BotEnabled reports whether a telegram token was configured.
func (c *BotConfig) BotEnabled() bool {
	return c.TelegramToken != ""
}

// APIExposed is true when the API would accept unauthenticated requests
// from other hosts without the operator opting in.
func (c *BotConfig) APIExposed() bool {
	return c.APIToken == "" && !c.APIAllowOpen && !isLoopback(c.HTTPAddr)
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(name, "")
	if val, err := time.ParseDuration(valStr); err == nil && val > 0 {
		return val
	}

	return defaultVal
}
