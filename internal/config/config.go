package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "BSE_AUTO_CONFIG"
	databasePathEnv   = "DATABASE_PATH"
	geminiAPIKeyEnv   = "GEMINI_API_KEY"
	geminiModelEnv    = "GEMINI_MODEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	summariesChatEnv  = "TELEGRAM_CHAT_ID_SUMMARIES"
	linksChatEnv      = "TELEGRAM_CHAT_ID_LINKS"
	startDateEnv      = "START_DATE"
	endDateEnv        = "END_DATE"
	lookbackHoursEnv  = "LOOKBACK_HOURS"
	maxItemsEnv       = "MAX_ITEMS_TO_PROCESS"
	dryRunEnv         = "DRY_RUN"
	pollIntervalEnv   = "POLL_INTERVAL_SECONDS"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig  `yaml:"logging"`
	Database  DatabaseConfig `yaml:"database"`
	Feed      FeedConfig     `yaml:"feed"`
	Downloads DownloadConfig `yaml:"downloads"`
	Gemini    GeminiConfig   `yaml:"gemini"`
	Telegram  TelegramConfig `yaml:"telegram"`
	Poller    PollerConfig   `yaml:"poller"`
}

// LoggingConfig controls the console log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes the SQLite state-store location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// FeedConfig describes the announcement feed query.
type FeedConfig struct {
	APIURL      string `yaml:"apiUrl"`
	XBRLURL     string `yaml:"xbrlUrl"`
	Category    string `yaml:"category"`
	Subcategory string `yaml:"subcategory"`

	// Explicit window (backfill) takes precedence over the rolling
	// lookback when both dates are set. Dates use yyyy-mm-dd.
	StartDate     string `yaml:"startDate"`
	EndDate       string `yaml:"endDate"`
	LookbackHours int    `yaml:"lookbackHours"`

	// MaxNewItems caps how many not-yet-seen announcements one run may
	// process; zero means unlimited.
	MaxNewItems int `yaml:"maxNewItems"`
}

// Backfill reports whether an explicit date window is configured.
func (f FeedConfig) Backfill() bool {
	return f.StartDate != "" && f.EndDate != ""
}

// DownloadConfig controls where artifacts land on disk.
type DownloadConfig struct {
	Dir        string `yaml:"dir"`
	MediaCache string `yaml:"mediaCache"`
	URLLogPath string `yaml:"urlLogPath"`
	// DryRun logs would-be download URLs instead of fetching documents.
	DryRun bool `yaml:"dryRun"`
}

// GeminiConfig defines how to contact the summarization backend.
type GeminiConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseUrl"`
}

// TelegramConfig wires the two notification channels.
type TelegramConfig struct {
	BotToken        string `yaml:"botToken"`
	SummariesChatID string `yaml:"summariesChatId"`
	LinksChatID     string `yaml:"linksChatId"`
}

// PollerConfig defines the long-running polling cadence.
type PollerConfig struct {
	Interval time.Duration `yaml:"interval"`
	// Cooldown is waited after a run that failed unexpectedly.
	Cooldown time.Duration `yaml:"cooldown"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(summariesChatEnv); v != "" {
		c.Telegram.SummariesChatID = v
	}
	if v := os.Getenv(linksChatEnv); v != "" {
		c.Telegram.LinksChatID = v
	}
	if v := os.Getenv(startDateEnv); v != "" {
		c.Feed.StartDate = v
	}
	if v := os.Getenv(endDateEnv); v != "" {
		c.Feed.EndDate = v
	}
	if v := os.Getenv(lookbackHoursEnv); v != "" {
		if hours, err := strconv.Atoi(v); err == nil {
			c.Feed.LookbackHours = hours
		}
	}
	if v := os.Getenv(maxItemsEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Feed.MaxNewItems = n
		}
	}
	if v := os.Getenv(dryRunEnv); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Downloads.DryRun = b
		}
	}
	if v := os.Getenv(pollIntervalEnv); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Poller.Interval = time.Duration(secs) * time.Second
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Feed.APIURL != "" {
		base.Feed.APIURL = override.Feed.APIURL
	}
	if override.Feed.XBRLURL != "" {
		base.Feed.XBRLURL = override.Feed.XBRLURL
	}
	if override.Feed.Category != "" {
		base.Feed.Category = override.Feed.Category
	}
	if override.Feed.Subcategory != "" {
		base.Feed.Subcategory = override.Feed.Subcategory
	}
	if override.Feed.StartDate != "" {
		base.Feed.StartDate = override.Feed.StartDate
	}
	if override.Feed.EndDate != "" {
		base.Feed.EndDate = override.Feed.EndDate
	}
	if override.Feed.LookbackHours > 0 {
		base.Feed.LookbackHours = override.Feed.LookbackHours
	}
	if override.Feed.MaxNewItems > 0 {
		base.Feed.MaxNewItems = override.Feed.MaxNewItems
	}

	if override.Downloads.Dir != "" {
		base.Downloads.Dir = override.Downloads.Dir
	}
	if override.Downloads.MediaCache != "" {
		base.Downloads.MediaCache = override.Downloads.MediaCache
	}
	if override.Downloads.URLLogPath != "" {
		base.Downloads.URLLogPath = override.Downloads.URLLogPath
	}
	if override.Downloads.DryRun {
		base.Downloads.DryRun = true
	}

	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.BaseURL != "" {
		base.Gemini.BaseURL = override.Gemini.BaseURL
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.SummariesChatID != "" {
		base.Telegram.SummariesChatID = override.Telegram.SummariesChatID
	}
	if override.Telegram.LinksChatID != "" {
		base.Telegram.LinksChatID = override.Telegram.LinksChatID
	}

	if override.Poller.Interval > 0 {
		base.Poller.Interval = override.Poller.Interval
	}
	if override.Poller.Cooldown > 0 {
		base.Poller.Cooldown = override.Poller.Cooldown
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{Path: "announcements.db"},
		Feed: FeedConfig{
			APIURL:        "https://api.bseindia.com/BseIndiaAPI/api/AnnSubCategoryGetData/w",
			XBRLURL:       "https://www.bseindia.com/Msource/90D/CorpXbrlGen.aspx",
			Category:      "Company Update",
			Subcategory:   "Earnings Call Transcript",
			LookbackHours: 24,
		},
		Downloads: DownloadConfig{
			Dir:        "downloads",
			MediaCache: "media_cache",
			URLLogPath: "logs/pdf_urls.log",
		},
		Gemini: GeminiConfig{
			Model:   "gemini-flash-lite-latest",
			BaseURL: "https://generativelanguage.googleapis.com",
		},
		Poller: PollerConfig{
			Interval: 60 * time.Second,
			Cooldown: 60 * time.Second,
		},
	}
}
