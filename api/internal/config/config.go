package config

import (
	"errors"
	"io/fs"
	"net"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	Host string `env:"HOST,default=127.0.0.1"`
	Port string `env:"PORT,default=5002"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL,default=gemini-1.5-flash"`

	GoogleAPIKey   string `env:"GOOGLE_API_KEY"`
	SearchEngineID string `env:"PROGRAMMABLE_SEARCH_ENGINE_ID"`
	NumSearch      int    `env:"NUM_SEARCH,default=5"`

	OCRSpaceAPIKey string `env:"OCR_SPACE_API_KEY"`
	OCRSpaceURL    string `env:"OCR_SPACE_URL,default=https://api.ocr.space/parse/image"`
	TesseractLang  string `env:"TESSERACT_LANG,default=eng"`

	FFmpegBin string `env:"FFMPEG_BIN,default=ffmpeg"`
	PromptDir string `env:"PROMPT_DIR"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	WebhookURL       string `env:"WEBHOOK_URL"`

	RequestTimeoutSec int    `env:"REQUEST_TIMEOUT,default=180"`
	Debug             string `env:"DEBUG,default=0"`
	LogFormat         string `env:"LOG_FORMAT,default=text"`
}

// Load reads .env files (when present) and then the process environment.
// Variables already set in the environment win over .env values.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Host = strings.TrimSpace(c.Host)
	c.Port = strings.TrimSpace(c.Port)
	if c.Port == "" {
		c.Port = "5002"
	}
	c.GeminiAPIKey = strings.TrimSpace(c.GeminiAPIKey)
	c.GeminiModel = strings.TrimSpace(c.GeminiModel)
	c.OCRSpaceAPIKey = strings.TrimSpace(c.OCRSpaceAPIKey)
	if c.NumSearch <= 0 {
		c.NumSearch = 5
	}
	if c.RequestTimeoutSec <= 0 {
		c.RequestTimeoutSec = 180
	}
}

func (c *Config) Addr() string { return net.JoinHostPort(c.Host, c.Port) }

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

func (c *Config) DebugEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(c.Debug))
	return v == "1" || v == "true"
}

func (c *Config) JSONLogs() bool {
	return strings.EqualFold(strings.TrimSpace(c.LogFormat), "json")
}
