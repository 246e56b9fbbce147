package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"medassist/api/internal/app"
	"medassist/api/internal/config"
	"medassist/api/internal/handle"
	"medassist/api/internal/httpserver"
	"medassist/api/internal/logging"
	"medassist/api/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(logging.Options{}).Fatal("load config", "err", err)
	}
	logger := logging.New(logging.Options{Debug: cfg.DebugEnabled(), JSON: cfg.JSONLogs(), Prefix: "bot"})

	// the bot listens on all interfaces regardless of HOST
	addr := "0.0.0.0:" + cfg.Port

	if cfg.TelegramBotToken == "" {
		logger.Fatal("TELEGRAM_BOT_TOKEN is empty")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal("telegram login", "err", err)
	}
	bot.Debug = false
	logger.Info("authorized", "username", bot.Self.UserName)

	a := app.New(cfg, logger, nil)
	defer a.Close()

	r := telegram.NewRouter(bot, telegram.Services{
		Extractor:   a.Extractor,
		Transcriber: a.Transcriber,
		Chatbot:     a.Chatbot,
		Summarizer:  a.Summarizer,
	}, cfg.RequestTimeout(), logger)

	h := handle.New(handle.Deps{
		Extractor:   a.Extractor,
		Transcriber: a.Transcriber,
		Chatbot:     a.Chatbot,
		Summarizer:  a.Summarizer,
		Workflow:    a.Workflow,
	}, cfg.RequestTimeout(), logger)
	gin.SetMode(gin.ReleaseMode)
	srv := httpserver.New(addr, h, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		if err := startWebhookMode(ctx, srv, bot, r, webhookURL, logger); err != nil {
			logger.Fatal("webhook mode", "err", err)
		}
		return
	}
	startPollingMode(ctx, srv, bot, r, logger)
}

func startWebhookMode(ctx context.Context, srv *httpserver.Server, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string, logger *logging.Logger) error {
	// secret webhook path derived from the token
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return err
	}

	srv.Engine().POST(path, func(c *gin.Context) {
		upd, err := bot.HandleUpdate(c.Request)
		if err != nil {
			logger.Warn("bad webhook update", "err", err)
			c.Status(http.StatusBadRequest)
			return
		}
		go r.HandleUpdate(*upd)
		c.Status(http.StatusOK)
	})

	logger.Info("webhook registered", "addr", srv.Addr(), "path", path)
	return srv.Run(ctx)
}

func startPollingMode(ctx context.Context, srv *httpserver.Server, bot *tgbotapi.BotAPI, r *telegram.Router, logger *logging.Logger) {
	// the API and /healthz stay available while polling
	go func() {
		if err := srv.Run(ctx); err != nil {
			logger.Error("http server", "err", err)
		}
	}()

	// Telegram refuses getUpdates while a webhook is set.
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		logger.Warn("delete webhook", "err", err)
	}
	runPolling(ctx, bot, r.HandleUpdate, logger)
}
