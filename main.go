package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"onebox/accounts"
	"onebox/classify"
	"onebox/config"
	"onebox/events"
	"onebox/handlers/api"
	"onebox/imap"
	"onebox/middleware"
	"onebox/models"
	"onebox/notify"
	"onebox/smtp"
	"onebox/store"
	"onebox/utils"
)

func main() {
	cfg, err := config.LoadConfig("config.toml")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	log := cfg.SetupLogger()
	log.Info().Int("port", cfg.Server.Port).Msg("starting onebox")

	// Storage: bbolt when a path is configured, in-memory otherwise.
	var st store.Store
	if cfg.Storage.Path != "" {
		bolt, err := store.NewBolt(cfg.Storage.Path, log)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Storage.Path).Msg("failed to open database")
		}
		st = bolt
		log.Info().Str("path", cfg.Storage.Path).Msg("using bbolt storage")
	} else {
		st = store.NewMemory()
		log.Info().Msg("using in-memory storage")
	}
	defer st.Close()

	bus := events.NewBus(log)

	classifier := classify.NewService(cfg.AI.APIKey, cfg.AI.Model,
		time.Duration(cfg.AI.Timeout)*time.Second, cfg.AI.RequestsPerMinute, log)
	suggester := classify.NewReplyService(cfg.AI.APIKey, cfg.AI.Model,
		time.Duration(cfg.AI.Timeout)*time.Second, log)

	var sinks []notify.Sink
	if cfg.Notify.SlackWebhookURL != "" {
		sinks = append(sinks, notify.NewSlackSink(cfg.Notify.SlackWebhookURL, log))
	}
	if cfg.Notify.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookSink(cfg.Notify.WebhookURL, log))
	}

	connectTimeout := time.Duration(cfg.Sync.ConnectTimeout) * time.Second
	newMailbox := func(acctCfg models.AccountConfig) accounts.Mailbox {
		return imap.NewConnection(acctCfg, connectTimeout, cfg.Sync.LiveWindowDays, log)
	}
	newSender := func(acctCfg models.AccountConfig) accounts.Sender {
		return smtp.NewClient(acctCfg, log)
	}

	registry := accounts.NewRegistry(st, classifier, bus, sinks,
		newMailbox, newSender, cfg.Sync.WindowDays, log)
	defer registry.Shutdown()

	handler := api.New(registry, st, suggester, bus, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var appErr *utils.AppError
			var fiberErr *fiber.Error
			if errors.As(err, &appErr) {
				code = appErr.Code
			} else if errors.As(err, &fiberErr) {
				code = fiberErr.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(middleware.RateLimiter(100, time.Minute))

	apiRoutes := app.Group("/api")
	{
		apiRoutes.Post("/accounts", handler.HandleAddAccount)
		apiRoutes.Get("/accounts", handler.HandleListAccounts)
		apiRoutes.Delete("/accounts/:email", handler.HandleRemoveAccount)
		apiRoutes.Post("/accounts/:email/reply", handler.HandleSendReply)

		apiRoutes.Get("/emails", handler.HandleSearchEmails)
		apiRoutes.Get("/emails/stats", handler.HandleStats)
		apiRoutes.Get("/emails/:id", handler.HandleGetEmail)
		apiRoutes.Put("/emails/:id/category", handler.HandleUpdateCategory)

		apiRoutes.Post("/ai/suggest-replies", handler.HandleSuggestReplies)
	}

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(handler.HandleWebSocket))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutting down")
		registry.Shutdown()
		_ = app.Shutdown()
	}()

	if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
