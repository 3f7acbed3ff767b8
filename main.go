package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/lmittmann/tint"

	"research-bot/agent"
	"research-bot/config"
	"research-bot/metrics"
	"research-bot/tools"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to optional retry tuning file")
	isDebug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	slogLevel := slog.LevelInfo
	if *isDebug {
		slogLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.TelegramToken == "" {
		slog.Error("TELEGRAM_BOT_TOKEN environment variable is required")
		os.Exit(1)
	}
	if cfg.GroqAPIKey == "" {
		slog.Error("GROQ_API_KEY environment variable is required")
		os.Exit(1)
	}

	// Set up context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Shutting down...")
		cancel()
	}()

	// Set up tool registry
	registry := tools.NewRegistry()
	registry.Register(tools.NewWikipediaTool())
	registry.Register(tools.NewArxivTool())
	registry.Register(tools.NewDuckDuckGoTool(cfg.Retry))
	if cfg.GoogleAPIKey != "" && cfg.GoogleCSEID != "" {
		registry.Register(tools.NewGoogleSearchTool(cfg.GoogleAPIKey, cfg.GoogleCSEID))
		slog.Info("Google search enabled")
	}
	registry.Register(tools.NewReadPageTool(cfg.GroqURL, cfg.GroqModel, cfg.GroqAPIKey))

	// Create agent
	researchAgent := agent.New(cfg.GroqModel, cfg.GroqURL, cfg.GroqAPIKey, registry)

	// Optional metrics endpoint
	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr)
		go func() {
			slog.Info("Metrics server listening", "addr", cfg.MetricsAddr)
			if err := srv.Start(); err != nil {
				slog.Warn("Metrics server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Stop(shutdownCtx)
		}()
	}

	// Create Telegram bot
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		slog.Error("Failed to create bot", "error", err)
		os.Exit(1)
	}

	slog.Info("Authorized", "account", bot.Self.UserName)
	slog.Info("Registered tools", "count", len(registry.All()))
	slog.Info("Retry policy",
		"max_attempts", cfg.Retry.MaxAttempts,
		"base_wait", cfg.Retry.BaseWait,
		"multiplier", cfg.Retry.Multiplier)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Bot stopped")
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}

			go handleMessage(ctx, bot, researchAgent, cfg, update.Message)
		}
	}
}

func handleMessage(
	ctx context.Context,
	bot *tgbotapi.BotAPI,
	researchAgent *agent.Agent,
	cfg *config.Config,
	message *tgbotapi.Message,
) {
	slog.Info("Message received", "from", message.From.UserName, "text", message.Text)

	var reply string

	switch message.Command() {
	case "start":
		reply = "🔎 Hello! I'm a research assistant powered by " + cfg.GroqModel + ".\n\n" +
			"I can search:\n• Wikipedia for factual summaries\n• arXiv for research papers\n• The web via DuckDuckGo\n\n" +
			"Just ask me a question, e.g. \"Recent advancements in Generative AI\"."

	case "help":
		reply = "Available commands:\n" +
			"/start - Start the bot\n" +
			"/help - Show this help message\n\n" +
			"Or just ask me things like:\n" +
			"• \"What is quantum entanglement?\"\n" +
			"• \"Find recent papers on diffusion models\"\n" +
			"• \"What's in the news about fusion energy?\""

	case "":
		// Not a command, send to agent
		response, err := researchAgent.Chat(ctx, message.Text)
		if err != nil {
			slog.Error("Agent error", "error", err)
			metrics.ChatTurnsTotal.WithLabelValues("error").Inc()
			reply = "Sorry, I couldn't process that. Please try again in a moment."
		} else {
			metrics.ChatTurnsTotal.WithLabelValues("ok").Inc()
			reply = response
		}

	default:
		reply = "Unknown command. Try /help"
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, reply)
	msg.ReplyToMessageID = message.MessageID

	if _, err := bot.Send(msg); err != nil {
		slog.Error("Error sending message", "error", err)
	}
}
