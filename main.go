package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"webpress/internal/adapters/converter"
	"webpress/internal/adapters/file"
	"webpress/internal/adapters/handler"
	"webpress/internal/adapters/sender"
	"webpress/internal/adapters/upscaler"
	"webpress/internal/config"
	"webpress/internal/core/domain"
	"webpress/internal/core/domain/commands"
	"webpress/internal/core/port"
	"webpress/internal/core/service"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Info().Msg("starting webpress...")

	log.Info().Msg("reading config file...")
	c, err := config.Load(".")
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}

	configureLogging(c.App)

	if c.Sentry.DSN != "" {
		err = sentry.Init(sentry.ClientOptions{
			Dsn:         c.Sentry.DSN,
			Environment: c.Sentry.Environment,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed initializing sentry")
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	httpClient := &http.Client{Timeout: c.Replicate.Timeout}
	downloader := file.NewDownloader(httpClient, c.Upload.MaxDownloadBytes())

	replicate := upscaler.NewReplicate(c.Replicate.BaseURL, c.Replicate.ModelVersion, c.Replicate.APIKey,
		c.Replicate.PollInterval, httpClient)

	conversionService := service.NewConverter(
		converter.NewWebPConverter(c.Resize.AllowEnlargement, c.Upload.MaxPixels),
		replicate,
		downloader,
		domain.Quality{
			Original: c.Quality.Original,
			Resized:  c.Quality.Resized,
			Upscaled: c.Quality.Upscaled,
		})

	var commandHandler *handler.Command
	if c.Telegram.Enabled() {
		commandHandler, err = startBot(ctx, c.Telegram, conversionService, downloader)
		if err != nil {
			log.Fatal().Err(err).Msg("failed initializing telegram bot")
		}
	}

	gin.SetMode(c.Server.Mode)

	httpHandler := handler.NewHTTP(service.NewFormValidator(c.Auth.MagicKey), conversionService,
		c.Upload.MaxRequestBodyBytes())
	srv := handler.NewServer(c.Server.Addr, handler.NewRouter(httpHandler, c.Server.AllowedOrigin),
		c.Server.ReadTimeout, c.Server.WriteTimeout, c.Server.IdleTimeout)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", c.Server.Addr).Msg("http server listening")
		errCh <- srv.Run()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down...")
	case err = <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), c.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down http server gracefully")
	}

	if commandHandler != nil {
		cancel()
		commandHandler.Wait()
	}

	log.Info().Msg("stopped")
}

func configureLogging(app config.AppConfig) {
	if app.PrettyLog {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	var logLevel zerolog.Level

	switch app.LogLevel {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)
	zerolog.DefaultContextLogger = &log.Logger
}

func startBot(ctx context.Context, tc config.TelegramConfig, conversionService port.ConversionService,
	downloader port.Downloader, opts ...bot.Option) (*handler.Command, error) {
	b, err := bot.New(tc.BotToken, append([]bot.Option{bot.WithDefaultHandler(noOpHandler)}, opts...)...)
	if err != nil {
		return nil, err
	}

	s := sender.NewTelegram(b)

	commandRegistry := &domain.CommandRegistry{}
	commandRegistry.Register(commands.NewConvertHandler(conversionService, downloader, s, s, "/convert"))

	authorizer := service.NewChatAuthorizer(tc.AllowedChatIDs, tc.AdminUsername, s)
	commandHandler := handler.NewCommand(commandRegistry, authorizer, b, tc.HandlerTimeout)

	b.RegisterHandler(bot.HandlerTypeMessageText, "/", bot.MatchTypePrefix, commandHandler.Handle)
	b.RegisterHandler(bot.HandlerTypePhotoCaption, "/", bot.MatchTypePrefix, commandHandler.Handle)

	log.Info().Strs("commands", commandRegistry.ListCommands()).Msg("bot listening")
	go b.Start(ctx)

	return commandHandler, nil
}

func noOpHandler(_ context.Context, _ *bot.Bot, _ *models.Update) {}
