package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/ticket-bot/internal/chat"
	"github.com/iliyamo/ticket-bot/internal/config"
	"github.com/iliyamo/ticket-bot/internal/database"
	"github.com/iliyamo/ticket-bot/internal/handler"
	"github.com/iliyamo/ticket-bot/internal/queue"
	"github.com/iliyamo/ticket-bot/internal/repository"
	"github.com/iliyamo/ticket-bot/internal/router"
	"github.com/iliyamo/ticket-bot/internal/service"
	"github.com/iliyamo/ticket-bot/internal/session"
	"github.com/iliyamo/ticket-bot/internal/worker"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleShutdown(cancel)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("database schema: %v", err)
	}

	rdb := config.NewRedisClient()
	var sessions session.Store
	if rdb != nil {
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb, cfg.SessionTTL)
	} else {
		log.Printf("sessions: redis unavailable, keeping sessions in memory")
		sessions = session.NewMemoryStore(cfg.SessionTTL)
	}

	tg, err := chat.NewTelegram(cfg.BotToken)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}
	if err := tg.RegisterCommands(handler.ParticipantCommands, handler.OperatorCommands, cfg.OperatorIDs); err != nil {
		log.Printf("telegram: register commands: %v", err)
	}

	reservations := repository.NewReservationRepo(db)
	feedback := repository.NewFeedbackRepo(db)
	schedule := repository.NewScheduleRepo(db)
	participants := repository.NewParticipantRepo(db)

	notifier := service.NewNotifier(tg, service.NotifierConfig{
		MaxAttempts: cfg.NotifyMaxAttempts,
		MaxBackoff:  cfg.NotifyMaxBackoff,
	})
	broadcaster := service.NewBroadcaster(participants, notifier, cfg.BroadcastDelay)

	var publisher service.BroadcastPublisher
	if cfg.RabbitURL != "" {
		publisher = queue.NewPublisher(cfg.RabbitURL)
	}
	jobs := service.NewBroadcastJobs(ctx, publisher, broadcaster)
	if cfg.RabbitURL != "" {
		consumer := queue.NewConsumer(cfg.RabbitURL, jobs.HandleRequested)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("broadcast-consumer: stopped: %v", err)
			}
		}()
	}

	bot := handler.NewBot(handler.BotDeps{
		Messenger:    tg,
		Sessions:     sessions,
		Catalog:      service.NewCatalog(schedule),
		Reservations: reservations,
		Feedback:     feedback,
		Registry:     participants,
		Review:       service.NewReviewQueue(reservations, notifier),
		Notifier:     notifier,
		Broadcasts:   jobs,
		OperatorIDs:  cfg.OperatorIDs,
		Event:        cfg.Event,
		OpsJWTSecret: cfg.OpsJWTSecret,
		OpsTokenTTL:  cfg.OpsTokenTTLMin,
	})
	pool := worker.New(ctx, cfg.WorkerConcurrency)
	dispatcher := handler.NewDispatcher(bot, pool)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	router.RegisterRoutes(e)
	if cfg.OpsEnabled() {
		ops := handler.NewOpsHandler(reservations, participants, jobs)
		router.RegisterOps(e, ops, cfg.OpsJWTSecret, bot.IsOperator, cfg.RateLimit, rdb)
	}

	switch cfg.BotMode {
	case config.ModeWebhook:
		router.RegisterWebhook(e, handler.NewWebhookHandler(cfg.WebhookSecret, dispatcher.Dispatch))
		if err := tg.SetWebhook(cfg.WebhookURL + "/telegram/" + cfg.WebhookSecret); err != nil {
			log.Fatalf("telegram: set webhook: %v", err)
		}
	default:
		go dispatcher.Poll(ctx, tg.Poll(ctx))
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, mode=%s)", addr, cfg.Env, cfg.BotMode)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if err := pool.Shutdown(shutdownCtx); err != nil {
		log.Printf("worker pool: drain: %v", err)
	}
	bot.Wait()
	jobs.Wait()
	log.Println("bye")
}

// handleShutdown cancels the root context on SIGINT or SIGTERM.
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
