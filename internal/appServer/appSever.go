package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rahul3002/Time-Travel-Booking/config"
	repository "github.com/rahul3002/Time-Travel-Booking/internal/database/postgres"
	"github.com/rahul3002/Time-Travel-Booking/internal/service"
	"github.com/rahul3002/Time-Travel-Booking/internal/transport"
	"github.com/rahul3002/Time-Travel-Booking/internal/worker"

	"github.com/rahul3002/Time-Travel-Booking/pkg/postgres"
	"github.com/rahul3002/Time-Travel-Booking/pkg/queue"
	"github.com/rahul3002/Time-Travel-Booking/pkg/redis"
	"github.com/rahul3002/Time-Travel-Booking/pkg/scheduler"
	"github.com/rahul3002/Time-Travel-Booking/pkg/telegram"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize database
	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	if err := postgres.RunMigrations(db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repository
	capsuleRepo := repository.NewCapsuleRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Telegram bot
	var telegramBot *telegram.Bot
	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" {
		telegramBot = telegram.NewBot(cfg.Telegram.BotToken)
		logrus.Info("Telegram bot initialized")
	} else {
		logrus.Warn("Telegram bot not configured, delivery announcements will be logged only")
	}

	// Initialize delivery queue and worker when Redis is available
	var deliveryPublisher service.DeliveryPublisher
	var deliveryQueue *queue.RedisQueue
	if cfg.Redis.Enabled {
		redisClient := redis.NewRedisClient(&cfg.Redis)

		q, err := queue.NewRedisQueue(redisClient, &queue.RedisQueueConfig{
			MainQueue: cfg.Queue.MainQueue,
			DLQ:       cfg.Queue.DLQ,
		})
		if err != nil {
			logrus.Errorf("Failed to initialize delivery queue: %v. Continuing without queue...", err)
		} else {
			logrus.Info("Delivery queue initialized")
			deliveryQueue = q
			deliveryPublisher = service.NewQueueAdapter(deliveryQueue)

			deliveryWorker := worker.NewDeliveryWorker(deliveryQueue, telegramBot, cfg.Telegram.ChatID)
			if err := deliveryWorker.Start(ctx); err != nil {
				logrus.Errorf("Failed to start delivery worker: %v", err)
			}
		}
	}

	// Initialize services
	capsuleService := service.NewCapsuleService(capsuleRepo, deliveryPublisher)

	// Initialize and start the daily batch scheduler
	batchScheduler := scheduler.NewScheduler(capsuleService, cfg.Scheduler.Interval)
	go batchScheduler.Start(ctx)
	logrus.Info("Daily batch scheduler started")

	// Initialize handlers
	capsuleHandler := transport.NewCapsuleHandler(capsuleService, batchScheduler)

	// Setup HTTP server
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(capsuleHandler)); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")
	cancel()

	// The subscriber stops on cancel, so Close can drain and release the client.
	if deliveryQueue != nil {
		if err := deliveryQueue.Close(); err != nil {
			logrus.Errorf("error occured on delivery queue shutting down: %s", err.Error())
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
