package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/config"
	"github.com/Digitallaureate/kabirFirstBackend/controllers"
	"github.com/Digitallaureate/kabirFirstBackend/controllers/admins"
	"github.com/Digitallaureate/kabirFirstBackend/database"
	"github.com/Digitallaureate/kabirFirstBackend/events"
	"github.com/Digitallaureate/kabirFirstBackend/middleware"
	"github.com/Digitallaureate/kabirFirstBackend/models"
	"github.com/Digitallaureate/kabirFirstBackend/repository"
	"github.com/Digitallaureate/kabirFirstBackend/routes"
	"github.com/Digitallaureate/kabirFirstBackend/services"
	"github.com/Digitallaureate/kabirFirstBackend/utils"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env if present (do not overwrite already-set environment variables).
	if envMap, err := godotenv.Read(); err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		// logger is not up yet
		_, _ = os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}
	log, err := utils.InitLogger(cfg.Env)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Document store
	mongoClient, mongoDB, err := database.ConnectMongo(ctx, log, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal("failed to connect mongo", zap.Error(err))
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	if err := database.EnsureMongoIndexes(ctx, mongoDB); err != nil {
		log.Warn("ensuring mongo indexes failed", zap.Error(err))
	}

	// Admin accounts
	db, err := database.Connect(cfg.MySQL, cfg.IsDevelopment(), log)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	if cfg.IsDevelopment() {
		log.Info("running in development mode, performing auto-migration")
		if err := database.RunMigrations(db, &models.Admin{}, &models.RevokedToken{}); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
	}
	if created, err := models.EnsureBootstrapAdmin(db, cfg.AdminBootstrapUsername, cfg.AdminBootstrapPassword); err != nil {
		log.Error("bootstrap admin failed", zap.Error(err))
	} else if created {
		log.Info("bootstrap admin created", zap.String("username", cfg.AdminBootstrapUsername))
	}

	// Optional Redis for revocation, lockout and the resume token
	utils.RedisClient = database.ConnectRedis(ctx, log, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	store := repository.NewMongoStore(mongoDB)
	catalog := services.NewCatalog(store, cfg.MagicWordCacheTTL)
	notifier := services.NewNotifier(store, log)
	pipeline := services.NewPipeline(store, catalog,
		services.NewSuggestionClient(cfg.Downstream.SuggestionURL, cfg.Downstream.Timeout),
		services.NewIntentClient(cfg.Downstream.ProcessTextURL, cfg.Downstream.Timeout),
		log,
	)

	var uploader admins.ImageUploader
	if storage, err := utils.NewObjectStorage(ctx, cfg.R2); err == nil {
		uploader = storage
	} else if errors.Is(err, utils.ErrStorageNotConfigured) {
		log.Info("object storage not configured, image uploads disabled")
	} else {
		log.Error("object storage init failed", zap.Error(err))
	}

	adminHandler := admins.NewHandler(admins.Deps{
		Desk:           services.NewSupportDesk(store, log),
		Workflow:       services.NewStatusWorkflow(store, notifier, catalog, log),
		Notifier:       notifier,
		Catalog:        catalog,
		Uploader:       uploader,
		Log:            log,
		UploadMaxBytes: cfg.UploadMaxBytes,
	})

	router := routes.InitRouter(routes.Deps{
		Admin:        adminHandler,
		Events:       controllers.NewEventsController(pipeline, log),
		EventsSecret: cfg.Events.Secret,
	})

	// Logging -> Security headers -> Request ID -> Max Body -> Timeout -> Recovery -> Suspicious Activity
	handler := middleware.RequestLogMiddleware(
		middleware.SecurityHeadersMiddleware(
			middleware.RequestIDMiddleware(
				middleware.MaxBodyMiddleware(
					middleware.TimeoutMiddleware(
						middleware.RecoveryMiddleware(
							middleware.SuspiciousActivityMiddleware(router),
						),
					),
				),
			),
		),
	)

	var wg sync.WaitGroup
	if cfg.Events.Watch {
		var checkpoint events.Checkpoint
		if utils.RedisClient != nil {
			checkpoint = events.NewRedisCheckpoint(utils.RedisClient, events.DefaultCheckpointKey)
		} else {
			log.Warn("redis unavailable, message watcher resumes from the stream head after restarts")
		}
		watcher := events.NewWatcher(
			events.MongoMessageStream(mongoDB.Collection(models.CollectionMessages)),
			pipeline, checkpoint, log,
			events.Options{Workers: cfg.Events.Workers, MaxAttempts: cfg.Events.MaxAttempts},
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = watcher.Run(ctx)
		}()
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	wg.Wait()

	if utils.RedisClient != nil {
		_ = utils.RedisClient.Close()
	}
	log.Info("server exited")
}
