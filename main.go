package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"opsecho/config"
	"opsecho/database"
	"opsecho/handlers"
	"opsecho/kafka"
	"opsecho/logger"
	"opsecho/mockdata"
	"opsecho/models"
	"opsecho/preferences"
	"opsecho/remote"
	"opsecho/services"
	"opsecho/store"
	"opsecho/websocket"
)

const serviceName = "opsecho-backend"

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	if err := run(cfg, logg); err != nil {
		logg.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logg *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logg.Info("starting OpsEcho backend",
		zap.String("port", cfg.Server.Port),
		zap.String("data_source", cfg.DataSource.Mode),
	)

	source, closeSource, err := newDataSource(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer closeSource()

	// State store
	st := store.New(store.InitialState(time.Now()), logg.Named("store"))
	go st.Run(ctx)

	// WebSocket hub, fed by store changes
	hub := websocket.NewHub(cfg.Server.AllowOrigins, logg.Named("ws"))
	go hub.Run(ctx)
	changes, unsubscribe := st.Subscribe(256)
	defer unsubscribe()
	go hub.ForwardChanges(ctx, changes)
	logg.Info("websocket hub started")

	go func() {
		if err := store.Load(ctx, st, source, cfg.Loader, time.Now, logg.Named("loader")); err != nil && ctx.Err() == nil {
			logg.Error("initial load failed", zap.String("source", source.Name()), zap.Error(err))
		}
	}()

	detector := services.NewAnomalyDetector(services.DefaultWindowSize, logg.Named("anomaly"), func(alert *models.Alert) {
		logg.Info("alert raised",
			zap.String("channel_id", alert.ChannelID),
			zap.String("alert_type", alert.AlertType),
			zap.String("severity", string(alert.Severity)),
		)
		hub.BroadcastAlert(alert)
	})

	var consumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		consumer, err = kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, []string{cfg.Kafka.Topic}, logg.Named("kafka"))
		if err != nil {
			return fmt.Errorf("failed to initialize Kafka consumer: %w", err)
		}
		ingestor := services.NewTelemetryIngestor(st, detector, hub, logg.Named("telemetry"))
		go consumer.Start(ctx)
		go ingestor.Run(ctx, consumer.Readings())
		logg.Info("kafka consumer started", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	playback := services.NewPlayback(st, logg.Named("playback"),
		services.WithWindow(cfg.Playback.Window, cfg.Playback.Tick))

	prefs, err := newPreferences(ctx, cfg, logg)
	if err != nil {
		return err
	}

	handler := handlers.New(handlers.Dependencies{
		Store:           st,
		Source:          source,
		Hub:             hub,
		AnomalyDetector: detector,
		Playback:        playback,
		Preferences:     prefs,
		Logger:          logg.Named("http"),
		Lifetime:        ctx,
	})

	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(logger.GinMiddleware(logg.Named("http")))
	router.Use(logger.GinRecovery(logg.Named("http")))
	router.Use(corsMiddleware(cfg.Server.AllowOrigins))
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logg.Info("shutting down server", zap.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	playback.Pause()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Warn("server forced to shutdown", zap.Error(err))
	}

	cancel()
	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logg.Warn("failed to stop kafka consumer", zap.Error(err))
		}
	}

	logg.Info("server stopped")
	return nil
}

// newDataSource builds the configured snapshot source and its cleanup function
func newDataSource(ctx context.Context, cfg *config.Config, logg *zap.Logger) (store.DataSource, func(), error) {
	switch cfg.DataSource.Mode {
	case config.SourcePostgres:
		db, err := database.New(cfg.GetDatabaseURL())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		source := database.NewSource(db.DB, time.Now, logg.Named("database"))
		if err := seedDatabase(ctx, source, cfg.DataSource.Seed, logg); err != nil {
			db.Close()
			return nil, nil, err
		}
		logg.Info("database connection established", zap.String("host", cfg.Database.Host))
		return source, func() { db.Close() }, nil

	case config.SourceRemote:
		logg.Info("using remote data source", zap.String("url", cfg.DataSource.RemoteURL))
		return remote.NewSource(cfg.DataSource.RemoteURL, cfg.DataSource.RemoteTimeout, logg.Named("remote")), func() {}, nil

	default:
		return mockdata.NewSource(cfg.DataSource.Seed, time.Now), func() {}, nil
	}
}

// seedDatabase fills an empty database with a generated dataset
func seedDatabase(ctx context.Context, source *database.Source, seed int64, logg *zap.Logger) error {
	snap, err := source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to read database: %w", err)
	}
	if len(snap.Incidents) > 0 {
		return nil
	}
	generated := mockdata.New(seed).Generate(time.Now())
	if err := source.Save(ctx, generated); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}
	logg.Info("seeded empty database", zap.Int64("seed", seed), zap.Int("incidents", len(generated.Incidents)))
	return nil
}

// newPreferences uses Redis when enabled and process memory otherwise
func newPreferences(ctx context.Context, cfg *config.Config, logg *zap.Logger) (*preferences.Store, error) {
	if !cfg.Redis.Enabled {
		return preferences.NewStore(preferences.NewMemoryKV(), logg.Named("preferences")), nil
	}
	kv := preferences.NewRedisKV(preferences.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB))
	if err := kv.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logg.Info("redis connection established", zap.String("addr", cfg.Redis.Addr))
	return preferences.NewStore(kv, logg.Named("preferences")), nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return func(ctx *gin.Context) {
		c.HandlerFunc(ctx.Writer, ctx.Request)
		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}
		ctx.Next()
	}
}
