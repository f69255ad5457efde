package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"event-booking/internal/attendee/attendee_api"
	"event-booking/internal/booking"
	booking_db "event-booking/internal/booking/db"
	"event-booking/internal/config"
	"event-booking/internal/database/migrations"
	"event-booking/internal/events"
	events_db "event-booking/internal/events/db"
	"event-booking/internal/kafka"
	"event-booking/internal/logger"
	"event-booking/internal/organiser"
	organiser_db "event-booking/internal/organiser/db"
	"event-booking/internal/organiser/organiser_api"
	"event-booking/internal/session"
)

func verifyConnections(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	driverName := "sqlite"
	if cfg.Database.Driver == "postgres" {
		driverName = "postgres"
	}

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to %s (attempt %d/%d)", driverName, i+1, maxRetries))
		sqldb, err = sql.Open(driverName, cfg.Database.DSN)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open database: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.PingContext(ctx)
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to database: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to database after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	var bunDB *bun.DB
	if cfg.Database.Driver == "postgres" {
		bunDB = bun.NewDB(sqldb, pgdialect.New())
	} else {
		bunDB = bun.NewDB(sqldb, sqlitedialect.New())
	}
	logger.Info("DATABASE", "✅ Database connection successful")

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	logger.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

var migrateAction = flag.String("migrate", "", "run schema migrations (up or down) and exit")

func main() {
	flag.Parse()

	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Event Booking service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	logger.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, logger)
	defer bunDB.Close()
	defer redisClient.Close()

	// Apply the schema definition files before serving anything.
	migrationRunner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
		MigrationsDir: cfg.Database.MigrationsDir,
		Driver:        cfg.Database.Driver,
	})

	// -migrate up|down runs the requested migration and exits without
	// starting the server.
	switch *migrateAction {
	case "":
	case "up", "down":
		var err error
		if *migrateAction == "up" {
			err = migrationRunner.MigrateUp()
		} else {
			err = migrationRunner.MigrateDown()
		}
		if err != nil {
			logger.Fatal("DATABASE", fmt.Sprintf("Migration %s failed: %v", *migrateAction, err))
		}
		if err := migrationRunner.Close(); err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to close migrator: %v", err))
		}
		logger.Info("DATABASE", fmt.Sprintf("Migration %s complete", *migrateAction))
		return
	default:
		logger.Fatal("DATABASE", fmt.Sprintf("Unknown -migrate action: %s (want up or down)", *migrateAction))
	}

	if err := migrationRunner.MigrateUp(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Schema migration failed: %v", err))
	}
	logger.Info("DATABASE", "Schema is up to date")

	if cfg.Kafka.Enabled && !cfg.Kafka.MockMode {
		requiredTopics := []string{
			cfg.Kafka.Topics.BookingCreated,
			cfg.Kafka.Topics.EventPublished,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}
	}
	kafkaProducer := kafka.NewProducer(cfg.Kafka)
	defer kafkaProducer.Close()

	organiserService := organiser.NewService(&organiser_db.DB{Bun: bunDB})
	eventService := events.NewService(&events_db.DB{Bun: bunDB}, kafkaProducer)
	bookingService := booking.NewService(&booking_db.DB{Bun: bunDB}, kafkaProducer)

	sessions := session.NewManager(session.NewRedisStore(redisClient), cfg.Session)

	attendeeHandler := &attendee_api.Handler{
		BookingService:   bookingService,
		EventService:     eventService,
		OrganiserService: organiserService,
		Logger:           logger,
	}
	organiserHandler := &organiser_api.Handler{
		OrganiserService: organiserService,
		EventService:     eventService,
		Sessions:         sessions,
		Logger:           logger,
	}

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/attendee/home", http.StatusFound)
	})

	// --- Attendee Routes ---
	r.Route("/attendee", func(r chi.Router) {
		r.Get("/home", attendeeHandler.Home)
		r.Get("/event/{id}", attendeeHandler.EventDetail)
		r.Post("/book/{id}", attendeeHandler.Book)
		r.Get("/booking/{reference}/qr", attendeeHandler.BookingQR)
	})
	logger.Info("ROUTER", "Attendee routes registered under /attendee")

	// --- Organiser Routes ---
	r.Route("/organiser", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(sessions.RequireAnon)
			r.Get("/login", organiserHandler.LoginPage)
			r.Post("/login", organiserHandler.Login)
			r.Get("/register", organiserHandler.RegisterPage)
			r.Post("/register", organiserHandler.Register)
		})

		r.Group(func(r chi.Router) {
			r.Use(sessions.RequireAuth)
			r.Get("/logout", organiserHandler.Logout)
			r.Get("/home", organiserHandler.Home)
			r.Get("/create-event", organiserHandler.CreateEventPage)
			r.Post("/create-event", organiserHandler.CreateEvent)
			r.Get("/edit-event/{id}", organiserHandler.EditEventPage)
			r.Post("/edit-event/{id}", organiserHandler.EditEvent)
			r.Post("/delete/{id}", organiserHandler.DeleteEvent)
			r.Post("/publish/{id}", organiserHandler.PublishEvent)
			r.Get("/site-settings", organiserHandler.SiteSettingsPage)
			r.Post("/site-settings", organiserHandler.SaveSiteSettings)
		})
	})
	logger.Info("ROUTER", "Organiser routes registered under /organiser")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Event Booking service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Event Booking service shutdown complete")
	}
}
