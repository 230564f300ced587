package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/nitesh/cafe_service/internal/api"
	"github.com/nitesh/cafe_service/internal/config"
	"github.com/nitesh/cafe_service/internal/logger"
	"github.com/nitesh/cafe_service/internal/normalize"
	"github.com/nitesh/cafe_service/internal/places"
	"github.com/nitesh/cafe_service/internal/search"
	"github.com/nitesh/cafe_service/internal/service"
	"github.com/nitesh/cafe_service/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewStructured("error", "json").Error("load config", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	zl := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zl.Sync()
	log := logger.NewZapAdapter(zl).With(map[string]interface{}{
		"app": cfg.App.Name,
		"env": cfg.App.Environment,
	})
	fatal := func(msg string, err error) {
		log.WithError(err).Error(msg, nil)
		zl.Sync()
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.Database.Postgres.GetDSN())
	if err != nil {
		fatal("db open", err)
	}
	db.SetMaxOpenConns(cfg.Database.Postgres.MaxConnections)
	db.SetMaxIdleConns(cfg.Database.Postgres.MaxIdle)

	// simple ping + wait (db might be starting in docker)
	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		log.Warn("waiting for db", map[string]interface{}{"attempt": i + 1, "error": err.Error()})
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		fatal("could not connect to db", err)
	}

	if err := store.RunMigrations(db); err != nil {
		fatal("migrations", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Database.Redis.Address,
		Password: cfg.Database.Redis.Password,
		DB:       cfg.Database.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis ping failed, preview cache degraded", map[string]interface{}{"error": err.Error()})
	}

	client := places.NewClient(places.Options{
		APIKey:         cfg.Places.APIKey,
		BaseURL:        cfg.Places.BaseURL,
		GeocodeBaseURL: cfg.Places.GeocodeBaseURL,
		Timeout:        config.GetDuration(cfg.Places.Timeout),
		RateLimit:      config.GetDuration(cfg.Places.RateLimit),
	}, log)
	region := normalize.Region{
		City:       cfg.Region.City,
		State:      cfg.Region.State,
		PostalCode: cfg.Region.PostalCode,
	}
	orchestrator := search.NewOrchestrator(
		client,
		places.NewGeocoder(client, log),
		normalize.NewNormalizer(normalize.PlaceholderDefaults(), region),
		log,
	)

	if cfg.Places.APIKey == "" {
		log.Warn("places api key not set, provider search disabled", nil)
	}

	repo := store.NewPgStore(db)
	svc := service.NewService(repo, orchestrator, rdb, service.Options{
		ProviderEnabled: cfg.Places.APIKey != "",
		SeedQuery:       cfg.Seed.Query,
		CacheTTL:        time.Duration(cfg.Cache.TTL) * time.Second,
	}, log)

	if cfg.Seed.Enabled {
		seedCtx, seedCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := svc.Seed(seedCtx); err != nil {
			log.WithError(err).Error("seed failed", nil)
		}
		seedCancel()
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.RegisterRoutes(router, api.NewHandler(svc, log))

	log.Info("listening", map[string]interface{}{"port": cfg.Server.Port})
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		fatal("server failed", err)
	}
}
