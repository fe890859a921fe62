package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-lot-reservation/internal/config"
	"github.com/iliyamo/parking-lot-reservation/internal/database"
	"github.com/iliyamo/parking-lot-reservation/internal/handler"
	"github.com/iliyamo/parking-lot-reservation/internal/middleware"
	"github.com/iliyamo/parking-lot-reservation/internal/queue"
	"github.com/iliyamo/parking-lot-reservation/internal/repository"
	"github.com/iliyamo/parking-lot-reservation/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	lotRepo := repository.NewLotRepo(db)
	spotRepo := repository.NewSpotRepo(db)
	resRepo := repository.NewReservationRepo(db)

	// Seed the administrator account on first boot. Admins cannot register
	// through the API, so without this there is no way to manage lots.
	if cfg.AdminPassword == "" {
		log.Println("ADMIN_PASSWORD unset, skipping admin seeding")
	} else if id, err := userRepo.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.BcryptCost); err != nil {
		log.Fatalf("seed admin: %v", err)
	} else {
		log.Printf("admin user %q ready (id=%d)", cfg.AdminUsername, id)
	}

	e := echo.New()

	// Redis backs the rate limiter and the public response cache. Both are
	// skipped when Redis is unreachable so the API still serves.
	rdb := config.NewRedisClient()
	if rdb != nil {
		if rl := config.LoadRateLimitConfig(); rl.Enabled {
			e.Use(middleware.NewTokenBucket(rl, rdb))
		}
	}

	router.RegisterRoutes(e)
	router.RegisterPublic(e, handler.NewPublicHandler(lotRepo), rdb)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, userRepo, tokenRepo), cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(lotRepo, spotRepo), cfg.JWTSecret)
	router.RegisterCustomer(e, handler.NewReservationHandler(resRepo), cfg.JWTSecret)

	// Consume reservation.closed events in the background. The consumer
	// reconnects on its own; a missing broker only loses the audit log.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
