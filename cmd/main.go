package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/raushan-in/dapa/internal/ai"
	"github.com/raushan-in/dapa/internal/config"
	"github.com/raushan-in/dapa/internal/ratelimit"
	"github.com/raushan-in/dapa/internal/scam"
	"github.com/raushan-in/dapa/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	// --- DB ---
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("db ping error: %v", err)
	}
	if err := scam.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("db schema error: %v", err)
	}

	// --- Session store & rate limiter ---
	var (
		sessions session.Store
		limiter  ratelimit.Limiter
	)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis url error: %v", err)
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis ping error: %v", err)
		}
		defer rdb.Close()

		sessions = session.NewRedisStore(rdb)
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit, cfg.RateLimitWindow)
	} else {
		log.Println("REDIS_URL not set, using in-memory session store and rate limiter")
		sessions = session.NewMemoryStore()
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit, cfg.RateLimitWindow)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// --- Scam module wiring ---
	repo := scam.NewRepo(db)
	tools := scam.NewTools(repo)
	aiClient := ai.NewOpenAIClient(cfg.OpenAIModel)
	svc := scam.NewService(tools, aiClient, sessions, limiter, scam.Options{
		SessionTTL:    cfg.SessionTTL,
		HistoryLimit:  cfg.HistoryLimit,
		PolicyTimeout: cfg.PolicyTimeout,
		ToolTimeout:   cfg.ToolTimeout,
	})
	handler := scam.NewHandler(svc)

	scam.RegisterRoutes(r, handler, cfg.AuthSecret)

	// --- health ---
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	log.Printf("listening on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
