package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookmanagement/internal/auth"
	"bookmanagement/internal/book"
	"bookmanagement/internal/httpx"
	"bookmanagement/internal/platform/postgres"
	"bookmanagement/internal/readinglist"
	"bookmanagement/internal/session"
	"bookmanagement/internal/user"

	"github.com/redis/go-redis/v9"
)

func main() {
	loadEnvFiles()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := postgres.Connect(ctx, cfg.DSN, 2*time.Second)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer dbPool.Close()
	log.Printf("database connection OK: dsn=%s", postgres.RedactDSN(cfg.DSN))

	var blacklist session.BlacklistRepository = session.NewBlacklistPG(dbPool, cfg.DBTimeout)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("redis: addr=%s error=%v", cfg.RedisAddr, err)
		}
		blacklist = session.NewBlacklistRedis(rdb, cfg.DBTimeout)
		log.Printf("token revocation: backend=redis addr=%s", cfg.RedisAddr)
	} else {
		log.Printf("token revocation: backend=postgres")
	}

	userService := user.NewService(user.NewPostgresRepo(dbPool, cfg.DBTimeout))
	sessionService := session.NewService(session.NewPostgresRepo(dbPool, cfg.DBTimeout), blacklist)
	authService := auth.NewService(cfg.JWTSecret, userService, sessionService)
	bookService := book.NewService(book.NewPostgresRepo(dbPool, cfg.DBTimeout))
	readingListService := readinglist.NewService(readinglist.NewPostgresRepo(dbPool, cfg.DBTimeout), bookService)

	router := newRouter(handlers{
		auth:        auth.NewHTTPHandler(authService),
		user:        user.NewHTTPHandler(userService),
		book:        book.NewHTTPHandler(bookService),
		readingList: readinglist.NewHTTPHandler(readingListService),
	}, cfg.JWTSecret, sessionService, dbPool)

	rateLimiter := httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	handler := httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware,
		httpx.RecoveryMiddleware,
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
		httpx.CORSMiddleware(cfg.CORSAllowedOrigins),
		httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes),
		rateLimiter.Middleware,
	)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: error=%v", err)
		}
	}()

	log.Printf("Starting server on %s", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
	log.Printf("server stopped")
}
