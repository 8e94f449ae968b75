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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nstepanov/shop-backend/internal/cache"
	"github.com/nstepanov/shop-backend/internal/config"
	"github.com/nstepanov/shop-backend/internal/es"
	"github.com/nstepanov/shop-backend/internal/handlers"
	"github.com/nstepanov/shop-backend/internal/logging"
	authmw "github.com/nstepanov/shop-backend/internal/middleware/auth"
	loggingmw "github.com/nstepanov/shop-backend/internal/middleware/logging"
	"github.com/nstepanov/shop-backend/internal/mykafka"
	"github.com/nstepanov/shop-backend/internal/repo"
	"github.com/nstepanov/shop-backend/internal/service/order"
	"github.com/nstepanov/shop-backend/internal/service/token"
	httpserver "github.com/nstepanov/shop-backend/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	logger := logging.New(os.Getenv("LOG_LEVEL"))

	var producer *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer, err = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
		if err != nil {
			log.Fatalf("kafka init error: %v", err)
		}
	}

	infoCache := cache.New(configuration.REDIS_ADDR, 30*time.Second)

	var searchHandler *handlers.SearchHandler
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		searchHandler = &handlers.SearchHandler{ES: esClient, Index: "products"}
	}

	store := repo.New(db)
	tokens := &token.Service{
		DB:            db,
		JWTSecret:     []byte(configuration.JWT_SECRET),
		RefreshSecret: []byte(configuration.REFRESH_SECRET),
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		AuthHandler:    &handlers.AuthHandler{Repo: store, Tokens: tokens, Producer: producer},
		ProductHandler: &handlers.ProductHandler{Repo: store, Producer: producer, Cache: infoCache},
		OrderHandler:   &handlers.OrderHandler{Svc: order.New(store), Repo: store, Producer: producer},
		UserHandler:    &handlers.UserHandler{Repo: store},
		SearchHandler:  searchHandler,
		AuthMW:         authmw.New(tokens),
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", configuration.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}
	if err := infoCache.Close(); err != nil {
		log.Printf("redis close error: %v", err)
	}

	log.Println("shutdown complete")
}
