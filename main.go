package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"shoply/internal/config"
	"shoply/internal/database"
	"shoply/internal/events"
	"shoply/internal/handlers"
	"shoply/internal/mailer"
	"shoply/internal/middleware"
	"shoply/internal/redisx"
	"shoply/internal/store"
)

func main() {
	config.Load()
	cfg := config.AppEnv

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.Migrate(cfg.MigrationsDir, cfg.PostgresDSN); err != nil {
		log.Fatal("migrate: ", err)
	}

	db, err := database.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect: ", err)
	}
	defer db.Close()
	log.Println("Postgres connected")

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	var producer *events.Producer
	var orderEvents handlers.OrderEvents
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, events.TopicOrderCreated, 1024)
		producer.Start(ctx)
		orderEvents = producer
	}

	var m mailer.Mailer = mailer.Log{}
	if cfg.SMTPAddr != "" {
		m = &mailer.SMTP{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom}
	}

	users := &store.Users{DB: db}
	products := &store.Products{DB: db}
	orders := &store.Orders{DB: db}
	refreshTokens := &store.RefreshTokens{DB: db}
	resetTokens := &redisx.ResetTokens{Client: rdb}

	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/auth/register", handlers.Register(users))
	r.POST("/auth/login", handlers.Login(users, refreshTokens, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL))
	r.POST("/auth/refresh", handlers.Refresh(users, refreshTokens, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL))
	r.POST("/auth/logout", handlers.Logout(refreshTokens))
	r.POST("/auth/password-reset", handlers.RequestPasswordReset(users, resetTokens, m, cfg.FrontendURL))
	r.POST("/auth/password-reset/confirm", handlers.ConfirmPasswordReset(users, resetTokens))

	authed := r.Group("/")
	authed.Use(middleware.UserAuth(cfg.JWTSecret))
	{
		authed.GET("/auth/me", handlers.GetMe(users))
		authed.PUT("/auth/me", handlers.UpdateMe(users))
		authed.PUT("/auth/change-password", handlers.ChangePassword(users))

		authed.GET("/products", handlers.GetProducts(products))

		authed.POST("/orders", handlers.CreateOrder(orders, users, orderEvents, cfg.ServiceName))
		authed.GET("/orders", handlers.GetOrders(orders, users))
		authed.GET("/orders/:id", handlers.GetOrderDetail(orders, users))
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}

	go func() {
		log.Println("HTTP listening at", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen: ", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	if producer != nil {
		producer.Close()
		producer.WaitClosed()
	}
}
