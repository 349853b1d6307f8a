package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/restobooking/api"
	"github.com/Domenick1991/restobooking/config"
	"github.com/Domenick1991/restobooking/internal/bootstrap"
	"github.com/Domenick1991/restobooking/internal/cache"
	"github.com/Domenick1991/restobooking/internal/kafka"
	"github.com/Domenick1991/restobooking/internal/repository"
	"github.com/Domenick1991/restobooking/internal/service/booking"
	"github.com/Domenick1991/restobooking/internal/service/payments"
	"github.com/Domenick1991/restobooking/internal/token"
	"github.com/Domenick1991/restobooking/internal/webhook"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	secrets, err := config.LoadSecrets()
	if err != nil {
		log.Fatalf("load secrets: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	keyring, err := token.NewKeyring(cfg.Links.ActiveKeyID, secrets.CapabilityKeys)
	if err != nil {
		log.Fatalf("build keyring: %v", err)
	}
	gate := token.NewGate(keyring)
	issuer := token.NewIssuer(keyring, cfg.Links.BaseURL)

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Payment.ViewCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	bookingRepo := repository.NewBookingRepository(pool)
	eventRepo := repository.NewPaymentEventRepository(pool)
	invoiceRepo := repository.NewInvoiceRepository(pool)

	guestService := booking.NewGuestService(bookingRepo, redisCache, producer, cfg.Kafka.NotificationsTopic)
	paymentService := payments.NewPaymentService(
		eventRepo,
		bookingRepo,
		invoiceRepo,
		redisCache,
		producer,
		cfg.Kafka.NotificationsTopic,
		cfg.Kafka.AlertsTopic,
	)

	verifier := webhook.NewVerifier(secrets.WebhookSecret, time.Duration(cfg.Payment.SignatureToleranceSeconds)*time.Second)

	guestHandler := api.NewGuestHandler(guestService, gate, issuer)
	webhookHandler := api.NewWebhookHandler(paymentService, verifier)

	if err := bootstrap.Run(ctx, cfg, guestHandler, webhookHandler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
