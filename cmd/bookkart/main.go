package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bookkart/bookkart/internal/address"
	"github.com/bookkart/bookkart/internal/auth"
	"github.com/bookkart/bookkart/internal/cart"
	"github.com/bookkart/bookkart/internal/config"
	"github.com/bookkart/bookkart/internal/db"
	apphttp "github.com/bookkart/bookkart/internal/handler/http"
	"github.com/bookkart/bookkart/internal/mail"
	"github.com/bookkart/bookkart/internal/order"
	"github.com/bookkart/bookkart/internal/payment"
	"github.com/bookkart/bookkart/internal/product"
	"github.com/bookkart/bookkart/internal/user"
	"github.com/bookkart/bookkart/internal/wishlist"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "bookkart").Logger()

	log.Info().Msg("BookKart starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx := context.Background()

	postgres, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgres.Close()

	sender, err := mail.NewSMTPSender(cfg.SMTP, cfg.App.FrontendURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create mail sender")
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	gateway := payment.NewRazorpayGateway(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)

	userRepo := user.NewRepository(postgres.Pool)
	productRepo := product.NewRepository(postgres.Pool)
	addressRepo := address.NewRepository(postgres.Pool)
	cartRepo := cart.NewRepository(postgres.Pool)
	wishlistRepo := wishlist.NewRepository(postgres.Pool)
	orderRepo := order.NewRepository(postgres.Pool)

	userSvc := user.NewService(userRepo, sender)
	productSvc := product.NewService(productRepo)
	addressSvc := address.NewService(addressRepo)
	cartSvc := cart.NewService(cartRepo, productRepo)
	wishlistSvc := wishlist.NewService(wishlistRepo, productRepo)
	orderSvc := order.NewService(orderRepo, cartSvc, productRepo, gateway,
		cfg.Razorpay.WebhookSecret, cfg.Razorpay.Timeout)

	router := apphttp.NewRouter(tokens, apphttp.Handlers{
		Auth:     apphttp.NewAuthHandler(userSvc, tokens),
		Product:  apphttp.NewProductHandler(productSvc),
		Cart:     apphttp.NewCartHandler(cartSvc),
		Wishlist: apphttp.NewWishlistHandler(wishlistSvc),
		Address:  apphttp.NewAddressHandler(addressSvc),
		Order:    apphttp.NewOrderHandler(orderSvc),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
