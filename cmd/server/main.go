package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"donationFulfillment/internal/config"
	"donationFulfillment/internal/db"
	"donationFulfillment/internal/engine"
	"donationFulfillment/internal/notify"
	"donationFulfillment/repository"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	log.Printf("Configuration loaded: %v", cfg)

	// Open DB
	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Printf("close db: %v", err)
		}
	}()

	users := repository.NewUserRepository(d)
	food := repository.NewFoodRepository(d)
	volunteers := repository.NewVolunteerRepository(d)
	donations := repository.NewDonationRepository(d)
	offers := repository.NewOfferRepository(d)

	var notifier notify.Notifier = notify.NewLogNotifier()
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.AdminChatID)
		if err != nil {
			log.Fatalf("telegram notifier: %v", err)
		}
		notifier = tg
		log.Printf("Telegram alerts enabled for chat %d", cfg.Telegram.AdminChatID)
	}

	eng := engine.New(engine.Params{
		Users:                users,
		Food:                 food,
		Volunteers:           volunteers,
		Donations:            donations,
		Offers:               offers,
		Notifier:             notifier,
		OfferTTL:             cfg.Matching.OfferTTL,
		MaxActiveAssignments: cfg.Matching.MaxActiveAssignments,
	})

	// Re-arm expiry timers for offers left pending by a previous run.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := eng.ResumeOffers(ctx); err != nil {
		cancel()
		log.Fatalf("resume offers: %v", err)
	}
	cancel()
	log.Printf("Fulfillment engine running (offer TTL %s)", cfg.Matching.OfferTTL)

	// Wait for signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	eng.Close()
}
