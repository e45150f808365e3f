package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"vesseladmin/config"
	"vesseladmin/database"
	"vesseladmin/internal/notify"
	"vesseladmin/internal/oauth"
	"vesseladmin/internal/utils"
	"vesseladmin/server"
)

// main is the composition root: it loads configuration once, builds every
// collaborator explicitly, starts the HTTP server in a goroutine, and shuts
// down on interrupt.
func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBDir, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime)
	if err != nil {
		log.Fatalf("[main] database open failed: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("[main] error closing database: %v", err)
		}
	}()

	if err := database.InitSchema(db); err != nil {
		log.Fatalf("[main] schema init failed: %v", err)
	}

	users := database.NewUserStore(db)
	roles := database.NewRoleStore(db)
	perms := database.NewPermissionStore(db)

	tokens := utils.NewTokenService([]byte(cfg.JwtKey),
		cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.ResetTokenTTL)

	var google *oauth.GoogleProvider
	if cfg.GoogleClientID != "" && cfg.GoogleSecret != "" {
		google, err = oauth.NewGoogleProvider(context.Background(),
			cfg.GoogleClientID, cfg.GoogleSecret, cfg.GoogleRedirectURL)
		if err != nil {
			log.Fatalf("[main] google provider init failed: %v", err)
		}
	} else {
		log.Printf("[main] google login disabled (no client credentials)")
	}

	emitter := notify.NewEmitter(cfg.KafkaBrokerAddress, cfg.KafkaClientID)
	defer func() {
		if err := emitter.Close(); err != nil {
			log.Printf("[main] error closing kafka writer: %v", err)
		}
	}()

	srv := server.New(users, roles, perms, tokens, google, emitter, cfg.DashboardURL)

	// Start the server in a goroutine so the main thread can listen for signals.
	go func() {
		if err := srv.Start(cfg.ServerPort); err != nil {
			log.Fatalf("[main] server failed: %v", err)
		}
	}()

	// Block until an interrupt signal is received.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Println("[main] interrupt signal received, shutting down")
}
