package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/claude/liftplan/internal/auth"
	"github.com/claude/liftplan/internal/config"
	"github.com/claude/liftplan/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	userID := flag.Int("user", 0, "user id to issue the token for")
	email := flag.String("email", "", "look up or create the user with this email instead of -user")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if (*userID > 0) == (*email != "") {
		fmt.Fprintf(os.Stderr, "Usage: liftplan-token -config config.yaml (-user N | -email addr) [-ttl 24h]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	uid := *userID
	if *email != "" {
		ctx := context.Background()
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		db, err := storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		uid, err = db.EnsureUser(ctx, *email)
		db.Close()
		if err != nil {
			log.Error("failed to resolve user", "email", *email, "error", err)
			os.Exit(1)
		}
		log.Info("user resolved", "email", *email, "user_id", uid)
	}

	lifetime := cfg.Auth.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	token, err := auth.Issue([]byte(cfg.Auth.JWTSecret), uid, lifetime, time.Now())
	if err != nil {
		log.Error("failed to issue token", "error", err)
		os.Exit(1)
	}
	log.Info("token issued", "user_id", uid, "expires", time.Now().Add(lifetime).Format(time.RFC3339))
	fmt.Println(token)
}
