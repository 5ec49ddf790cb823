// Command token mints bearer tokens for local testing and service accounts.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"velorent/internal/auth"
	"velorent/internal/config"
	"velorent/internal/models"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	var (
		configPath = fs.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "path to config.yaml")
		secret     = fs.String("secret", os.Getenv("JWT_SECRET"), "signing secret, overrides the config")
		issuer     = fs.String("issuer", os.Getenv("JWT_ISSUER"), "token issuer")
		userID     = fs.Int64("id", 0, "user id")
		role       = fs.String("role", models.RoleUser, "admin, vendor or user")
		email      = fs.String("email", "", "user email")
		name       = fs.String("name", "", "display name")
		ttl        = fs.Duration("ttl", 24*time.Hour, "token lifetime")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *userID <= 0 {
		return fmt.Errorf("-id must be positive")
	}
	if *ttl <= 0 {
		return fmt.Errorf("-ttl must be positive")
	}

	if *secret == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		*secret = cfg.Auth.JWTSecret
		if *issuer == "" {
			*issuer = cfg.Auth.JWTIssuer
		}
	}

	tok, err := auth.NewVerifier(*secret, *issuer).Mint(models.Principal{
		UserID: *userID,
		Role:   *role,
		Email:  *email,
		Name:   *name,
	}, *ttl)
	if err != nil {
		return err
	}

	fmt.Println(tok)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
