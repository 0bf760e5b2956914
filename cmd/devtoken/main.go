// Command devtoken mints a bearer token for local development.
//
//	go run ./cmd/devtoken -user alice -name "Alice" -email alice@example.com
//
// The token is signed with JWT_SECRET, read from the environment or .env.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/mmynk/splitflow/internal/auth"
	"github.com/mmynk/splitflow/internal/config"
	"github.com/mmynk/splitflow/internal/models"
	"github.com/mmynk/splitflow/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	userID := flag.String("user", "", "user ID to issue the token for (required)")
	name := flag.String("name", "", "display name claim")
	email := flag.String("email", "", "email claim")
	flag.Parse()

	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	if *userID == "" {
		flag.Usage()
		os.Exit(2)
	}
	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET is not set")
		os.Exit(1)
	}

	token, err := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL).Generate(models.NewProfile(*userID, *name, *email))
	if err != nil {
		slog.Error("Failed to mint token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
