package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etherbrian/etherbrian.github.io/internal/config"
	"github.com/etherbrian/etherbrian.github.io/internal/pkg/jwt"
)

// mktoken mints an admin bearer token for the log viewer and submission
// endpoints. There is no login endpoint; tokens are created offline.
func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to YAML config file")
	subject := flag.String("subject", "admin", "Token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mktoken: %v\n", err)
		os.Exit(1)
	}

	jwt.SetSecret(cfg.JWTSecret)
	token, err := jwt.Sign(*subject, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mktoken: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
