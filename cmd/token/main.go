// Command token mints a bearer token for a club operator using the API's JWT secret.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/noah-isme/sports-club-api/internal/service"
	"github.com/noah-isme/sports-club-api/pkg/config"
)

func main() {
	subject := flag.String("subject", "", "operator identifier written to the sub claim")
	name := flag.String("name", "", "display name of the operator")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Env == config.EnvProduction && cfg.Auth.Secret == "dev_secret" {
		log.Fatal("refusing to sign with the development secret in production; set JWT_SECRET")
	}

	token, expiresAt, err := service.NewTokenService(cfg.Auth.Secret).Issue(*subject, *name, *ttl)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}
