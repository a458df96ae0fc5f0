// Command token mints a bearer token for operators and scripts calling the API.
//
//	token -sub office -role admin
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"household/internal/adapters/auth"
	"household/internal/config"
	"household/internal/domain/account"
)

func main() {
	subject := flag.String("sub", "", "token subject (operator or account id)")
	role := flag.String("role", account.RoleGuardian, "role claim: admin or guardian")
	ttl := flag.Duration("ttl", 0, "lifetime; defaults to HOUSEHOLD_TOKEN_TTL")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load .env file: %v", err)
	}
	// A generated secret would mint tokens no server accepts.
	if os.Getenv("HOUSEHOLD_JWT_SECRET") == "" {
		log.Fatal("HOUSEHOLD_JWT_SECRET must be set")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if *subject == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *ttl <= 0 {
		*ttl = cfg.TokenTTL
	}

	signer, err := auth.NewSigner(cfg.JWTSecret, *ttl, nil)
	if err != nil {
		log.Fatalf("signer: %v", err)
	}
	token, err := signer.Issue(*subject, *role)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Println(token)
}
