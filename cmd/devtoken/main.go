// Command devtoken prints a signed access token for local testing of the
// stock API.  It reads JWT_SECRET and ACCESS_TOKEN_TTL_MIN from the same
// environment as the server.
//
//	go run ./cmd/devtoken -user 42 -role PRO
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/iliyamo/stock-scheduler/internal/utils"
)

func main() {
	_ = godotenv.Load()

	userID := flag.Uint64("user", 1, "user id written to the sub claim")
	role := flag.String("role", utils.RolePro, "role claim (PRO or ADMIN)")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("missing required env var: JWT_SECRET")
	}
	ttl := 60
	if v := os.Getenv("ACCESS_TOKEN_TTL_MIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid int for ACCESS_TOKEN_TTL_MIN: %q", v)
		}
		ttl = n
	}

	tok, err := utils.NewAccessToken(secret, *userID, *role, ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(tok.Token)
	log.Printf("token for user %d (%s) expires at %s", *userID, *role, tok.Exp.Format("2006-01-02T15:04:05Z"))
}
