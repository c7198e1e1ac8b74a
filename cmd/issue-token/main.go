// Command issue-token prints a signed bearer token for a user ID, for local
// development against the tracker API.
package main

import (
	"flag"
	"fmt"
	"os"

	"tracker/internal/cli"
	"tracker/internal/identity"
	"tracker/internal/log"
)

func main() {
	userID := flag.String("user", "", "user ID to issue the token for")
	ttl := flag.Duration("ttl", 0, "token lifetime (default: JWT_TTL)")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: issue-token -user <id> [-ttl 24h]")
		os.Exit(2)
	}

	cfg, logger := cli.Bootstrap(log.ComponentAuth)
	if *ttl == 0 {
		*ttl = cfg.JWTTTL
	}

	token, err := identity.NewJWTManager(cfg.JWTSecret, *ttl).Generate(*userID)
	if err != nil {
		logger.Error("Failed to sign token", log.FieldError, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
