// Command session-token mints a session token for a user, for local
// development and for identity services that delegate to finsight.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"finsight/internal/auth"
	"finsight/internal/cli"
	"finsight/internal/config"
)

func main() {
	var (
		userID = flag.String("user", "", "user id (required)")
		name   = flag.String("name", "", "display name")
		email  = flag.String("email", "", "email address")
		ttl    = flag.Duration("ttl", 0, "token lifetime (default SESSION_TTL)")
	)
	flag.Parse()

	cli.LoadEnvFile()
	cfg := cli.LoadConfig()
	if len(cfg.SessionSecret) < config.MinSessionSecretLength {
		fmt.Fprintf(os.Stderr, "SESSION_SECRET must be at least %d characters\n", config.MinSessionSecretLength)
		os.Exit(1)
	}
	if *userID == "" {
		flag.Usage()
		os.Exit(2)
	}

	tokens := auth.NewJWTProvider(auth.JWTConfig{Secret: cfg.SessionSecret, TTL: cfg.SessionTTL})
	token, exp, err := tokens.Issue(auth.User{ID: *userID, DisplayName: *name, Email: *email}, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", exp.Format(time.RFC3339))
}
