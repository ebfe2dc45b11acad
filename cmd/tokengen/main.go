package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/yanqian/synergy-circle/internal/domain/access"
	"github.com/yanqian/synergy-circle/internal/infra/config"
	"github.com/yanqian/synergy-circle/pkg/logger"
)

var (
	subject = flag.String("subject", "", "Token subject, e.g. the name of the calling service")
	ttl     = flag.Duration("ttl", 0, "Token lifetime (defaults to auth.tokenTtl)")
	asJSON  = flag.Bool("json", false, "Print token, subject and expiry as JSON")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	svc := access.NewService(access.Config{Secret: cfg.Auth.Secret, TokenTTL: cfg.Auth.TokenTTL}, logger.NewWithOptions(logger.Options{Level: slog.LevelWarn, Writer: os.Stderr}))
	if !svc.Enabled() {
		log.Fatal("auth.secret (AUTH_SECRET) is not set")
	}

	token, err := svc.Issue(context.Background(), *subject, *ttl)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(token); err != nil {
			log.Fatalf("encode token: %v", err)
		}
		return
	}
	fmt.Println(token.Value)
	fmt.Fprintf(os.Stderr, "expires %s\n", token.ExpiresAt.Format(time.RFC3339))
}
