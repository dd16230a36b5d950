// Package grantkey generates ed25519 grant keypairs and optionally mints a
// signed test grant for local development.
package grantkey

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/louisbranch/usurper.games/internal/platform/id"
)

// Config holds configuration for grant key generation.
type Config struct {
	// Actor mints a test grant for the given actor id. Empty skips minting.
	Actor    string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{
		Issuer:   "https://usurper.games",
		Audience: "usurper.games",
		TTL:      time.Hour,
	}
	fs.StringVar(&cfg.Actor, "actor", cfg.Actor, "mint a test grant for this actor id")
	fs.StringVar(&cfg.Issuer, "issuer", cfg.Issuer, "grant issuer")
	fs.StringVar(&cfg.Audience, "audience", cfg.Audience, "grant audience")
	fs.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "test grant lifetime")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type grantClaims struct {
	jwt.RegisteredClaims
	ActorID string `json:"actor_id"`
}

// Run generates a grant keypair and writes export lines. When an actor is
// named, it also mints a grant signed by the fresh private key.
func Run(cfg Config, out io.Writer, reader io.Reader) error {
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}
	publicKey, privateKey, err := ed25519.GenerateKey(reader)
	if err != nil {
		return fmt.Errorf("generate grant key: %w", err)
	}
	if _, err := fmt.Fprintf(out, "export USURPER_GRANT_PRIVATE_KEY=%s\n", base64.RawStdEncoding.EncodeToString(privateKey)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "export USURPER_GRANT_PUBLIC_KEY=%s\n", base64.RawStdEncoding.EncodeToString(publicKey)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "export USURPER_GRANT_ISSUER=%s\n", cfg.Issuer); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "export USURPER_GRANT_AUDIENCE=%s\n", cfg.Audience); err != nil {
		return err
	}

	actor := strings.TrimSpace(cfg.Actor)
	if actor == "" {
		return nil
	}
	token, err := mintGrant(privateKey, cfg, actor)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "# test grant for %s (expires in %s)\n%s\n", actor, cfg.TTL, token)
	return err
}

func mintGrant(privateKey ed25519.PrivateKey, cfg Config, actor string) (string, error) {
	if cfg.TTL <= 0 {
		return "", errors.New("ttl must be greater than zero")
	}
	jti, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("generate grant id: %w", err)
	}
	now := time.Now().UTC()
	claims := grantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
			ID:        jti,
		},
		ActorID: actor,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("sign test grant: %w", err)
	}
	return token, nil
}
