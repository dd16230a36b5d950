package hmackey

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

// Config holds configuration for journal HMAC key generation.
type Config struct {
	Bytes int
	KeyID string
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Bytes: 32}
	fs.IntVar(&cfg.Bytes, "bytes", cfg.Bytes, "number of random bytes (default: 32)")
	fs.StringVar(&cfg.KeyID, "id", cfg.KeyID, "emit a keyed entry for rotation instead of the single-key form")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run generates the key and writes it to out. With -id the output is the
// multi-key rotation form the store accepts alongside older keys.
func Run(cfg Config, out io.Writer, reader io.Reader) error {
	if cfg.Bytes <= 0 {
		return errors.New("bytes must be greater than zero")
	}
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}

	buf := make([]byte, cfg.Bytes)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return fmt.Errorf("generate random bytes: %w", err)
	}
	encoded := hex.EncodeToString(buf)

	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		_, err := fmt.Fprintf(out, "USURPER_EVENT_HMAC_KEY=%s\n", encoded)
		return err
	}
	if _, err := fmt.Fprintf(out, "USURPER_EVENT_HMAC_KEYS=%s=%s\n", keyID, encoded); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "USURPER_EVENT_HMAC_KEY_ID=%s\n", keyID)
	return err
}
