// Package token mints development access tokens for the HTTP API.
package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tidemark/tidemark/internal/auth"
	entrypoint "github.com/tidemark/tidemark/internal/platform/cmd"
)

// Config holds token command configuration.
type Config struct {
	Issuer     string        `env:"TIDEMARK_AUTH_ISSUER" envDefault:"tidemark"`
	Audience   string        `env:"TIDEMARK_AUTH_AUDIENCE" envDefault:"tidemark-api"`
	PrivateKey string        `env:"TIDEMARK_AUTH_PRIVATE_KEY"`
	UserID     string        `env:"TIDEMARK_TOKEN_USER_ID"`
	TTL        time.Duration `env:"TIDEMARK_TOKEN_TTL" envDefault:"24h"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Issuer, "issuer", cfg.Issuer, "Token issuer claim")
	fs.StringVar(&cfg.Audience, "audience", cfg.Audience, "Token audience claim")
	fs.StringVar(&cfg.PrivateKey, "private-key", cfg.PrivateKey, "Base64 Ed25519 signing key; generated when empty")
	fs.StringVar(&cfg.UserID, "user", cfg.UserID, "Subject user id for the token")
	fs.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "Token lifetime")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run mints a token and writes it to out. When no signing key is
// configured a fresh keypair is generated and printed alongside the
// token so the server can be started with the matching public key.
func Run(cfg Config, out io.Writer) error {
	if strings.TrimSpace(cfg.UserID) == "" {
		return fmt.Errorf("user id is required")
	}

	var key ed25519.PrivateKey
	if strings.TrimSpace(cfg.PrivateKey) == "" {
		publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return fmt.Errorf("generate keypair: %w", err)
		}
		key = privateKey
		fmt.Fprintf(out, "public key:  %s\n", auth.EncodeKey(publicKey))
		fmt.Fprintf(out, "private key: %s\n", auth.EncodeKey(privateKey))
	} else {
		decoded, err := decodeKey(cfg.PrivateKey)
		if err != nil {
			return fmt.Errorf("decode private key: %w", err)
		}
		if len(decoded) != ed25519.PrivateKeySize {
			return fmt.Errorf("private key must be %d bytes", ed25519.PrivateKeySize)
		}
		key = ed25519.PrivateKey(decoded)
	}

	signed, err := auth.Mint(key, auth.MintInput{
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
		UserID:   cfg.UserID,
		TTL:      cfg.TTL,
	})
	if err != nil {
		return fmt.Errorf("mint token: %w", err)
	}
	fmt.Fprintln(out, signed)
	return nil
}

func decodeKey(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if decoded, err := base64.StdEncoding.DecodeString(value); err == nil {
		return decoded, nil
	}
	return base64.RawStdEncoding.DecodeString(value)
}
