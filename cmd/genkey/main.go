package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jessevdk/go-flags"

	"rolebot/middleware"
)

type Options struct {
	PrivateKey string `long:"private-key" env:"INTERACTION_PRIVATE_KEY" description:"Hex Ed25519 private key (64 bytes) used to sign; a new key pair is generated when empty"`
	BodyFile   string `long:"body" description:"File with the interaction payload to sign, '-' reads stdin"`
	Timestamp  string `long:"timestamp" description:"Signature timestamp, defaults to the current unix time"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts Options, stdin io.Reader, out io.Writer) error {
	privateKey, generated, err := resolvePrivateKey(opts.PrivateKey)
	if err != nil {
		return err
	}

	publicKey := privateKey.Public().(ed25519.PublicKey)
	if generated {
		fmt.Fprintf(out, "INTERACTION_PRIVATE_KEY=%s\n", hex.EncodeToString(privateKey))
	}
	fmt.Fprintf(out, "DISCORD_PUBLIC_KEY=%s\n", hex.EncodeToString(publicKey))

	if opts.BodyFile == "" {
		return nil
	}

	body, err := readBody(opts.BodyFile, stdin)
	if err != nil {
		return err
	}

	timestamp := opts.Timestamp
	if timestamp == "" {
		timestamp = strconv.FormatInt(time.Now().Unix(), 10)
	}

	fmt.Fprintf(out, "%s: %s\n", middleware.SignatureHeader, sign(privateKey, timestamp, body))
	fmt.Fprintf(out, "%s: %s\n", middleware.TimestampHeader, timestamp)
	return nil
}

func resolvePrivateKey(privateKeyHex string) (ed25519.PrivateKey, bool, error) {
	if privateKeyHex == "" {
		_, privateKey, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, false, fmt.Errorf("failed to generate key pair: %w", err)
		}
		return privateKey, true, nil
	}

	raw, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, false, fmt.Errorf("private key is not valid hex: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, false, fmt.Errorf("private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	return ed25519.PrivateKey(raw), false, nil
}

func readBody(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		body, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read body from stdin: %w", err)
		}
		return body, nil
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read body file: %w", err)
	}
	return body, nil
}

// sign produces the hex signature over timestamp || body
func sign(privateKey ed25519.PrivateKey, timestamp string, body []byte) string {
	message := append([]byte(timestamp), body...)
	return hex.EncodeToString(ed25519.Sign(privateKey, message))
}
