// Package main provides a CLI tool for generating development tokens for the
// laurel API. The defaults match the server's dev fallbacks and will NOT work
// against a production deployment.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"laurel/internal/access/token"
	id "laurel/pkg/domain"
)

const (
	// Dev signing key - matches config.go when TOKEN_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	defaultIssuer   = "laurel"
	defaultAudience = "laurel"
	defaultTokenTTL = 15 * time.Minute
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in,omitempty"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	accessCmd := flag.NewFlagSet("access", flag.ExitOnError)
	adminCmd := flag.NewFlagSet("admin", flag.ExitOnError)

	accessUserID := accessCmd.String("user-id", "", "User ID (UUID). Generated if empty.")
	accessKey := accessCmd.String("signing-key", devSigningKey, "Token signing key (must match TOKEN_SIGNING_KEY)")
	accessTTL := accessCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	accessJSON := accessCmd.Bool("json", false, "Output as JSON")

	adminToken := adminCmd.String("token", "", "Admin token to hash. Generated if empty.")
	adminJSON := adminCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "access":
		accessCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		generateAccessToken(*accessUserID, *accessKey, *accessTTL, *accessJSON)
	case "admin":
		adminCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		generateAdminToken(*adminToken, *adminJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate development tokens for the laurel API

WARNING: The default signing key is the server's dev fallback and will NOT
         work in production. Only use for local development and testing.

Usage:
  tokengen <command> [flags]

Commands:
  access    Generate a bearer token (JWT) for a user
  admin     Generate an admin token and its bcrypt hash

Examples:
  # Bearer token for a fresh user ID
  tokengen access

  # Bearer token for the user you bootstrapped as super admin
  tokengen access -user-id "550e8400-e29b-41d4-a716-446655440000"

  # Token with a longer lifetime
  tokengen access -ttl 1h

  # Admin token pair: export the hash, send the token in X-Admin-Token
  tokengen admin

  # Output as JSON
  tokengen access -json

Use "tokengen <command> -h" for more information about a command.`)
}

func generateAccessToken(userID, signingKey string, ttl time.Duration, jsonOutput bool) {
	uid := parseOrGenerateUserID(userID)

	svc := token.NewService(signingKey, defaultIssuer, defaultAudience, ttl)

	bearer, jti, err := svc.GenerateAccessTokenWithJTI(context.Background(), uid)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     bearer,
			Type:      "access_token",
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"user_id": uid.String(),
				"jti":     jti,
			},
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		})
		return
	}

	fmt.Println("Access Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("Expires In: %s\n", ttl)
	fmt.Printf("User ID:    %s\n", uid)
	fmt.Printf("JTI:        %s\n", jti)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(bearer)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/...")
	fmt.Println()
	fmt.Println("The user needs a role before governance calls succeed:")
	fmt.Printf("  POST /admin/access/bootstrap {\"user_id\": %q}\n", uid)
}

func generateAdminToken(raw string, jsonOutput bool) {
	if raw == "" {
		buf := make([]byte, 24)
		if _, err := rand.Read(buf); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
			os.Exit(1)
		}
		raw = hex.EncodeToString(buf)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token: raw,
			Type:  "admin_token",
			Claims: map[string]any{
				"bcrypt_hash": string(hash),
			},
			Usage: map[string]string{
				"header": "X-Admin-Token: <token>",
				"server": "ADMIN_TOKEN_HASH=<bcrypt_hash>",
			},
		})
		return
	}

	fmt.Println("Admin Token")
	fmt.Println("===========")
	fmt.Println("Token (send in X-Admin-Token header):")
	fmt.Println(raw)
	fmt.Println()
	fmt.Println("Hash (set on the server):")
	fmt.Printf("  export ADMIN_TOKEN_HASH='%s'\n", hash)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"X-Admin-Token: <token>\" -H \"X-Admin-Actor-ID: <your-uuid>\" http://localhost:8080/admin/access/...")
}

func parseOrGenerateUserID(s string) id.UserID {
	if s == "" {
		return id.UserID(uuid.New())
	}
	uid, err := id.ParseUserID(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid user-id %q: %v\n", s, err)
		os.Exit(1)
	}
	return uid
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
		os.Exit(1)
	}
}
