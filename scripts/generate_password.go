// Prints a bcrypt hash for a seed password and, optionally, an access token
// for local API calls.
//
//	go run scripts/generate_password.go <password> [user_id email role]
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/your-org/fitness-backend/internal/config"
	"github.com/your-org/fitness-backend/internal/pkg/auth"
)

func main() {
	if len(os.Args) != 2 && len(os.Args) != 5 {
		log.Fatal("Usage: go run scripts/generate_password.go <password> [user_id email role]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	password := os.Args[1]
	hash, err := auth.HashPassword(password, cfg.Security.BcryptCost)
	if err != nil {
		log.Fatal("Error generating hash:", err)
	}
	if err := auth.VerifyPassword(password, hash); err != nil {
		log.Fatal("Hash verification failed:", err)
	}

	fmt.Printf("Password: %s\n", password)
	fmt.Printf("Hash: %s\n", hash)

	if len(os.Args) == 5 {
		userID, err := strconv.ParseUint(os.Args[2], 10, 32)
		if err != nil || userID == 0 {
			log.Fatalf("Invalid user id: %s", os.Args[2])
		}

		token, err := auth.NewJWTManager(cfg).GenerateAccessToken(uint(userID), os.Args[3], os.Args[4])
		if err != nil {
			log.Fatal("Error generating token:", err)
		}
		fmt.Printf("Access token (%s): %s\n", cfg.JWT.AccessTokenExpiry, token)
	}
}
