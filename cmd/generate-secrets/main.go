package main

import (
	"fmt"
	"log"

	"github.com/smarttransit/flight-search-web/internal/utils"
)

func main() {
	fmt.Println("===========================================")
	fmt.Println("Secret Generator for flight search web")
	fmt.Println("===========================================")
	fmt.Println()

	cookieSecret, err := utils.GenerateSecret(32)
	if err != nil {
		log.Fatalf("Failed to generate cookie secret: %v", err)
	}
	ipSalt, err := utils.GenerateSecret(32)
	if err != nil {
		log.Fatalf("Failed to generate IP hash salt: %v", err)
	}

	fmt.Println("✅ Secrets generated successfully!")
	fmt.Println()
	fmt.Println("Add these to your .env file:")
	fmt.Println()
	fmt.Printf("COOKIE_SECRET=%s\n", cookieSecret)
	fmt.Printf("IP_HASH_SALT=%s\n", ipSalt)
	fmt.Println()
	fmt.Println("⚠️  IMPORTANT: Keep these secrets safe and never commit them to version control!")
	fmt.Println("===========================================")
}
