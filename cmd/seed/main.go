// Command seed populates the database with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"davra/internal/config"
	"davra/internal/crypto"
	"davra/internal/database"
	"davra/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	cipher, err := crypto.NewCipher(cfg.CredentialKey)
	if err != nil {
		log.Fatalf("Failed to initialize credential cipher: %v", err)
	}

	s := seed.NewSeeder(db, cipher)
	if err := s.Seed(context.Background(), seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		ShouldClean: *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users and %d posts (password for all accounts: %s)", *numUsers, *numPosts, seed.DefaultPassword)
}
