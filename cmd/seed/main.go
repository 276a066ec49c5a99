// Command seed populates the database with demo data.
package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"chirp/internal/bootstrap"
	"chirp/internal/config"
	"chirp/internal/seed"
)

func main() {
	numAccounts := flag.Int("accounts", 50, "Number of random accounts to create")
	numPosts := flag.Int("posts", 200, "Number of random top-level posts to create")
	follows := flag.Int("follows", 8, "Follow attempts per account")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Log what would be created without writing")
	randSeed := flag.Int64("rand-seed", 0, "Seed for reproducible fake content (0 = clock)")
	preset := flag.String("preset", "", "Apply a built-in scenario ("+strings.Join(seed.PresetNames(), ", ")+")")
	scenario := flag.String("scenario", "", "Apply a YAML scenario file")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		RandSeed:          *randSeed,
		DryRun:            *dryRun,
		FollowsPerAccount: *follows,
	})

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	switch {
	case *preset != "" || *scenario != "":
		var sc *seed.Scenario
		if *scenario != "" {
			sc, err = seed.LoadScenario(*scenario)
		} else {
			sc, err = seed.Preset(*preset)
		}
		if err != nil {
			log.Fatalf("❌ Scenario load failed: %v", err)
		}
		res, err := s.ApplyScenario(ctx, sc)
		if err != nil {
			log.Fatalf("❌ Scenario seeding failed: %v", err)
		}
		for handle, id := range res.Accounts {
			log.Printf("  @%s -> account %d", handle, id)
		}
	default:
		log.Printf("Target: %d accounts, %d posts, clean=%v\n", *numAccounts, *numPosts, *shouldClean)
		accounts, err := s.SeedSocialMesh(ctx, *numAccounts)
		if err != nil {
			log.Fatalf("❌ Account seeding failed: %v", err)
		}
		if _, err := s.SeedEngagement(ctx, accounts, *numPosts); err != nil {
			log.Fatalf("❌ Engagement seeding failed: %v", err)
		}
	}

	log.Printf("✨ All done: %s", s.Stats())
	log.Println("🔑 Mint a bearer token with: go run ./cmd/admin token <account_id>")
}
