package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/maukemana/photocore/internal/bootstrap"
	"github.com/maukemana/photocore/internal/config"
	"github.com/maukemana/photocore/internal/dbstore"
	"github.com/maukemana/photocore/internal/repositories"
)

func main() {
	email := flag.String("email", "", "admin account email (required)")
	password := flag.String("password", "", "admin account password (required)")
	demoteOthers := flag.Bool("demote-others", false, "deactivate every other active admin account")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("seed: -email and -password are required")
	}

	ctx := context.Background()

	db, err := dbstore.Initialize(ctx, config.Database().DBStore())
	if err != nil {
		log.Fatalf("seed: connect to database: %v", err)
	}
	defer db.Close()

	users := repositories.NewUserRepository(db)
	if err := bootstrap.SeedAdmin(ctx, users, *email, *password, *demoteOthers); err != nil {
		log.Fatalf("seed: %v", err)
	}

	fmt.Printf("✓ admin account %s seeded\n", *email)
}
