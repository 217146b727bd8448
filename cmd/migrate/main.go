// Command migrate brings the database schema up to date and optionally seeds the first
// OWNER account.
package main

import (
	"errors"
	"flag"
	"log"
	"strings"

	"tutorhub/config"
	"tutorhub/database"
	"tutorhub/models"
	"tutorhub/utils"

	"gorm.io/gorm"
)

func main() {
	seed := flag.Bool("seed", false, "create the OWNER account from SEED_OWNER_EMAIL and SEED_OWNER_PASSWORD")
	flag.Parse()

	config.LoadConfig()
	db, err := database.Open(config.AppConfig)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", config.AppConfig.DBDriver, err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if *seed {
		if err := seedOwner(db, config.AppConfig); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
	}
}

// seedOwner is idempotent: an existing account with the seed email is left untouched.
func seedOwner(db *gorm.DB, cfg *config.Config) error {
	email := strings.ToLower(strings.TrimSpace(cfg.SeedOwnerEmail))
	if email == "" || cfg.SeedOwnerPassword == "" {
		return errors.New("SEED_OWNER_EMAIL and SEED_OWNER_PASSWORD must be set")
	}

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		log.Printf("Owner %s already exists (id %d, role %s)", email, existing.ID, existing.Role)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := utils.HashPassword(cfg.SeedOwnerPassword, cfg.SaltRound)
	if err != nil {
		return err
	}
	owner := models.User{Name: "Owner", Email: email, Role: models.RoleOwner, Password: hashed}
	if err := db.Create(&owner).Error; err != nil {
		return err
	}
	log.Printf("Created owner %s (id %d)", email, owner.ID)
	return nil
}
