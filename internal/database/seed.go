package database

import (
	"errors"
	"log"
	"os"
	"strings"

	"posserver/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedAdmin bootstraps the initial admin account when it does not exist yet.
// Idempotent: safe to run at every startup.
func SeedAdmin(db *gorm.DB) error {
	email := os.Getenv("SEED_ADMIN_EMAIL")
	if email == "" {
		email = "admin@hotel.com"
	}
	email = strings.ToLower(email)

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}

	var existing model.User
	err := db.First(&existing, "email = ?", email).Error
	if err == nil {
		log.Println("Admin already exists:", email)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.User{
		Name:         "Admin",
		Email:        email,
		Role:         model.RoleAdmin,
		PasswordHash: string(hash),
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Println("Seeded admin user:", email)
	return nil
}
