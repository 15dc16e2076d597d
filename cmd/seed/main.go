package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-ddd-identity/config"
	"github.com/oksasatya/go-ddd-identity/internal/domain/entity"
	"github.com/oksasatya/go-ddd-identity/internal/domain/event"
	"github.com/oksasatya/go-ddd-identity/internal/domain/repository"
	vo "github.com/oksasatya/go-ddd-identity/internal/domain/valueobject"
	pginfra "github.com/oksasatya/go-ddd-identity/internal/infrastructure/postgres"
	"github.com/oksasatya/go-ddd-identity/internal/infrastructure/security"
)

// seed creates an active, verified ADMIN, or promotes the existing user with
// that email.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	emailFlag := flag.String("email", "admin@example.com", "admin email")
	passwordFlag := flag.String("password", "Admin123!", "admin password (only used when the user is created)")
	firstName := flag.String("first-name", "Admin", "first name")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), 2, 1, time.Minute)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	repo := pginfra.NewUserRepository(pool)

	email, err := vo.NewEmail(*emailFlag)
	if err != nil {
		log.Fatalf("invalid email: %v", err)
	}
	now := time.Now().UTC()

	u, err := repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		password, err := vo.NewPassword(*passwordFlag)
		if err != nil {
			log.Fatalf("invalid password: %v", err)
		}
		hash, err := security.NewBcryptPasswordService(cfg.BcryptCost).Hash(password)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}
		u, _ = entity.Register(entity.RegisterParams{Email: email, FirstName: *firstName, Role: vo.RoleAdmin}, now)
		if _, err := u.VerifyEmail(now); err != nil {
			log.Fatalf("verify: %v", err)
		}
		if err := repo.Save(ctx, u); err != nil {
			log.Fatalf("failed to seed user: %v", err)
		}
		if err := repo.SaveCredential(ctx, repository.Credential{UserID: u.ID(), Provider: vo.ProviderLocal, Secret: hash}); err != nil {
			log.Fatalf("failed to store credential: %v", err)
		}
		fmt.Printf("seeded admin: id=%s email=%s password=%s\n", u.ID(), email, *passwordFlag)
	case err != nil:
		log.Fatalf("lookup failed: %v", err)
	default:
		promote(u, now)
		if err := repo.Save(ctx, u); err != nil {
			log.Fatalf("failed to promote user: %v", err)
		}
		fmt.Printf("promoted existing user to admin: id=%s email=%s\n", u.ID(), email)
	}
}

// promote makes u an active, verified admin. Domain events are not
// published from the seeder.
func promote(u *entity.User, now time.Time) {
	var events []event.Event
	if !u.Role().IsAdmin() {
		events = append(events, u.ChangeRole(vo.RoleAdmin, now)...)
	}
	if !u.EmailVerified() {
		verified, _ := u.VerifyEmail(now)
		events = append(events, verified...)
	}
	if !u.Status().IsActive() {
		activated, _ := u.Activate(now)
		events = append(events, activated...)
	}
	log.Printf("applied %d changes", len(events))
}
