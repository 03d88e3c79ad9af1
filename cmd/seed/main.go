// seed bootstraps the service catalog and, when ADMIN_EMAIL and
// ADMIN_PASSWORD are set, the first admin account. Idempotent: existing
// services and accounts are left untouched, so it is safe to run on every
// deploy.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	catalogdomain "access-portal/internal/catalog/domain"
	catalogrepo "access-portal/internal/catalog/repository"
	"access-portal/internal/config"
	"access-portal/internal/db"
	"access-portal/internal/security"
	userdomain "access-portal/internal/user/domain"
	userrepo "access-portal/internal/user/repository"
)

// defaultServices is the initial catalog offered on the application form.
var defaultServices = map[string]string{
	"minecraft": "Minecraft Server",
	"media":     "Media Server",
	"nextcloud": "Nextcloud",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env or set DATABASE_URL")
	}

	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()
	catalog := catalogrepo.NewPostgresRepository(pool)
	users := userrepo.NewPostgresRepository(pool)

	for code, name := range defaultServices {
		existing, err := catalog.GetService(ctx, code)
		if err != nil {
			log.Fatalf("seed catalog: %v", err)
		}
		if existing != nil {
			continue
		}
		svc := &catalogdomain.Service{Code: code, Name: name, CreatedAt: time.Now().UTC()}
		if err := catalog.CreateService(ctx, svc); err != nil {
			log.Fatalf("seed catalog: %v", err)
		}
		log.Printf("seeded service %s", code)
	}

	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set; skipping admin bootstrap")
		return
	}

	admins, err := users.CountByRole(ctx, userdomain.RoleAdmin)
	if err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if admins > 0 {
		log.Println("admin account already exists; skipping admin bootstrap")
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	hash, err := hasher.Hash([]byte(cfg.AdminPassword))
	if err != nil {
		log.Fatalf("hash admin password: %v", err)
	}
	admin := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        cfg.AdminEmail,
		Name:         "Administrator",
		Role:         userdomain.RoleAdmin,
		PasswordHash: hash,
		Status:       userdomain.UserStatusActive,
		CreatedAt:    time.Now().UTC(),
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	log.Printf("seeded admin account %s", cfg.AdminEmail)
}
