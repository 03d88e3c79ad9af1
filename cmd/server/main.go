package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	applicationhandler "access-portal/internal/application/handler"
	applicationrepo "access-portal/internal/application/repository"
	applicationservice "access-portal/internal/application/service"
	"access-portal/internal/audit"
	audithandler "access-portal/internal/audit/handler"
	auditrepo "access-portal/internal/audit/repository"
	authhandler "access-portal/internal/auth/handler"
	authservice "access-portal/internal/auth/service"
	blocklisthandler "access-portal/internal/blocklist/handler"
	blocklistrepo "access-portal/internal/blocklist/repository"
	cataloghandler "access-portal/internal/catalog/handler"
	catalogrepo "access-portal/internal/catalog/repository"
	"access-portal/internal/config"
	credentialhandler "access-portal/internal/credential/handler"
	credentialrepo "access-portal/internal/credential/repository"
	credentialservice "access-portal/internal/credential/service"
	"access-portal/internal/db"
	healthhandler "access-portal/internal/health/handler"
	"access-portal/internal/policy/engine"
	"access-portal/internal/security"
	"access-portal/internal/server"
	"access-portal/internal/server/middleware"
	otelsetup "access-portal/internal/telemetry/otel"
	userhandler "access-portal/internal/user/handler"
	userrepo "access-portal/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "access-portal", false)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}

	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	tokens := security.NewTokenProvider([]byte(cfg.DeviceTokenSecret), cfg.PortalTTL())
	hasher := security.NewHasher(cfg.BcryptCost)
	intake := engine.NewIntakeEvaluator()

	users := userrepo.NewPostgresRepository(pool)
	credentials := credentialrepo.NewPostgresRepository(pool)
	applications := applicationrepo.NewPostgresRepository(pool)
	catalog := catalogrepo.NewPostgresRepository(pool)
	blocklist := blocklistrepo.NewPostgresRepository(pool)
	auditLogs := auditrepo.NewPostgresRepository(pool)

	auditLog := audit.NewLogger(auditLogs, middleware.GetClientIP)

	credentialSvc := credentialservice.New(credentials, users, tokens, auditLog)
	applicationSvc := applicationservice.New(applications, users, catalog, blocklist, intake, hasher, auditLog)
	authSvc := authservice.New(users, hasher, tokens, auditLog)

	router := server.NewRouter(server.Deps{
		Tokens:          tokens,
		Auth:            authhandler.New(authSvc),
		Credentials:     credentialhandler.New(credentialSvc, users, catalog, auditLog),
		Application:     applicationhandler.New(applicationSvc),
		Catalog:         cataloghandler.New(catalog, auditLog),
		Users:           userhandler.New(users, auditLog),
		Blocklist:       blocklisthandler.New(blocklist, auditLog),
		Audit:           audithandler.New(auditLogs),
		Health:          healthhandler.New(pool, intake),
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateWindow(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("http server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down http server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("http server stopped")
}
