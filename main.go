package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"astrapilot/internal/ai"
	"astrapilot/internal/config"
	"astrapilot/internal/db"
	"astrapilot/internal/email"
	httpapi "astrapilot/internal/http"
	"astrapilot/internal/license"
	"astrapilot/internal/otp"
	"astrapilot/internal/plans"
	"astrapilot/internal/seo"
	"astrapilot/internal/services"
)

func main() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Printf("load .env failed: %v", err)
		}
	} else if err != nil && !os.IsNotExist(err) {
		log.Printf("stat .env failed: %v", err)
	}

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	svc := services.New(pool, cfg)

	emailClient := email.NewClient(cfg.ResendAPIKey, cfg.EmailFrom)
	if !emailClient.IsConfigured() {
		log.Printf("[INFO] Resend API key not set, verification emails disabled")
	}

	licenses := license.NewManager(svc, plans.Default())
	otps := otp.NewManager(svc, emailClient, cfg.OTPExpiry(), cfg.OTPLength)

	aiClient := ai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if !aiClient.IsConfigured() {
		log.Printf("[INFO] OpenAI API key not set, AI recommendations disabled")
	}

	server := httpapi.NewServer(svc, licenses, otps, seo.NewAnalyzer(), aiClient, cfg)
	httpServer := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: server.Routes(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.ServerAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
}
