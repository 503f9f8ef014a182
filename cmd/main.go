package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/claims-portal/internal/auth"
	"github.com/ukydev/claims-portal/internal/claims"
	"github.com/ukydev/claims-portal/internal/config"
	"github.com/ukydev/claims-portal/internal/db"
	"github.com/ukydev/claims-portal/internal/handlers"
	"github.com/ukydev/claims-portal/internal/middleware"
	"github.com/ukydev/claims-portal/internal/notify"
)

// newRouter wires the claim API behind the request logger.
func newRouter(service handlers.ClaimService, maxUploadBytes int64, authMiddleware *middleware.AuthMiddleware) http.Handler {
	mux := http.NewServeMux()
	handlers.NewClaimHandler(service, maxUploadBytes).RegisterRoutes(mux, authMiddleware)
	return middleware.RequestLogger(mux)
}

// newAuthMiddleware returns a guard that is disabled when no secret is set.
func newAuthMiddleware(secret string) (*middleware.AuthMiddleware, error) {
	if secret == "" {
		return middleware.NewAuthMiddleware(nil), nil
	}
	authService, err := auth.NewService(secret, 0)
	if err != nil {
		return nil, err
	}
	return middleware.NewAuthMiddleware(authService), nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	cfg.ConfigureLogging()

	ctx := context.Background()
	store, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoTimeout)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	if err := store.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Fatal("Failed to create indexes")
	}
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	opts := []claims.Option{}
	if cfg.MQTTBroker != "" {
		client, err := notify.ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MongoTimeout)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to MQTT broker")
		}
		defer func(c mqtt.Client) { c.Disconnect(250) }(client)
		opts = append(opts, claims.WithNotifier(notify.NewMQTTNotifier(client, cfg.MQTTTopic, 5*time.Second)))
	}

	authMiddleware, err := newAuthMiddleware(cfg.JWTSecret)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure authentication")
	}

	service := claims.NewService(store.Claims(), opts...)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(service, cfg.MaxUploadBytes, authMiddleware),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(log.Fields{
			"port":         cfg.Port,
			"auth_enabled": authMiddleware.Enabled(),
			"notify":       cfg.MQTTBroker != "",
		}).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
