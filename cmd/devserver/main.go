package main

import (
	"os"
	"os/signal"
	"syscall"

	"storefront-realtime/internal/config"
	"storefront-realtime/internal/devserver"
	"storefront-realtime/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	logger.Init(cfg.Log.Level, cfg.Log.MaxEntries)

	if cfg.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	hub := devserver.NewHub()
	tokens := devserver.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpirationHours)
	r := devserver.BuildRouter(cfg, hub, tokens)

	logrus.WithField("port", cfg.Server.Port).Info("starting realtime dev server")

	go func() {
		if err := r.Run(":" + cfg.Server.Port); err != nil {
			logrus.WithError(err).Fatal("server start failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down")
	hub.Shutdown()
	logrus.Info("server stopped")
}
