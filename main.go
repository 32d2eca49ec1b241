package main

import (
	"fmt"
	"os"

	"fintrack/pkg/config"
	"fintrack/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	cfg       config.Config
	jwtSecret []byte
	log       zerolog.Logger
)

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.Server.LogJSON {
		log = logger.NewJSON(cfg.Server.LogLevel)
	} else {
		log = logger.New(cfg.Server.LogLevel)
	}
	jwtSecret = []byte(cfg.Auth.JWTSecret)
	decimal.MarshalJSONWithoutQuotes = true

	// `fintrack migrate` runs AutoMigrate and seeding then exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := initDB(); err != nil {
			log.Fatal().Err(err).Msg("migrate")
		}
		fmt.Println("migration and seeding completed")
		return
	}

	if err := initDB(); err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	if err := initServices(newGormStore()); err != nil {
		log.Fatal().Err(err).Msg("services")
	}

	gin.SetMode(cfg.Server.Mode)
	r := newRouter()
	log.Info().Str("port", cfg.Server.Port).Msg("fintrack listening")
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(requestIDMiddleware(), requestLogger(), gin.Recovery(), corsMiddleware())
	setupRoutes(r)
	return r
}
