package main

import (
	"log"

	"isce/config"
	"isce/controllers"
	"isce/db"
	"isce/router"
	"isce/tools"
	"isce/workers"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env é opcional: em produção as variáveis vêm do ambiente.
	_ = godotenv.Load()

	cfg := config.Get("config.json")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	database, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("falha ao conectar no banco", zap.Error(err))
	}
	defer database.Close()

	if cfg.SeedSuperAdmin {
		if err := db.SeedSuperAdmin(database); err != nil {
			logger.Fatal("falha ao criar o super admin", zap.Error(err))
		}
	}

	mailer := &tools.SMTPMailer{
		Host:     cfg.Smtp.Host,
		Port:     cfg.Smtp.Port,
		Username: cfg.Smtp.User,
		Password: cfg.Smtp.Pass,
		From:     cfg.Smtp.From,
	}

	cleaner := workers.StartTokenCleaner(database, logger)
	defer cleaner.Stop()

	r := gin.New()
	r.Use(db.SetDBtoContext(database))
	r.Use(controllers.SetDepsToContext(cfg, mailer, logger))
	router.Initialize(r, logger)

	logger.Info("ISCE backend no ar", zap.String("port", cfg.ApiPort))
	if err := r.Run(":" + cfg.ApiPort); err != nil {
		logger.Fatal("servidor encerrou com erro", zap.Error(err))
	}
}
