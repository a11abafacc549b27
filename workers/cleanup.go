package workers

import (
	"isce/controllers"

	"github.com/jinzhu/gorm"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StartTokenCleaner agenda a purga horária de tokens de dispositivo
// expirados e nunca usados. A mesma rotina fica exposta ao super admin
// para disparo manual.
func StartTokenCleaner(db *gorm.DB, logger *zap.Logger) *cron.Cron {
	c := cron.New()

	c.AddFunc("@hourly", func() {
		deleted, err := controllers.CleanupExpiredDeviceTokens(db)
		if err != nil {
			logger.Error("limpeza de tokens falhou", zap.Error(err))
			return
		}
		if deleted > 0 {
			logger.Info("tokens expirados removidos", zap.Int64("deleted", deleted))
		}
	})

	c.Start()
	return c
}
