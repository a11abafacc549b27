package controllers

import (
	"isce/config"
	"isce/tools"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const cfgKey = "cfg"
const mailerKey = "mailer"
const loggerKey = "logger"

// SetDepsToContext injeta config, mailer e logger em toda requisição,
// no mesmo esquema do db/context.go. É a única forma dos controllers
// enxergarem essas dependências; nada de os.Getenv aqui dentro.
func SetDepsToContext(cfg config.Configuration, mailer tools.Mailer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(cfgKey, cfg)
		c.Set(mailerKey, mailer)
		c.Set(loggerKey, logger)
		c.Next()
	}
}

func ConfigInstance(c *gin.Context) config.Configuration {
	v, ok := c.Get(cfgKey)
	if !ok {
		return config.Configuration{}
	}
	cfg, _ := v.(config.Configuration)
	return cfg
}

func MailerInstance(c *gin.Context) tools.Mailer {
	v, ok := c.Get(mailerKey)
	if !ok {
		return nil
	}
	m, _ := v.(tools.Mailer)
	return m
}

func LoggerInstance(c *gin.Context) *zap.Logger {
	v, ok := c.Get(loggerKey)
	if !ok {
		return zap.NewNop()
	}
	l, _ := v.(*zap.Logger)
	if l == nil {
		return zap.NewNop()
	}
	return l
}
