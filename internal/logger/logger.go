package logger

import (
	"os"
	"strings"

	"github.com/segyhp/invoice-followups/internal/config"

	"github.com/sirupsen/logrus"
)

// New builds the application logger from the logging section of the config
func New(cfg config.LoggingConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(cfg.Format, "text") {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	return log
}
