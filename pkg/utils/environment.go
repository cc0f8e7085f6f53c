package utils

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig reads <path>/.env into the process environment, without
// overriding variables that are already set, and lets viper resolve keys
// from the environment.
func LoadConfig(path string) {
	envFile := filepath.Join(path, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.Warnf("[CONFIG] Failed to load %s: %v", envFile, err)
	}

	viper.AutomaticEnv()
}
