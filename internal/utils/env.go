package utils

import (
	"os"
	"strings"
)

// IsProd reports whether ENVIRONMENT names a production deployment.
func IsProd() bool {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	return env == "production" || env == "prod"
}

// IsDev reports whether ENVIRONMENT names a development deployment.
// An unset variable counts as development.
func IsDev() bool {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	return env == "development" || env == "dev" || env == ""
}

// GetEnvironment returns the configured environment name, defaulting to
// "development".
func GetEnvironment() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		return "development"
	}
	return env
}
