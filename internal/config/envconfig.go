package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/oncp/resolution-mcp/internal/utils"
)

type EnvConfig struct {
	ResolutionServiceURL string  `envconfig:"RESOLUTION_SERVICE_URL" required:"true"`
	APITimeout           float64 `envconfig:"API_TIMEOUT" default:"30"`
	MCPSSEPort           int     `envconfig:"MCP_SSE_PORT" default:"8000"`
	Environment          string  `envconfig:"ENVIRONMENT" default:"development"`
}

func ValidateEnv() (*EnvConfig, error) {
	if utils.IsDev() {
		if err := godotenv.Load(); err != nil {
			log.Println("ℹ No .env file found")
		} else {
			log.Println("✓ Loaded .env file")
		}
	}

	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg.ResolutionServiceURL = strings.TrimSpace(cfg.ResolutionServiceURL)

	var errors []string

	if cfg.ResolutionServiceURL == "" {
		errors = append(errors, "  ❌ RESOLUTION_SERVICE_URL is required but was not provided")
	} else if _, err := url.ParseRequestURI(cfg.ResolutionServiceURL); err != nil {
		errors = append(errors, "  ❌ RESOLUTION_SERVICE_URL must be a valid URL")
	}

	if cfg.APITimeout <= 0 {
		errors = append(errors, "  ❌ API_TIMEOUT must be greater than zero")
	}

	if cfg.MCPSSEPort <= 0 {
		errors = append(errors, "  ❌ MCP_SSE_PORT must be greater than zero")
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return &cfg, nil
}

// Timeout converts the configured timeout in seconds to a time.Duration.
func (c *EnvConfig) Timeout() time.Duration {
	return time.Duration(c.APITimeout * float64(time.Second))
}

func (c *EnvConfig) Print(fmtr func(string, ...interface{})) {
	fmtr("📋 Configuration:\n")
	fmtr("  Environment: %s\n", c.Environment)
	fmtr("  Resolution service: %s\n", c.ResolutionServiceURL)
	fmtr("  API timeout: %gs\n", c.APITimeout)
	fmtr("  MCP SSE port: %d\n", c.MCPSSEPort)
}
