package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oncp/resolution-mcp/internal/api"
	"github.com/oncp/resolution-mcp/internal/api/routes"
	"github.com/oncp/resolution-mcp/internal/client"
	"github.com/oncp/resolution-mcp/internal/config"
	"github.com/oncp/resolution-mcp/internal/mcpserver"
	"github.com/oncp/resolution-mcp/internal/tools"
	"github.com/oncp/resolution-mcp/internal/utils"
)

const shutdownGrace = 5 * time.Second

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the MCP SSE gateway",
	Long: `Starts the MCP SSE server and proxies the resolution tools to the
downstream resolution service configured via RESOLUTION_SERVICE_URL.`,
	RunE: run,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.ValidateEnv()
	if err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	cfg.Print(log.Printf)

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	resolutionClient := client.New(client.Config{
		BaseURL: cfg.ResolutionServiceURL,
		Timeout: cfg.Timeout(),
	}, logger)
	defer resolutionClient.Close()

	mcpSrv := mcpserver.New(cfg.MCPSSEPort, tools.Deps{
		Client: resolutionClient,
		Logger: logger,
	})

	gateway := api.NewApi()
	routes.RegisterAPI(gateway.Api)
	gateway.Router.Handle("/sse", mcpSrv.SSE.SSEHandler())
	gateway.Router.Handle("/message", mcpSrv.SSE.MessageHandler())

	addr := fmt.Sprintf(":%d", cfg.MCPSSEPort)
	srv := &http.Server{
		Addr:    addr,
		Handler: gateway.Router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	log.Printf("🚀 MCP SSE server ready at http://localhost:%d/sse\n", cfg.MCPSSEPort)
	return serveUntilSignal(srv, logger, quit)
}

// serveUntilSignal runs srv until it fails or a shutdown signal arrives.
// Serve failures are returned rather than fatal-logged so the caller's
// deferred cleanups (client release, logger sync) still run.
func serveUntilSignal(srv *http.Server, logger *zap.Logger, quit <-chan os.Signal) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
		logger.Info("shutdown requested")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	logger.Info("server shutdown complete")
	return nil
}

func newLogger() (*zap.Logger, error) {
	if utils.IsProd() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
