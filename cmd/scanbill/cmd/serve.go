package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/scanbill/scanbill/internal/pipeline"
	"github.com/scanbill/scanbill/internal/server"
	"github.com/scanbill/scanbill/internal/version"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the digitization API",
	Long: `Start an HTTP server that provides REST API endpoints for document
digitization.

The server provides the following endpoints:
  POST /scan       - Digitize one uploaded document
  POST /scan/batch - Digitize a JSON batch of documents
  GET  /ws         - WebSocket scanning with status updates
  GET  /health     - Health check endpoint
  GET  /info       - Pipeline properties and statistics
  GET  /metrics    - Prometheus metrics

Examples:
  scanbill serve
  scanbill serve --port 8080
  scanbill serve --host 0.0.0.0 --port 3000 --rate-limit-enabled`,
	RunE: runServeCommand,
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	applyPipelineFlags(cfg, cmd)

	host := cfg.Server.Host
	if cmd.Flags().Changed("host") {
		host, _ = cmd.Flags().GetString("host")
	}

	port := cfg.Server.Port
	if cmd.Flags().Changed("port") {
		port, _ = cmd.Flags().GetInt("port")
	}

	corsOrigin := cfg.Server.CORSOrigin
	if cmd.Flags().Changed("cors-origin") {
		corsOrigin, _ = cmd.Flags().GetString("cors-origin")
	}

	maxUploadMB := cfg.Server.MaxUploadMB
	if cmd.Flags().Changed("max-upload-size") {
		maxUploadMB, _ = cmd.Flags().GetInt("max-upload-size")
	}

	timeout := cfg.Server.TimeoutSec
	if cmd.Flags().Changed("timeout") {
		timeout, _ = cmd.Flags().GetInt("timeout")
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if cmd.Flags().Changed("shutdown-timeout") {
		shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
	}

	var rateLimit *server.RateLimitConfig
	if enabled, _ := cmd.Flags().GetBool("rate-limit-enabled"); enabled {
		rpm, _ := cmd.Flags().GetInt("requests-per-minute")
		maxData, _ := cmd.Flags().GetInt64("max-data-per-day")
		rateLimit = &server.RateLimitConfig{
			RequestsPerMinute: rpm,
			MaxDataPerDay:     maxData,
		}
	}

	builder, err := cfg.NewPipelineBuilder()
	if err != nil {
		return fmt.Errorf("invalid pipeline configuration: %w", err)
	}
	pl, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	serverConfig := server.Config{
		Host:            host,
		Port:            port,
		CORSOrigin:      corsOrigin,
		MaxUploadMB:     int64(maxUploadMB),
		TimeoutSec:      timeout,
		ShutdownTimeout: shutdownTimeout,
		Options: pipeline.Options{
			MaxRetries:          cfg.Pipeline.Options.MaxRetries,
			TimeoutMs:           cfg.Pipeline.Options.TimeoutMs,
			EnablePreprocessing: cfg.Pipeline.Options.EnablePreprocessing,
		},
		RateLimit: rateLimit,
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	scanServer := server.New(serverConfig, pl)
	defer func() { _ = scanServer.Close() }()

	mux := http.NewServeMux()
	scanServer.SetupRoutes(mux)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(timeout) * time.Second,
		WriteTimeout:      time.Duration(timeout) * time.Second,
	}

	go func() {
		slog.Info("Starting scan server", "host", host, "port", port, "version", version.String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		slog.Info("Context cancelled, initiating shutdown")
	}

	slog.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", shutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(shutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := scanServer.Close(); err != nil {
		slog.Error("Server cleanup error", "error", err)
	}

	slog.Info("Graceful shutdown completed")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("max-upload-size", 50, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 120, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")

	// Rate limiting flags
	serveCmd.Flags().Bool("rate-limit-enabled", false, "enable rate limiting")
	serveCmd.Flags().Int("requests-per-minute", 60, "maximum requests per minute per client")
	serveCmd.Flags().Int64("max-data-per-day", 100*1024*1024, "maximum data processed per day per client (bytes)")
}
