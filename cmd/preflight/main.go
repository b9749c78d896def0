package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/supabase-preflight/internal/application"
	"github.com/eugenenazirov/supabase-preflight/internal/config"
	"github.com/eugenenazirov/supabase-preflight/internal/console"
	"github.com/eugenenazirov/supabase-preflight/internal/logging"
	"github.com/eugenenazirov/supabase-preflight/internal/preflight"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("preflight", "Supabase deployment preflight - verifies backend connectivity and frontend configuration")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	envFile := kingpinApp.Flag("env-file", "Path to the .env settings file (default: nearest .env up from the working directory)").String()
	logLevel := kingpinApp.Flag("log-level", "Diagnostic log level (debug, info, warn, error)").String()
	readTimeout := kingpinApp.Flag("read-timeout", "Timeout for the read probe").Default("0s").Duration()
	strict := kingpinApp.Flag("strict", "Exit with status 1 when any check fails").Bool()

	kingpinApp.Command("check", "Run the checks once and print the report").Default()

	serveCmd := kingpinApp.Command("serve", "Expose the checks as HTTP readiness endpoints")
	port := serveCmd.Flag("port", "HTTP port exposed by the readiness server").String()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}

	if *envFile != "" {
		overrides.EnvFile = envFile
	}

	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}

	if *readTimeout > 0 {
		overrides.ReadTimeout = readTimeout
	}

	if *strict {
		overrides.Strict = strict
	}

	if *port != "" {
		overrides.Port = port
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	isServe := command == serveCmd.FullCommand()
	logger, err := logging.New(resolveLogLevel(cfg.LogLevel, isServe))
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	if isServe {
		defer func() {
			_ = logger.Sync()
		}()

		app := application.New(cfg, logger)
		if err := app.Start(); err != nil {
			logger.Fatal("failed to start server", zap.Error(err))
		}

		shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
		return
	}

	code := runCheck(cfg, logger, os.Stdout)
	_ = logger.Sync()
	os.Exit(code)
}

// resolveLogLevel keeps the one-shot report readable by hiding info logs unless asked for.
func resolveLogLevel(configured string, serve bool) string {
	if configured != "" {
		return configured
	}
	if serve {
		return "info"
	}
	return "warn"
}

func runCheck(cfg config.Config, logger *zap.Logger, stdout io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report := application.NewRunner(cfg, logger).Run(ctx, console.New(stdout))
	logger.Debug("check finished",
		zap.Bool("ready", report.Ready),
		zap.Bool("connectivity", report.Connectivity.OK),
		zap.Bool("frontend", report.Frontend.OK),
	)
	return exitCode(report, cfg.StrictExit)
}

// exitCode is 0 unless strict mode is on and the report is not ready.
func exitCode(report preflight.Report, strict bool) int {
	if strict && !report.Ready {
		return 1
	}
	return 0
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down readiness server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
