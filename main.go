package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/docworks/ocrbridge/internal/client"
	"github.com/docworks/ocrbridge/internal/config"
	"github.com/docworks/ocrbridge/internal/pipeline"
	"github.com/docworks/ocrbridge/internal/server"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// parseLogLevel parses the LOG_LEVEL environment variable.
// Defaults to InfoLevel if not set or invalid.
func parseLogLevel() logrus.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))) {
	case "debug":
		return logrus.DebugLevel
	case "info", "":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

func main() {
	// Create context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional .env file; settings there are read through the normal
	// environment lookups.
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetLevel(parseLogLevel())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	app := &cli.Command{
		Name:    "ocrbridge",
		Usage:   "HTTP bridge around the PaddleOCR-VL document recognition pipeline",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file (environment variables take precedence)",
				Sources: cli.EnvVars("OCRBRIDGE_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the OCR HTTP API server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "host",
						Usage: "Host to bind the HTTP server to (overrides config)",
					},
					&cli.IntFlag{
						Name:  "port",
						Usage: "Port to bind the HTTP server to (overrides config)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := config.Load(cmd.String("config"))
					if err != nil {
						return err
					}
					if host := cmd.String("host"); host != "" {
						cfg.Host = host
					}
					if port := cmd.Int("port"); port > 0 {
						cfg.Port = int(port)
					}
					return runServe(ctx, cfg, logger)
				},
			},
			{
				Name:  "submit",
				Usage: "Submit files to the OCR API and save results to disk",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Directory containing files to process (overrides config)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Directory to save results to (overrides config)",
					},
					&cli.StringFlag{
						Name:  "api-url",
						Usage: "OCR API URL for single-file calls (overrides config)",
					},
					&cli.BoolFlag{
						Name:  "no-batch",
						Usage: "Submit files one call at a time instead of a single batch call",
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Keep watching the input directory and submit new files as they appear",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Per-call HTTP timeout (overrides config)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := config.Load(cmd.String("config"))
					if err != nil {
						return err
					}
					if dir := cmd.String("input"); dir != "" {
						cfg.InputDir = dir
					}
					if dir := cmd.String("output"); dir != "" {
						cfg.OutputDir = dir
					}
					if apiURL := cmd.String("api-url"); apiURL != "" {
						cfg.APIURL = apiURL
					}
					if cmd.Bool("no-batch") {
						cfg.UseBatch = false
					}
					if timeout := cmd.Duration("timeout"); timeout > 0 {
						cfg.ClientTimeout = timeout
					}

					c := client.New(cfg.APIURL, cfg.ClientTimeout, logger)
					if cmd.Bool("watch") {
						return client.Watch(ctx, c, cfg.InputDir, cfg.OutputDir)
					}
					return client.Run(ctx, c, cfg.InputDir, cfg.OutputDir, cfg.UseBatch)
				},
			},
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Printf("ocrbridge version %s\n", Version)
					fmt.Printf("Commit: %s\n", Commit)
					fmt.Printf("Built: %s\n", BuildDate)
					return nil
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		logger.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

// runServe initialises the pipeline in the background (requests receive
// 503 until the probe succeeds) and serves HTTP until ctx is cancelled.
func runServe(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	runner := pipeline.NewPaddleRunner(cfg, logger)
	go func() {
		if err := runner.Init(ctx); err != nil {
			logger.WithError(err).Error("OCR pipeline initialisation failed; endpoints will return 503")
		}
	}()
	defer func() {
		if err := pipeline.CleanupEmbeddedScripts(); err != nil {
			logger.WithError(err).Warn("Failed to clean up extracted scripts")
		}
	}()

	return server.New(cfg, runner, logger).Serve(ctx)
}
