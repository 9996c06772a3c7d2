package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/offcuts/internal"
	"github.com/starford/offcuts/internal/backup"
	"github.com/starford/offcuts/internal/mcpserver"
	pkgconfig "github.com/starford/offcuts/pkg/config"
)

var errStoreNotEmpty = errors.New("store is not empty (use --force to replace it)")

func loadConfig(cmd *cli.Command) (*internal.Config, string, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, configPath, nil
}

// stderrLogger keeps stdout free for command output and the MCP protocol.
func stderrLogger(cfg *internal.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, configPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}
	if !cmd.Bool("no-watch") {
		opts = append(opts, internal.WithConfigPath(configPath))
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func backupExport(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := stderrLogger(cfg)

	backend, err := internal.OpenBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	d, err := internal.NewCodec(cfg, backend, logger).Export(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	out := cmd.String("out")
	if out == "" || out == "-" {
		return backup.Encode(os.Stdout, d)
	}
	if err := backup.WriteFile(out, d); err != nil {
		return err
	}
	logger.Info("backup: exported",
		slog.String("path", out),
		slog.Int("nodes", len(d.Nodes)),
		slog.Int("relationships", len(d.Relationships)))
	return nil
}

func backupImport(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := stderrLogger(cfg)

	in := cmd.String("in")
	var d *backup.Document
	if in == "-" {
		d, err = backup.Decode(os.Stdin)
	} else {
		d, err = backup.ReadFile(in)
	}
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	backend, err := internal.OpenBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	if !cmd.Bool("force") {
		empty, err := backend.IsEmpty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			return errStoreNotEmpty
		}
	}

	rep, err := internal.NewCodec(cfg, backend, logger).Import(ctx, d)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := stderrLogger(cfg)
	slog.SetDefault(logger)

	backend, err := internal.OpenBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	photos, err := internal.OpenPhotos(ctx, cfg)
	if err != nil {
		return err
	}

	svc := internal.NewService(cfg, backend, logger)
	return mcpserver.New(svc, photos).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:   "offcuts",
		Usage:  "Marketplace for production offcuts backed by a property graph",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-watch",
						Usage: "Do not reload the config file on change",
					},
				},
			},
			{
				Name:  "backup",
				Usage: "Export or restore the whole graph",
				Commands: []*cli.Command{
					{
						Name:   "export",
						Usage:  "Write a backup document",
						Action: backupExport,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "out",
								Aliases: []string{"o"},
								Usage:   "Output file, - for stdout",
								Value:   "-",
							},
						},
					},
					{
						Name:   "import",
						Usage:  "Replace the graph with a backup document",
						Action: backupImport,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "in",
								Aliases:  []string{"i"},
								Usage:    "Input file, - for stdin",
								Required: true,
							},
							&cli.BoolFlag{
								Name:  "force",
								Usage: "Replace a non-empty store",
							},
						},
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve marketplace tools over MCP stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
