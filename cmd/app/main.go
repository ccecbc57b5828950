package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/taskdown/taskdown/internal"
	"github.com/taskdown/taskdown/internal/models"
	"github.com/taskdown/taskdown/internal/outline"
	"github.com/taskdown/taskdown/internal/parser"
	pkgconfig "github.com/taskdown/taskdown/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default config: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

// runFmt rewrites each named file in canonical outline form.
func runFmt(_ context.Context, cmd *cli.Command) error {
	for _, path := range cmd.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		doc := parser.Parse(string(data))
		outline.Normalize(doc)
		canonical := parser.Serialize(doc)
		if canonical == string(data) {
			continue
		}
		if err := os.WriteFile(path, []byte(canonical), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintln(cmd.Writer, path)
	}
	return nil
}

// runCheck prints a task summary per file and reports files whose content is
// not in canonical form.
func runCheck(_ context.Context, cmd *cli.Command) error {
	dirty := 0
	for _, path := range cmd.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		doc := parser.Parse(string(data))
		outline.Normalize(doc)

		tasks, done := 0, 0
		doc.Walk(func(n *models.EventNode) bool {
			tasks++
			if n.IsChecked {
				done++
			}
			return true
		})

		status := "canonical"
		if parser.Serialize(doc) != string(data) {
			status = "not canonical"
			dirty++
		}
		fmt.Fprintf(cmd.Writer, "%s: %d tasks, %d done, %s\n", path, tasks, done, status)
	}
	if dirty > 0 {
		return fmt.Errorf("%d file(s) not canonical", dirty)
	}
	return nil
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "taskdown",
		Usage:  "Hierarchical task outlines stored as plain Markdown, with search, references, and live updates",
		Action: runServe,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API server",
				Action: runServe,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "mcp",
				Usage:  "Start the MCP server on stdio",
				Action: runMCP,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:      "fmt",
				Usage:     "Rewrite outline files in canonical form",
				ArgsUsage: "FILE...",
				Action:    runFmt,
			},
			{
				Name:      "check",
				Usage:     "Verify outline files are in canonical form",
				ArgsUsage: "FILE...",
				Action:    runCheck,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
