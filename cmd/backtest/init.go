package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	enginev1 "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v2"
)

const (
	schemaFileName       = "backtest-engine-v1-config.json"
	sampleConfigFileName = "backtest-engine-v1-config.yaml"
)

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write the engine config schema and a sample config",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Output directory",
				Value: "config",
			},
		},
		Action: initAction,
	}
}

func initAction(_ context.Context, cmd *cli.Command) error {
	dir := cmd.String("dir")
	out := cmd.Root().Writer

	config := enginev1.SampleConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	schemaPath := filepath.Join(dir, schemaFileName)
	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}

	fmt.Fprintf(out, "Schema written to %s\n", schemaPath)

	// An existing config is never overwritten.
	sampleConfigPath := filepath.Join(dir, sampleConfigFileName)
	if _, err := os.Stat(sampleConfigPath); err == nil {
		return nil
	}

	yamlBytes, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config: %w", err)
	}

	yamlBytes = append([]byte("# yaml-language-server: $schema="+schemaFileName+"\n"), yamlBytes...)

	if err := os.WriteFile(sampleConfigPath, yamlBytes, 0644); err != nil {
		return fmt.Errorf("failed to write sample config: %w", err)
	}

	fmt.Fprintf(out, "Sample config written to %s\n", sampleConfigPath)

	return nil
}
