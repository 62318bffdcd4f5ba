package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pipelinedata/ili-lineage/internal/config"
)

var configOutputPath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the pipeline's default tunables as YAML",
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().StringVar(&configOutputPath, "output", "", "path to write config.yaml (defaults to stdout)")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	encoded, err := yaml.Marshal(config.Default())
	if err != nil {
		return eris.Wrap(err, "config: marshal defaults")
	}
	if configOutputPath == "" {
		_, err := os.Stdout.Write(encoded)
		return err
	}
	return os.WriteFile(configOutputPath, encoded, 0o644)
}
