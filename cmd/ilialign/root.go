package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pipelinedata/ili-lineage/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ilialign",
	Short: "Reconcile in-line inspection runs into a unified defect lineage",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "root: load config")
		}
		if err := config.InitLogger(loaded.Log); err != nil {
			return eris.Wrap(err, "root: init logger")
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
