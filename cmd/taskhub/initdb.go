package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the project schema and the tasks record table",
	Long: `Creates both databases if needed, applies the project schema and registers
the tasks record table (partition key project_id, sort key task_id).
Safe to run repeatedly.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		if err := st.Close(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "initialized %s and %s\n", cfg.Database.ProjectsPath, cfg.Database.TasksPath)
		return nil
	},
}
