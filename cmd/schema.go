package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DachengChen/sqlagent/applog"
	"github.com/DachengChen/sqlagent/assistant"
)

func newSchemaCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the knowledge document built from the database schema",
		Long: `Reads the configured schema source and prints the document that
would be uploaded for indexing. The AI provider is not contacted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			if err := cfg.Database.Validate(); err != nil {
				return err
			}
			_, closeLog := applog.Setup(cfg.Log, nil)
			defer closeLog()

			tables, err := fetchSchema(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			if len(tables) == 0 {
				return assistant.ErrEmptySchema
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), assistant.RenderKnowledge(tables))
			return err
		},
	}
}
