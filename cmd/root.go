// Package cmd contains all Cobra commands for sqlagent.
//
// Running `sqlagent` with no arguments starts the terminal chat client,
// `sqlagent serve` exposes the HTTP API and `sqlagent schema` prints the
// knowledge document that would be indexed.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *globalFlags) {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "sqlagent",
		Short: "Ask questions about your database, get SQL back",
		Long: `sqlagent generates SQL from natural-language questions:
  • Knowledge base built from the live schema (Postgres, MySQL, SQL Server, SQLite or a YAML file)
  • Hosted assistant with file search over that knowledge base
  • Follow-up questions refine the previous query in the same conversation
  • Optional SSH tunnel for databases behind a bastion

Run 'sqlagent' to start the chat client or 'sqlagent serve' for the HTTP API.`,
		SilenceUsage: true,
		// Running with no subcommand launches the TUI.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, &flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "config file (default ./sqlagent.yaml, then ~/.sqlagent/config.yaml)")
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("driver", "", "schema source: postgres, mysql, sqlserver, sqlite, file")
	pf.String("dsn", "", "database connection string, or the schema file path")
	flags.bindings = map[string]string{
		"log.level":       "log-level",
		"database.driver": "driver",
		"database.dsn":    "dsn",
	}

	root.AddCommand(
		newChatCommand(&flags),
		newServeCommand(&flags),
		newSchemaCommand(&flags),
	)
	return root, &flags
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}
