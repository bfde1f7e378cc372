package cmd

import (
	"github.com/spf13/cobra"

	"github.com/DachengChen/sqlagent/applog"
	"github.com/DachengChen/sqlagent/tui"
)

func newChatCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Ask questions in the terminal chat client",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, flags)
		},
	}
}

func runChat(cmd *cobra.Command, flags *globalFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}
	// The terminal belongs to the TUI; logs go to the file only.
	_, closeLog := applog.Setup(cfg.Log, nil)
	defer closeLog()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Start(cmd.Context(), tui.Options{
		Answerer:   a.answerer,
		Initialize: a.initialize,
		Label:      sourceLabel(cfg.Database),

		MaxQuestionLength: cfg.Server.MaxQuestionLength,
	})
}
