package cli

import (
	"os"

	"github.com/spf13/cobra"

	"ladder-quiz-bot/internal/chat"
	"ladder-quiz-bot/internal/config"
	"ladder-quiz-bot/internal/transport/console"
)

// NewPlayCmd plays the game in the terminal against the configured storage.
func NewPlayCmd(configPath *string) *cobra.Command {
	var playerID int64
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			b, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			game, err := newGame(cfg, b)
			if err != nil {
				return err
			}
			return console.Run(cmd.Context(), chat.NewDispatcher(game), playerID, os.Stdin, cmd.OutOrStdout())
		},
	}
	cmd.Flags().Int64Var(&playerID, "player", 1, "player ID to play as")
	return cmd
}
