package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ladder-quiz-bot/internal/config"
)

// NewSeedCmd imports the configured question bank into the durable store.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Import the question bank into sqlite or postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			b, err := openStorage(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()
			if b.importer == nil {
				return fmt.Errorf("storage driver %q keeps the bank in memory, nothing to seed", cfg.Storage.Driver)
			}
			return importBank(cmd.Context(), cfg, b.importer)
		},
	}
}
