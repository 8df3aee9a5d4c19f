package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/square-key-labs/strawgo-callbridge/src/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration without starting the server",
	Long: `Load configuration from the config file and environment, resolve the
base prompt and report whether the result is usable.

Examples:
  callbridge validate -c config.yaml
  OPENAI_API_KEY=sk-... callbridge validate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "VALID: port %d, media %s, model %s, voice %s, context store %s, prompt %d chars\n",
			cfg.Server.Port,
			cfg.Server.MediaPath,
			cfg.OpenAI.Model,
			cfg.OpenAI.Voice,
			cfg.ContextStore.Backend,
			len(cfg.OpenAI.Instructions),
		)
		return nil
	},
}
