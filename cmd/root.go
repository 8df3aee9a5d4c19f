// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "callbridge",
	Short: "callbridge - Twilio Media Streams to OpenAI Realtime voice relay",
	Long: `callbridge connects phone calls to an OpenAI Realtime voice session.

Twilio streams caller audio over a Media Streams websocket; callbridge
forwards it to the realtime session and plays the AI's spoken replies
back to the caller. When the caller talks over the AI, buffered audio is
cleared and the in-flight response is cancelled.

Per-call context registered through the context endpoint before the call
connects is appended to the session instructions.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (defaults and CALLBRIDGE_* environment when empty)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}
