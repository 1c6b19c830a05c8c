package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the webex-relay application
var rootCmd = &cobra.Command{
	Use:   "webex-relay",
	Short: "Relay server between client applications and the Webex REST API",
	Long: `webex-relay is a small HTTP service that sits between client applications
and the Webex REST API.

It drives the Webex OAuth authorization-code flow, caches the resulting
access token, forwards meeting-creation and join-link requests to Webex,
and buffers inbound raw audio streams into rotating chunk files on disk.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "webex-relay version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
