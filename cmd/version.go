package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of webex-relay",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("webex-relay version %s\n", version)
		},
	}
}
