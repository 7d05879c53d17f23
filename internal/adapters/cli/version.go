package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the deliverysim version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("deliverysim %s\n", Version)
		},
	}
}
