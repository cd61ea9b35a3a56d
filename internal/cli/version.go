package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tcmonitor version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("tcmonitor", version)
		},
	}
}
