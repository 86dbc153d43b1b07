package gateway

import (
	"fmt"

	"github.com/spf13/cobra"
)

// buildVersion is overridden at build time via -ldflags.
var buildVersion = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the gateway version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("codegateway %s\n", buildVersion)
	},
}
