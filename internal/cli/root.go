package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "tcmonitor",
	Short: "Tencent Cloud resource expiry and billing monitor",
	Long: `tcmonitor inventories prepaid Tencent Cloud resources (CVM, Lighthouse,
CBS, domains, SSL certificates) across accounts and regions, reports the
ones approaching expiry over WeCom, YunZhiJia and email, and records every
run in a database.

Configuration comes from environment variables or a .env file in the
working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initViper)

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func initViper() {
	viper.SetEnvPrefix("TCMONITOR")
	viper.AutomaticEnv()

	viper.SetDefault("mode", "all")
}
