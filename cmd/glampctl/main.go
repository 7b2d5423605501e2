// Package main 提供营地预订后台的运维命令行
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "glampctl",
		Short:         "Glamping booking engine operations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "config file path (default ./configs/config.yaml)")

	rootCmd.AddCommand(
		MigrateCmd(),
		RecalcCmd(),
		InvalidateQuotesCmd(),
		TokenCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
