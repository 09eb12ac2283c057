package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "버전을 출력합니다",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("autotrader %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
