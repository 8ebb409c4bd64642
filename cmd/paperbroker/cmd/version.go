package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the paperbroker CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("paperbroker version %s\n", version)
		fmt.Println("A paper-money stock trading service")
		fmt.Println("https://github.com/rustyeddy/paperbroker")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
