package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	eventsPath    string
	knowledgePath string
	userID        string
	locale        string
)

var rootCmd = &cobra.Command{
	Use:          "chatcli",
	Short:        "Talk to the ticketing assistant from a terminal",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&eventsPath, "events", "", "events YAML file (default: embedded demo corpus)")
	rootCmd.PersistentFlags().StringVar(&knowledgePath, "knowledge", "", "knowledge YAML file (default: embedded tables)")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "cli-user", "conversation user id")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "", "force zh-TW or en (default: detect per message)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
