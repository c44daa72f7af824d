package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/pkg/config"
)

func init() {
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <message>",
	Short: "Show how a message is classified and parsed from an idle session",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		a, err := newAssistant(cfg)
		if err != nil {
			return err
		}

		message := strings.Join(args, " ")
		idle := &entities.Session{UserID: userID, State: entities.SessionStateIdle}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(map[string]interface{}{
			"intent": a.classifier.Classify(message, idle),
			"query":  a.parser.Parse(message),
		})
	},
}
