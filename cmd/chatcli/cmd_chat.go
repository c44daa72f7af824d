package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/pkg/config"
)

func init() {
	rootCmd.AddCommand(chatCmd)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Start an interactive conversation over the demo corpus.

Lines starting with a slash are CLI commands:
  /session  print the stored session
  /reset    clear the conversation context
  /quit     exit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		a, err := newAssistant(cfg)
		if err != nil {
			return err
		}
		return runChat(cmd.Context(), a, os.Stdin, cmd.OutOrStdout())
	},
}

func runChat(ctx context.Context, a *assistant, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "/quit", "/exit":
			return nil
		case "/reset":
			if err := a.store.Clear(ctx, userID); err != nil {
				fmt.Fprintf(out, "reset failed: %v\n", err)
			}
		case "/session":
			if err := printSession(ctx, a, out); err != nil {
				fmt.Fprintf(out, "session: %v\n", err)
			}
		default:
			printReply(out, a.conversation.HandleMessage(ctx, userID, line, locale))
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func printReply(out io.Writer, reply *entities.Reply) {
	fmt.Fprintln(out, reply.ReplyText)
	if reply.QuickReply == nil {
		return
	}
	labels := make([]string, 0, len(reply.QuickReply.Items))
	for _, item := range reply.QuickReply.Items {
		labels = append(labels, "["+item.Text+"]")
	}
	fmt.Fprintln(out, strings.Join(labels, " "))
}

func printSession(ctx context.Context, a *assistant, out io.Writer) error {
	session, err := a.sessions.Find(ctx, userID)
	if err != nil {
		return err
	}
	if session == nil {
		fmt.Fprintln(out, "no session yet")
		return nil
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(session)
}
