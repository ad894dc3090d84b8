package cmd

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask a question about the ingested documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}

		var res struct {
			SessionID string   `json:"session_id"`
			Answer    string   `json:"answer"`
			ChunkIDs  []string `json:"chunk_ids"`
			Sources   []string `json:"sources"`
			Degraded  bool     `json:"degraded"`
		}
		req := map[string]string{"session_id": chatSession, "query": strings.Join(args, " ")}
		if err := c.json(http.MethodPost, "/api/chat", req, &res); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, res.Answer)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "session: %s\n", res.SessionID)
		if len(res.Sources) > 0 {
			fmt.Fprintf(out, "sources: %s\n", strings.Join(res.Sources, ", "))
		}
		if res.Degraded {
			fmt.Fprintln(out, "warning: the service answered in degraded mode")
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Show the conversation history of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		var res struct {
			SessionID string `json:"session_id"`
			History   []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"history"`
			MessageCount int `json:"message_count"`
		}
		if err := c.json(http.MethodGet, "/api/chat/"+escape(args[0])+"/history", nil, &res); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "session %s: %d messages\n", res.SessionID, res.MessageCount)
		for _, t := range res.History {
			fmt.Fprintf(out, "[%s] %s\n", t.Role, t.Content)
		}
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear [session-id]",
	Short: "Delete the conversation history of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		var res struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		}
		if err := c.json(http.MethodDelete, "/api/chat/"+escape(args[0]), nil, &res); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd, historyCmd, clearCmd)
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "session id to continue (a new session is started when empty)")
}
