package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/contexa"
	"github.com/hupe1980/contexa/channel"
	"github.com/hupe1980/contexa/core"
)

func (a *app) mailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mail",
		Short: "Send and read channel messages",
		Long: `Send and read messages on the configured channel.

Messages are never removed by reading; every inbox read replays the full
history for the recipient, optionally filtered with --since.`,
	}

	cmd.AddCommand(a.mailSendCmd())
	cmd.AddCommand(a.mailInboxCmd())

	return cmd
}

func (a *app) mailSendCmd() *cobra.Command {
	var from, to, msgType string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "send <body>",
		Short: "Send a message to another agent",
		Long: `Send a message from one address to another.

Examples:
  contexa mail send "Please review section 2" --from lead --to reviewer
  contexa mail send '{"doc":"d1"}' --json --from lead --to reviewer --type handoff`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				return fmt.Errorf("--to is required")
			}

			var content any = args[0]
			if asJSON {
				var v map[string]any
				if err := json.Unmarshal([]byte(args[0]), &v); err != nil {
					return fmt.Errorf("invalid JSON body: %w", err)
				}
				content = v
			}

			return a.withRuntime(cmd, func(ctx context.Context, rt *contexa.Runtime) error {
				id, err := rt.Send(ctx, from, to, content, msgType)
				if err != nil {
					return fmt.Errorf("failed to send message: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s Message sent: %s\n", okMark, id)
				fmt.Fprintf(out, "  From: %s\n", from)
				fmt.Fprintf(out, "  To: %s\n", to)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "cli", "Sender address")
	cmd.Flags().StringVar(&to, "to", "", "Recipient address")
	cmd.Flags().StringVar(&msgType, "type", core.MessageTypeText, "Message type (text, handoff, result, ...)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Treat the body as a JSON object")

	return cmd
}

func (a *app) mailInboxCmd() *cobra.Command {
	var since string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inbox <recipient>",
		Short: "List messages addressed to a recipient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []func(o *channel.ReceiveOptions)
			if since != "" {
				t, err := time.Parse(time.RFC3339Nano, since)
				if err != nil {
					return fmt.Errorf("invalid --since: %w", err)
				}
				opts = append(opts, channel.Since(t))
			}

			return a.withRuntime(cmd, func(ctx context.Context, rt *contexa.Runtime) error {
				msgs, err := rt.Inbox(ctx, args[0], opts...)
				if err != nil {
					return err
				}
				if asJSON {
					envs := make([]map[string]any, 0, len(msgs))
					for _, m := range msgs {
						envs = append(envs, m.Envelope())
					}
					return printJSON(cmd, envs)
				}
				printInbox(cmd, args[0], msgs)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "Only messages after this RFC3339 timestamp")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print messages as JSON")

	return cmd
}

func printInbox(cmd *cobra.Command, recipient string, msgs []core.Message) {
	out := cmd.OutOrStdout()
	if len(msgs) == 0 {
		fmt.Fprintf(out, "No messages for %s\n", recipient)
		return
	}

	fmt.Fprintf(out, "%s (%d)\n\n", hdrColor.Sprintf("Inbox for %s", recipient), len(msgs))
	for _, m := range msgs {
		fmt.Fprintf(out, "%s  %s  from %s\n", dimColor.Sprint(m.Timestamp().Format(time.RFC3339)), m.Type(), m.SenderID())
		fmt.Fprintf(out, "  id: %s\n", m.ID())
		if text, ok := m.Text(); ok {
			fmt.Fprintf(out, "  %s\n\n", text)
			continue
		}
		body, err := json.Marshal(m.Content())
		if err != nil {
			body = []byte(fmt.Sprint(m.Content()))
		}
		fmt.Fprintf(out, "  %s\n\n", body)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
