package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/contexa"
)

func (a *app) runCmd() *cobra.Command {
	var vendor, data string

	cmd := &cobra.Command{
		Use:   "run <agent.yaml> <query>",
		Short: "Run an agent on a vendor SDK",
		Long: `Convert the agent definition for --vendor and run the query.

Examples:
  contexa run --vendor openai agents/researcher.yaml "Who wrote Dune?"
  contexa run --vendor genai agents/planner.yaml "Plan a trip" --data '{"days":3}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := parseData(data)
			if err != nil {
				return err
			}

			return a.withRuntime(cmd, func(ctx context.Context, rt *contexa.Runtime) error {
				ag, err := loadAgent(rt, args[0])
				if err != nil {
					return err
				}
				out, err := rt.Run(ctx, vendor, ag, args[1], payload)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&vendor, "vendor", "", "Vendor to run on (genai, adk, openai, anthropic, langchain, crewai)")
	cmd.Flags().StringVar(&data, "data", "", "JSON object passed as context")
	_ = cmd.MarkFlagRequired("vendor")

	return cmd
}

func (a *app) handoffCmd() *cobra.Command {
	var vendor, from, to, data string

	cmd := &cobra.Command{
		Use:   "handoff <query>",
		Short: "Delegate a query from one agent to another",
		Long: `Run the --to agent on --vendor on behalf of the --from agent.

The request and the result are both recorded on the channel, addressed by
agent name, so they show up in "contexa mail inbox".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := parseData(data)
			if err != nil {
				return err
			}

			return a.withRuntime(cmd, func(ctx context.Context, rt *contexa.Runtime) error {
				src, err := loadAgent(rt, from)
				if err != nil {
					return err
				}
				target, err := loadAgent(rt, to)
				if err != nil {
					return err
				}

				out, err := rt.Handoff(ctx, vendor, src, target, args[0], payload)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "%s %s -> %s\n", okMark, src.Address(), target.Address())
				fmt.Fprintln(w, out)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&vendor, "vendor", "", "Vendor the target runs on")
	cmd.Flags().StringVar(&from, "from", "", "Agent file of the delegating agent")
	cmd.Flags().StringVar(&to, "to", "", "Agent file of the target agent")
	cmd.Flags().StringVar(&data, "data", "", "JSON object passed as context")
	_ = cmd.MarkFlagRequired("vendor")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
