package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/contexa"
	"github.com/hupe1980/contexa/adapter"
	"github.com/hupe1980/contexa/adapter/adk"
	"github.com/hupe1980/contexa/adapter/anthropic"
	"github.com/hupe1980/contexa/adapter/crewai"
	"github.com/hupe1980/contexa/adapter/genai"
	"github.com/hupe1980/contexa/adapter/langchain"
	"github.com/hupe1980/contexa/adapter/openai"
	"github.com/hupe1980/contexa/core"
)

func (a *app) convertCmd() *cobra.Command {
	var vendor string

	cmd := &cobra.Command{
		Use:   "convert <agent.yaml>...",
		Short: "Print the vendor rendition of agent definitions",
		Long: `Convert agent definitions for --vendor and print the result.

openai, anthropic and genai print request parameters as JSON, crewai prints
a crew YAML document containing every given agent, adk and langchain print
a summary of the constructed agent.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(ctx context.Context, rt *contexa.Runtime) error {
				agents := make([]*core.Agent, 0, len(args))
				for _, path := range args {
					ag, err := loadAgent(rt, path)
					if err != nil {
						return err
					}
					agents = append(agents, ag)
				}

				r, err := rt.Runner(vendor)
				if err != nil {
					return err
				}
				return convertAgents(ctx, cmd, r, agents)
			})
		},
	}

	cmd.Flags().StringVar(&vendor, "vendor", "", "Target vendor")
	_ = cmd.MarkFlagRequired("vendor")

	return cmd
}

func convertAgents(ctx context.Context, cmd *cobra.Command, r adapter.Runner, agents []*core.Agent) error {
	if c, ok := r.(*crewai.Converter); ok {
		crew, err := c.Crew(agents...)
		if err != nil {
			return err
		}
		return crew.WriteYAML(cmd.OutOrStdout())
	}

	out := make([]any, 0, len(agents))
	for _, ag := range agents {
		v, err := convertAgent(ctx, r, ag)
		if err != nil {
			return err
		}
		out = append(out, v)
	}
	if len(out) == 1 {
		return printJSON(cmd, out[0])
	}
	return printJSON(cmd, out)
}

func convertAgent(ctx context.Context, r adapter.Runner, ag *core.Agent) (any, error) {
	switch c := r.(type) {
	case *openai.Converter:
		conv, err := c.Agent(ag)
		if err != nil {
			return nil, err
		}
		return map[string]any{"system": conv.System, "params": conv.Params}, nil
	case *anthropic.Converter:
		conv, err := c.Agent(ag)
		if err != nil {
			return nil, err
		}
		return conv.Params, nil
	case *genai.Converter:
		conv, err := c.Agent(ag)
		if err != nil {
			return nil, err
		}
		return map[string]any{"model": conv.Model, "config": conv.Config}, nil
	case *adk.Converter:
		conv, err := c.Agent(ctx, ag)
		if err != nil {
			return nil, err
		}
		return map[string]any{"name": conv.Name(), "description": conv.Description(), "tools": ag.ToolNames()}, nil
	case *langchain.Converter:
		if _, err := c.Agent(ag); err != nil {
			return nil, err
		}
		return map[string]any{"name": ag.Name, "model": ag.Model.Name, "provider": ag.Model.Provider, "tools": ag.ToolNames()}, nil
	}
	return nil, fmt.Errorf("%w: convert for %s", adapter.ErrNotImplemented, r.Vendor())
}
