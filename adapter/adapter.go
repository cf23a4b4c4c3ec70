package adapter

import (
	"context"
	"fmt"

	"github.com/hupe1980/contexa/core"
)

// Vendor names used for registration, metrics and CLI flags.
const (
	VendorGenAI     = "genai"
	VendorADK       = "adk"
	VendorOpenAI    = "openai"
	VendorAnthropic = "anthropic"
	VendorLangChain = "langchain"
	VendorCrewAI    = "crewai"
)

// DefaultMaxToolRounds bounds function calling loops.
const DefaultMaxToolRounds = 5

// Runner executes a vendor-neutral agent on one vendor framework.
type Runner interface {
	// Vendor returns the vendor name (see the Vendor* constants).
	Vendor() string
	// Run converts agent (cached) and answers query. data, when non-empty, is
	// appended to the query as a JSON context block.
	Run(ctx context.Context, agent *core.Agent, query string, data map[string]any) (string, error)
}

// Descriptor is the narrow capability adapters need from anything that
// describes itself to a model.
type Descriptor interface {
	Name() string
	Description() string
}

var (
	_ Descriptor = (core.Tool)(nil)
	_ Descriptor = (*agentDescriptor)(nil)
)

type agentDescriptor struct{ a *core.Agent }

func (d agentDescriptor) Name() string        { return d.a.Name }
func (d agentDescriptor) Description() string { return d.a.Description }

// DescribeAgent exposes agent as a Descriptor.
func DescribeAgent(agent *core.Agent) Descriptor {
	return &agentDescriptor{a: agent}
}

// DescriptionOr returns d's description, falling back to its name.
func DescriptionOr(d Descriptor) string {
	if desc := d.Description(); desc != "" {
		return desc
	}
	return d.Name()
}

// CheckProvider fails with ErrUnsupportedProvider unless m's provider is
// empty or one of allowed.
func CheckProvider(m core.Model, allowed ...string) error {
	if m.Provider == "" {
		return nil
	}
	for _, p := range allowed {
		if m.Provider == p {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (want %v)", ErrUnsupportedProvider, m.Provider, allowed)
}
