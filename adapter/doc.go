// Package adapter holds the pieces shared by the vendor adapters under
// adapter/*: the Runner contract, the injected conversion Cache, the
// channel-backed Handoff protocol and the tool-call helpers used by the
// function calling loops.
//
// Each vendor package exposes a Converter created with New(optFns...) that
// turns core.Tool, core.Model, core.Agent and prompts into the vendor's own
// object shapes and implements Runner so agents can be executed and handed
// work through a channel.
package adapter
