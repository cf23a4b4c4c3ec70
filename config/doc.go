// Package config loads contexa configuration and agent definitions.
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("contexa.yaml").
//	    WithEnvPrefix("CONTEXA").
//	    Load()
//
// Precedence: defaults, then the YAML file, then environment variables.
// Environment keys are built from `env` struct tags joined with "_", for
// example CONTEXA_VENDORS_OPENAI_API_KEY or CONTEXA_REDIS_ADDR.
//
// Agent definition files describe one vendor-neutral agent each and are
// turned into *core.Agent values with LoadAgent and AgentDefinition.Build.
package config
