package cli

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/contexa"
	"github.com/hupe1980/contexa/core"
	"github.com/hupe1980/contexa/config"
	"github.com/hupe1980/contexa/tool"
)

// loadAgent reads an agent file and binds its tools to the runtime channel.
func loadAgent(rt *contexa.Runtime, path string) (*core.Agent, error) {
	def, err := config.LoadAgent(path)
	if err != nil {
		return nil, err
	}
	def.Model = rt.Config.ApplyVendorDefaults(def.Model)
	return def.Build(tool.BuiltinDeps{Channel: rt.Channel()})
}

func parseData(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("invalid --data: %w", err)
	}
	return data, nil
}
