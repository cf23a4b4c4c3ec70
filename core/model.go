package core

// Model describes which vendor model an agent runs on. Zero values mean
// "use the adapter default".
type Model struct {
	Name        string         `yaml:"name" json:"name"`
	Provider    string         `yaml:"provider" json:"provider"`
	// Temperature is nil when unset; a pointer to 0 asks for greedy sampling.
	Temperature *float64       `yaml:"temperature" json:"temperature,omitempty"`
	MaxTokens   int            `yaml:"max_tokens" json:"max_tokens,omitempty"`
	APIKey      string         `yaml:"api_key" json:"-"`
	Config      map[string]any `yaml:"config" json:"config,omitempty"`
}

// Well known provider identifiers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
)

// NewModel returns a model descriptor for provider/name.
func NewModel(provider, name string) Model {
	return Model{Provider: provider, Name: name}
}

// NameOr returns the model name or fallback when unset.
func (m Model) NameOr(fallback string) string {
	if m.Name == "" {
		return fallback
	}
	return m.Name
}

// TemperatureOr returns the requested temperature or fallback when unset.
func (m Model) TemperatureOr(fallback float64) float64 {
	if m.Temperature == nil {
		return fallback
	}
	return *m.Temperature
}

// Ptr returns a pointer to v, for optional fields such as Model.Temperature.
func Ptr[T any](v T) *T { return &v }
