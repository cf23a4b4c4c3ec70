package core

import "context"

// Tool is a callable capability exposed to models.
//
// Parameters returns a JSON schema object describing the arguments; adapters
// forward it to vendor function declarations. Call receives arguments already
// decoded from the model's JSON and returns any JSON-serializable value.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Call(ctx context.Context, args map[string]any) (any, error)
}
