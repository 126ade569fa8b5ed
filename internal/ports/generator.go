package ports

import "context"

// Generator produces text from a prompt using the conversation model.
// Implementations MUST return types.ErrNotConfigured when no API key is
// set, and types.ErrBadResponse when the model returned nothing usable.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}
