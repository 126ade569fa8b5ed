package ports

import (
	"context"

	"github.com/reo-kambayashi/eikaiwa/internal/types"
)

// TriviaSource fetches one multiple-choice question from an external bank.
type TriviaSource interface {
	FetchQuestion(ctx context.Context, category, difficulty string) (types.ListeningProblem, error)
}
