package ports

import (
	"context"

	"github.com/reo-kambayashi/eikaiwa/internal/types"
)

// Synthesizer turns text into speech audio. The returned clip carries
// base64 audio; the caller decides the fallback shape when this fails.
type Synthesizer interface {
	Synthesize(ctx context.Context, req types.SpeechRequest) (types.SpeechClip, error)
}
