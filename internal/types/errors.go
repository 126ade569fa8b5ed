package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured signals a missing API key or a disabled upstream.
	ErrNotConfigured = errors.New("upstream not configured")
	// ErrUpstream covers network failures, non-2xx statuses and rate limits
	// from the AI/TTS/trivia services.
	ErrUpstream = errors.New("upstream call failed")
	// ErrBadResponse signals a 2xx response whose body could not be used
	// (no candidates, no audio part, malformed embedded JSON).
	ErrBadResponse = errors.New("unusable upstream response")
)

func Err(typedError error, innerErr error, msgTemplate string, args ...any) error {
	if msgTemplate == "" {
		return errors.Join(typedError, innerErr)
	} else {
		return errors.Join(typedError, innerErr, fmt.Errorf(msgTemplate, args...))
	}
}
