package ai

import "errors"

// AI module errors.
var (
	ErrEmptyPrompt         = errors.New("prompt is empty")
	ErrEmptyResponse       = errors.New("provider returned no content")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrGenerationNotFound  = errors.New("generation not found")
)
