package inference

import "errors"

// Common errors returned by inference providers.
var (
	// ErrInvalidResponse is returned when the model response cannot be
	// parsed or is missing required fields.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the model refuses the content due
	// to safety filters. Blocked content never succeeds on retry.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrInvalidConfig is returned when the provider configuration is invalid.
	ErrInvalidConfig = errors.New("invalid provider configuration")
)
