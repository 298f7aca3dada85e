package quota

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// ErrRateLimited is the explicit transient-quota marker. Inference providers
// wrap it when they can positively identify a rate-limit response, which
// lets classification succeed even when the provider's message text changes.
var ErrRateLimited = errors.New("rate limited by inference provider")

// rateLimitPhrases are textual signals seen in provider error messages.
// None of them is trusted alone for anything other than classification,
// but any one of them is enough to classify.
var rateLimitPhrases = []string{
	"rate limit",
	"too many requests",
	"quota exceeded",
	"exceeded your current quota",
	"resource_exhausted",
	"resource has been exhausted",
}

// IsRateLimit reports whether err should be treated as a transient quota
// error: retried inline while attempts remain, and queued for background
// replay otherwise. It accepts the explicit marker, a 429 status carried by
// the genai client, the literal status code in the message, or any known
// rate-limit phrasing.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrRateLimited) {
		return true
	}

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") {
		return true
	}

	for _, phrase := range rateLimitPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}

	return false
}
