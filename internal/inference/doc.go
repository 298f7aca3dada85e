// Package inference defines the boundary between the application core and
// external LLM services. The core depends only on the Provider interface and
// this package's error vocabulary; concrete clients live under
// internal/platform.
package inference
