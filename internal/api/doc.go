// Package api provides the HTTP handlers for resume intake, job submission,
// batch matching, and queue inspection. Handlers decode and validate
// requests, delegate to the service layer, and translate per-unit outcomes
// into JSON responses. Batch endpoints report one status per unit and never
// fail the whole request because a single unit failed.
package api
