package domain

// UnitStatus is the user-visible outcome for one unit of work in a request.
// Batch operations report one status per unit; a failing unit never fails
// the whole batch.
type UnitStatus string

const (
	// UnitStatusCompleted means the inference call succeeded inline and the
	// result was persisted during the request.
	UnitStatusCompleted UnitStatus = "completed"

	// UnitStatusQueued means the call hit a rate limit and the work was
	// moved to the retry queue; a worker will replay it.
	UnitStatusQueued UnitStatus = "queued"

	// UnitStatusFailed means the call failed with a non-retryable error.
	UnitStatusFailed UnitStatus = "failed"

	// UnitStatusSkipped means identical content was already processed and
	// the existing record was reused without any inference call.
	UnitStatusSkipped UnitStatus = "skipped"
)
