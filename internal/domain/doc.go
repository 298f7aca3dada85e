// Package domain contains the core entities of the matching system:
// resumes, job descriptions, extracted candidates, match results, and
// the retry-queue items that defer rate-limited inference work.
package domain
